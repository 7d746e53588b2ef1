package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipstream/internal/delivery/http/validator"
	domainerrors "clipstream/internal/domain/errors"
	"clipstream/internal/domain/service"
	"clipstream/internal/usecase"
)

// stubUsecase records the inputs the handler passes down and returns canned
// outputs.
type stubUsecase struct {
	registerInput  *usecase.RegisterInput
	registerOutput *usecase.RegisterOutput
	registerErr    error

	loginInput  *usecase.LoginInput
	loginOutput *usecase.LoginOutput
	loginErr    error

	logoutUserID uuid.UUID
	logoutErr    error
}

func (s *stubUsecase) Register(_ context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	clone := *input
	s.registerInput = &clone

	return s.registerOutput, s.registerErr
}

func (s *stubUsecase) Login(_ context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	clone := *input
	s.loginInput = &clone

	return s.loginOutput, s.loginErr
}

func (s *stubUsecase) Logout(_ context.Context, userID uuid.UUID) error {
	s.logoutUserID = userID

	return s.logoutErr
}

type stubTokenService struct{}

func (stubTokenService) GenerateAccessToken(uuid.UUID, string, string) (string, error) {
	return "access", nil
}
func (stubTokenService) GenerateRefreshToken(uuid.UUID) (string, error) { return "refresh", nil }
func (stubTokenService) ValidateAccessToken(string) (*service.Claims, error) {
	return &service.Claims{}, nil
}
func (stubTokenService) ValidateRefreshToken(string) (*service.Claims, error) {
	return &service.Claims{}, nil
}
func (stubTokenService) GetAccessTokenDuration() time.Duration  { return 15 * time.Minute }
func (stubTokenService) GetRefreshTokenDuration() time.Duration { return 7 * 24 * time.Hour }

func newTestHandler(uc usecase.UserUsecase) *UserHandler {
	return NewUserHandler(uc, stubTokenService{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestEcho mirrors the server setup the handlers run under.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = validator.New()

	return e
}

// multipartBody builds a registration form with the given text fields and
// files (field name to content).
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for name, value := range fields {
		require.NoError(t, writer.WriteField(name, value))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func registerFields() map[string]string {
	return map[string]string{
		"fullName": "Test User",
		"email":    "test@example.com",
		"username": "testuser",
		"password": "Password123!",
	}
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))

	return payload
}

func TestUserHandler_Register(t *testing.T) {
	uc := &stubUsecase{
		registerOutput: &usecase.RegisterOutput{
			User: &usecase.UserView{
				ID:        uuid.New(),
				Username:  "testuser",
				Email:     "test@example.com",
				FullName:  "Test User",
				AvatarURL: "https://cdn.example.com/uploads/a.png",
			},
		},
	}
	h := newTestHandler(uc)

	body, contentType := multipartBody(t, registerFields(), map[string]string{
		"avatar":     "avatar-bytes",
		"coverImage": "cover-bytes",
	})

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Register(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusCreated, rec.Code)

	payload := decodeResponse(t, rec)
	assert.Equal(t, true, payload["success"])

	require.NotNil(t, uc.registerInput)
	assert.Equal(t, "testuser", uc.registerInput.Username)
	assert.NotEmpty(t, uc.registerInput.AvatarPath)
	assert.NotEmpty(t, uc.registerInput.CoverImagePath)

	// The spooled files are removed once the handler returns.
	_, err := os.Stat(uc.registerInput.AvatarPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(uc.registerInput.CoverImagePath)
	assert.True(t, os.IsNotExist(err))
}

func TestUserHandler_Register_WithoutFiles(t *testing.T) {
	uc := &stubUsecase{
		registerOutput: &usecase.RegisterOutput{User: &usecase.UserView{}},
	}
	h := newTestHandler(uc)

	body, contentType := multipartBody(t, registerFields(), nil)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Register(e.NewContext(req, rec)))

	// Missing files reach the use case as empty paths; the presence rule
	// lives there, not in the handler.
	require.NotNil(t, uc.registerInput)
	assert.Empty(t, uc.registerInput.AvatarPath)
	assert.Empty(t, uc.registerInput.CoverImagePath)
}

func findCookie(cookies []*http.Cookie, name string) *http.Cookie {
	for _, cookie := range cookies {
		if cookie.Name == name {
			return cookie
		}
	}

	return nil
}

func TestUserHandler_Login(t *testing.T) {
	uc := &stubUsecase{
		loginOutput: &usecase.LoginOutput{
			User:         &usecase.UserView{Username: "testuser"},
			AccessToken:  "access-token-value",
			RefreshToken: "refresh-token-value",
		},
	}
	h := newTestHandler(uc)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"test@example.com","username":"testuser","password":"Password123!"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, uc.loginInput)
	assert.Equal(t, "test@example.com", uc.loginInput.Email)
	assert.Equal(t, "testuser", uc.loginInput.Username)

	cookies := rec.Result().Cookies()
	access := findCookie(cookies, "accessToken")
	require.NotNil(t, access)
	assert.Equal(t, "access-token-value", access.Value)
	assert.True(t, access.HttpOnly)
	assert.True(t, access.Secure)
	assert.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := findCookie(cookies, "refreshToken")
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token-value", refresh.Value)
	assert.True(t, refresh.HttpOnly)
	assert.True(t, refresh.Secure)
	assert.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)

	payload := decodeResponse(t, rec)
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "access-token-value", data["accessToken"])
	assert.Equal(t, "refresh-token-value", data["refreshToken"])
}

func TestUserHandler_Login_MalformedBody(t *testing.T) {
	h := newTestHandler(&stubUsecase{})

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, h.Login(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserHandler_Login_ValidationFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing password", `{"email":"test@example.com","username":"testuser"}`},
		{"missing username", `{"email":"test@example.com","password":"Password123!"}`},
		{"invalid email", `{"email":"not-an-email","username":"testuser","password":"Password123!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUsecase{}
			h := newTestHandler(uc)

			e := newTestEcho()
			req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			require.NoError(t, h.Login(e.NewContext(req, rec)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, uc.loginInput, "validation failures must not reach the use case")

			payload := decodeResponse(t, rec)
			errInfo, ok := payload["error"].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", errInfo["code"])
		})
	}
}

func TestUserHandler_Logout(t *testing.T) {
	uc := &stubUsecase{}
	h := newTestHandler(uc)
	userID := uuid.New()

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("userID", userID)

	require.NoError(t, h.Logout(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID, uc.logoutUserID)

	cookies := rec.Result().Cookies()
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := findCookie(cookies, name)
		require.NotNil(t, cookie)
		assert.Empty(t, cookie.Value)
		assert.Equal(t, -1, cookie.MaxAge, "session cookies must be expired on logout")
	}
}

func TestUserHandler_Logout_MissingUserID(t *testing.T) {
	uc := &stubUsecase{}
	h := newTestHandler(uc)

	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()

	err := h.Logout(e.NewContext(req, rec))

	require.Error(t, err)
	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPCode())
	assert.Equal(t, "UNAUTHORIZED", appErr.ErrorCode())
	assert.Equal(t, uuid.Nil, uc.logoutUserID)
}

func TestHealthCheck(t *testing.T) {
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, HealthCheck(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)

	payload := decodeResponse(t, rec)
	data, ok := payload["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}
