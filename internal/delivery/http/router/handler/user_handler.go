// Package handler contains the HTTP handlers for the application.
package handler

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"clipstream/internal/delivery/http/response"
	domainerrors "clipstream/internal/domain/errors"
	"clipstream/internal/domain/service"
	"clipstream/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Session cookie names. Both cookies are HTTP-only and secure: invisible to
// scripts and only sent over encrypted transport.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// Multipart field names for the registration assets.
const (
	avatarFormField = "avatar"
	coverFormField  = "coverImage"
)

// UserHandler holds dependencies for user-related handlers.
type UserHandler struct {
	uc       usecase.UserUsecase
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewUserHandler is the constructor for UserHandler, injected by Fx.
func NewUserHandler(uc usecase.UserUsecase, tokenSvc service.TokenService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		uc:       uc,
		tokenSvc: tokenSvc,
		logger:   logger,
	}
}

// loginRequest is the JSON body of the login endpoint.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Register handles the user registration request. The body is multipart form
// data carrying the profile fields plus an avatar file and an optional cover
// image. Uploaded files are spooled to disk for the duration of the request.
func (h *UserHandler) Register(c echo.Context) error {
	input := &usecase.RegisterInput{
		FullName: c.FormValue("fullName"),
		Email:    c.FormValue("email"),
		Username: c.FormValue("username"),
		Password: c.FormValue("password"),
	}

	avatarPath, cleanupAvatar, err := h.spoolFormFile(c, avatarFormField)
	if err != nil {
		return errors.WithStack(err)
	}
	defer cleanupAvatar()
	input.AvatarPath = avatarPath

	coverPath, cleanupCover, err := h.spoolFormFile(c, coverFormField)
	if err != nil {
		return errors.WithStack(err)
	}
	defer cleanupCover()
	input.CoverImagePath = coverPath

	output, err := h.uc.Register(c.Request().Context(), input)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output, "User registered successfully")
}

// Login handles the user login request. On success both tokens are returned
// in the body and as secure HTTP-only session cookies.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	output, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	c.SetCookie(sessionCookie(accessTokenCookie, output.AccessToken, h.tokenSvc.GetAccessTokenDuration()))
	c.SetCookie(sessionCookie(refreshTokenCookie, output.RefreshToken, h.tokenSvc.GetRefreshTokenDuration()))

	return response.Success(c, http.StatusOK, output, "User logged in successfully")
}

// Logout handles the user logout request. The auth middleware has already
// attached the verified user ID to the context.
func (h *UserHandler) Logout(c echo.Context) error {
	userIDVal := c.Get("userID")
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		return domainerrors.ErrUnauthorized.WrapMessage("no verified user on request context")
	}

	if err := h.uc.Logout(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	c.SetCookie(expiredCookie(accessTokenCookie))
	c.SetCookie(expiredCookie(refreshTokenCookie))

	return response.Success(c, http.StatusOK, map[string]string{}, "User logged out")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}

// spoolFormFile copies the named multipart file to a temporary path owned by
// this request. A missing file is not an error here; presence requirements
// belong to the use case. The returned cleanup is always safe to call.
func (h *UserHandler) spoolFormFile(c echo.Context, field string) (string, func(), error) {
	noop := func() {}

	fileHeader, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", noop, nil
		}

		return "", noop, echo.NewHTTPError(http.StatusBadRequest, "malformed multipart form")
	}

	path, err := saveToTemp(fileHeader)
	if err != nil {
		h.logger.Error("Failed to spool uploaded file", slog.String("field", field), slog.Any("error", err))

		return "", noop, echo.NewHTTPError(http.StatusInternalServerError, "failed to store uploaded file")
	}

	return path, func() { _ = os.Remove(path) }, nil
}

func saveToTemp(fileHeader *multipart.FileHeader) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", errors.Wrap(err, "failed to open multipart file")
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "clipstream-upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return "", errors.Wrap(err, "failed to create temp file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())

		return "", errors.Wrap(err, "failed to write temp file")
	}

	return dst.Name(), nil
}

func sessionCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}
