// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "clipstream/internal/delivery/context"
	"clipstream/internal/domain/entity"
	domainerrors "clipstream/internal/domain/errors"
	"clipstream/internal/domain/repository"
	"clipstream/internal/domain/service"
	"clipstream/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// userService implements the UserUsecase interface.
type userService struct {
	userRepo   repository.UserRepository
	hasher     service.PasswordHasher
	tokenSvc   service.TokenService
	assetStore service.AssetStore
	logger     *slog.Logger
}

// UserServiceParams holds dependencies for UserService, injected by Fx.
type UserServiceParams struct {
	fx.In

	UserRepo   repository.UserRepository
	Hasher     service.PasswordHasher
	TokenSvc   service.TokenService
	AssetStore service.AssetStore
	Logger     *slog.Logger
}

// NewUserService is the constructor for userService. It receives all dependencies as interfaces.
func NewUserService(params UserServiceParams) usecase.UserUsecase {
	return &userService{
		userRepo:   params.UserRepo,
		hasher:     params.Hasher,
		tokenSvc:   params.TokenSvc,
		assetStore: params.AssetStore,
		logger:     params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *userService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register orchestrates the complete user registration process. The
// uniqueness check runs strictly before any asset upload so a conflicting
// registration never leaves orphaned uploads behind.
func (srv *userService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	fullName := strings.TrimSpace(input.FullName)
	email := strings.TrimSpace(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))
	password := strings.TrimSpace(input.Password)

	if fullName == "" || email == "" || username == "" || password == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("registration rejected")
	}

	srv.log(ctx).Info("Starting registration", slog.String("username", username), slog.String("email", email))

	existing, err := srv.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return nil, errors.Wrap(err, "failed to check existing user")
	}
	if existing != nil {
		srv.log(ctx).Warn("Registration conflict", slog.String("username", username))

		return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("registration rejected")
	}

	if input.AvatarPath == "" {
		return nil, domainerrors.ErrAvatarRequired.WrapMessage("registration rejected")
	}

	avatarURL, coverURL, err := srv.uploadRegistrationAssets(ctx, input.AvatarPath, input.CoverImagePath)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := srv.hasher.Hash(password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password during registration", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage("registration failed")
	}

	newUser := &entity.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		PasswordHash:  hashedPassword,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	}

	if err := srv.userRepo.Create(ctx, newUser); err != nil {
		// A concurrent registration may win the race after the pre-check;
		// the database constraint resolves it and we surface the same conflict.
		if errors.Is(err, repository.ErrDuplicateUser) {
			srv.log(ctx).Warn("Registration lost uniqueness race", slog.String("username", username))

			return nil, domainerrors.ErrUserAlreadyExists.WrapMessage("registration rejected")
		}

		return nil, errors.Wrap(err, "failed to create user during registration")
	}

	createdUser, err := srv.userRepo.FindByID(ctx, newUser.ID)
	if err != nil {
		// Creation succeeded but the verification read failed; surface this
		// consistency problem distinctly from validation failures.
		srv.log(ctx).Error("Post-create read failed", slog.Any("userID", newUser.ID), slog.Any("error", err))

		return nil, domainerrors.ErrUserCreationFailed.WrapMessage("created user could not be read back")
	}

	srv.log(ctx).Debug("Registration completed", slog.Any("userID", createdUser.ID))

	return &usecase.RegisterOutput{User: usecase.NewUserView(createdUser)}, nil
}

// uploadRegistrationAssets exchanges the local avatar and optional cover
// image for durable URLs. A failed avatar upload aborts registration; a
// failed cover upload degrades to an empty cover URL.
func (srv *userService) uploadRegistrationAssets(ctx context.Context, avatarPath, coverPath string) (string, string, error) {
	avatar, err := srv.assetStore.Upload(ctx, avatarPath)
	if err != nil || avatar == nil || avatar.URL == "" {
		srv.log(ctx).Warn("Avatar upload yielded no usable asset", slog.Any("error", err))

		return "", "", domainerrors.ErrAvatarRequired.WrapMessage("avatar upload failed")
	}

	coverURL := ""
	if coverPath != "" {
		cover, err := srv.assetStore.Upload(ctx, coverPath)
		if err != nil || cover == nil {
			srv.log(ctx).Warn("Cover image upload failed, continuing without cover", slog.Any("error", err))
		} else {
			coverURL = cover.URL
		}
	}

	return avatar.URL, coverURL, nil
}

// Login orchestrates the user login process.
func (srv *userService) Login(ctx context.Context, input *usecase.LoginInput) (*usecase.LoginOutput, error) {
	email := strings.TrimSpace(input.Email)
	username := strings.ToLower(strings.TrimSpace(input.Username))

	// Both identifiers are required even though the lookup matches either;
	// this mirrors the platform's client contract. See DESIGN.md.
	if email == "" || username == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("login rejected")
	}

	srv.log(ctx).Debug("Starting user login", slog.String("username", username))

	user, err := srv.userRepo.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			srv.log(ctx).Warn("Login failed, user not found", slog.String("username", username))

			return nil, domainerrors.ErrUserNotFound.WrapMessage("login failed")
		}

		return nil, errors.Wrap(err, "failed to look up user for login")
	}

	if !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Warn("Login failed, bad credentials", slog.Any("userID", user.ID))

		return nil, domainerrors.ErrInvalidCredentials.WrapMessage("login failed")
	}

	accessToken, refreshToken, err := srv.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	// Persist the refresh token before returning it; a second login replaces
	// the previous session's token.
	if err := srv.userRepo.UpdateRefreshToken(ctx, user.ID, refreshToken); err != nil {
		srv.log(ctx).Error("Failed to persist refresh token", slog.Any("userID", user.ID), slog.Any("error", err))

		return nil, domainerrors.ErrTokenGenerationFailed.WrapMessage("failed to persist session")
	}

	loggedInUser, err := srv.userRepo.FindByID(ctx, user.ID)
	if err != nil {
		return nil, domainerrors.ErrInternalError.WrapMessage("failed to read back logged in user")
	}

	srv.log(ctx).Debug("User logged in successfully", slog.Any("userID", user.ID))

	return &usecase.LoginOutput{
		User:         usecase.NewUserView(loggedInUser),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// issueTokenPair mints both tokens. Failures inside token issuance are
// re-signaled uniformly as an internal error rather than leaking the cause.
func (srv *userService) issueTokenPair(ctx context.Context, user *entity.User) (string, string, error) {
	accessToken, err := srv.tokenSvc.GenerateAccessToken(user.ID, user.Username, user.Email)
	if err != nil {
		srv.log(ctx).Error("Access token generation failed", slog.Any("userID", user.ID), slog.Any("error", err))

		return "", "", domainerrors.ErrTokenGenerationFailed.WrapMessage("login failed")
	}

	refreshToken, err := srv.tokenSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		srv.log(ctx).Error("Refresh token generation failed", slog.Any("userID", user.ID), slog.Any("error", err))

		return "", "", domainerrors.ErrTokenGenerationFailed.WrapMessage("login failed")
	}

	return accessToken, refreshToken, nil
}

// Logout clears the stored refresh token for the authenticated user.
// Clearing an already empty token field is idempotent and succeeds.
func (srv *userService) Logout(ctx context.Context, userID uuid.UUID) error {
	srv.log(ctx).Info("Attempting to log out", slog.Any("userID", userID))

	if err := srv.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		srv.log(ctx).Error("Failed to clear refresh token", slog.Any("userID", userID), slog.Any("error", err))

		return domainerrors.ErrInternalError.WrapMessage("logout failed")
	}

	srv.log(ctx).Info("Successfully logged out", slog.Any("userID", userID))

	return nil
}
