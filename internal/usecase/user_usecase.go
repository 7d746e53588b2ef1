// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"clipstream/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new user.
// AvatarPath is the local path of the uploaded avatar file; CoverImagePath is
// empty when the client sent no cover image.
type RegisterInput struct {
	FullName       string
	Email          string
	Username       string
	Password       string
	AvatarPath     string
	CoverImagePath string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Username string
	Password string
}

// --- Output DTOs ---

// UserView is the sanitized projection of a user record. It never carries
// the password hash or the refresh token.
type UserView struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewUserView projects a user entity into its sanitized view.
func NewUserView(user *entity.User) *UserView {
	if user == nil {
		return nil
	}

	return &UserView{
		ID:            user.ID,
		Username:      user.Username,
		Email:         user.Email,
		FullName:      user.FullName,
		AvatarURL:     user.AvatarURL,
		CoverImageURL: user.CoverImageURL,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}
}

// RegisterOutput returns the newly created user's sanitized view.
type RegisterOutput struct {
	User *UserView `json:"user"`
}

// LoginOutput returns the fresh token pair and the sanitized user view.
type LoginOutput struct {
	User         *UserView `json:"user"`
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
}

// UserUsecase defines the interface for the credential-and-session lifecycle.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	// Register validates input, enforces uniqueness, uploads the avatar (and
	// optional cover image) and creates the user record.
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)

	// Login verifies credentials, issues a fresh token pair and persists the
	// refresh token, replacing any previous session.
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)

	// Logout clears the stored refresh token of the authenticated user.
	// Clearing an already empty token succeeds.
	Logout(ctx context.Context, userID uuid.UUID) error
}
