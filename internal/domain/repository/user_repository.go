// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"clipstream/internal/domain/entity"

	"github.com/google/uuid"
)

// Domain-specific errors for user persistence.
// This allows the application layer to handle specific outcomes without depending on database-specific errors.
var (
	// ErrUserNotFound is returned when a user record is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser is returned when a create violates the unique
	// constraint on username or email.
	ErrDuplicateUser = errors.New("username or email already taken")
)

// UserRepository defines the standard operations for user persistence.
// The application layer will depend on this interface, not the concrete implementation.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByUsernameOrEmail retrieves the first user whose username or email
	// matches. Username lookups expect the caller to pass the lowercase form.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)

	// Create persists a new user entity. The storage enforces uniqueness of
	// username and email atomically; a violation surfaces as ErrDuplicateUser.
	Create(ctx context.Context, user *entity.User) error

	// UpdateRefreshToken overwrites only the refresh token field of the given
	// user, bypassing full-record validation. An empty token clears the session.
	UpdateRefreshToken(ctx context.Context, id uuid.UUID, refreshToken string) error
}
