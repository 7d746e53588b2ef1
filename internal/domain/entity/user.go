// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core identity record of the platform. A user owns exactly one
// credential (the bcrypt password hash) and at most one live session,
// represented by the RefreshToken field.
type User struct {
	ID            uuid.UUID // The unique identifier for this user.
	Username      string    // Login handle, globally unique, always stored lowercase.
	Email         string    // Contact email, globally unique.
	FullName      string    // Display name shown on the user's channel.
	PasswordHash  string    // bcrypt hash of the password. Never leaves the hasher boundary in plaintext.
	AvatarURL     string    // Durable URL of the profile avatar. Mandatory at registration.
	CoverImageURL string    // Durable URL of the channel cover image. Empty when none was uploaded.
	RefreshToken  string    // The currently valid refresh token, empty when logged out.
	CreatedAt     time.Time // Timestamp of when this account was created.
	UpdatedAt     time.Time // Timestamp of the last modification to this account.
}
