package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Verified     bool      `json:"verified"`
	AvatarURL    string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`

	// Hashes of the most recently issued verification and reset tokens.
	// Empty means no outstanding token. Cleared on redemption so a token
	// can only be used once.
	VerificationTokenHash string `json:"-"`
	ResetTokenHash        string `json:"-"`
}
