package domain

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose restricts what a signed token may be redeemed for. A token
// is only valid for the purpose it was issued with.
type TokenPurpose string

const (
	PurposeAccess        TokenPurpose = "access"
	PurposeRefresh       TokenPurpose = "refresh"
	PurposeVerifyEmail   TokenPurpose = "verify-email"
	PurposeResetPassword TokenPurpose = "reset-password"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// RefreshToken is the server-side record of an issued refresh token.
// Only a hash of the token string is stored. Signature validation alone
// is not enough for refresh tokens: logout and rotation revoke the
// record before the signed token expires.
type RefreshToken struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
	CreatedAt time.Time `json:"created_at"`
}
