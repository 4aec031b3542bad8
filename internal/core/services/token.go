package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

// TokenClaims is the claim set carried by every token the API issues.
// The purpose claim keeps a leaked verification or reset token from
// standing in for a session credential.
type TokenClaims struct {
	Email   string              `json:"email"`
	Purpose domain.TokenPurpose `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return id, nil
}

// TokenManager issues and validates the signed tokens used for
// sessions, session refresh, email verification and password reset.
type TokenManager struct {
	secret []byte
	ttls   map[domain.TokenPurpose]time.Duration
}

func NewTokenManager(secret string, accessTTL, refreshTTL, verifyTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttls: map[domain.TokenPurpose]time.Duration{
			domain.PurposeAccess:        accessTTL,
			domain.PurposeRefresh:       refreshTTL,
			domain.PurposeVerifyEmail:   verifyTTL,
			domain.PurposeResetPassword: resetTTL,
		},
	}
}

func (m *TokenManager) Issue(userID uuid.UUID, email string, purpose domain.TokenPurpose) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.ttls[purpose])

	// The jti keeps tokens issued within the same second distinct, so
	// every stored token hash maps to exactly one record.
	claims := TokenClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate checks signature, expiry and purpose, and returns the claims
// only when the token was issued for the expected purpose.
func (m *TokenManager) Validate(tokenString string, purpose domain.TokenPurpose) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrInvalidToken
	}
	if !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return nil, domain.ErrWrongPurpose
	}

	return claims, nil
}

// hashToken returns the hex SHA-256 of a token string. Only hashes of
// refresh, verification and reset tokens are ever stored.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
