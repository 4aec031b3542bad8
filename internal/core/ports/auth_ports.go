package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

type AuthRepository interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	// RotateRefreshToken revokes the old record and stores the next one
	// atomically, so a crash cannot leave both usable.
	RotateRefreshToken(ctx context.Context, oldID uuid.UUID, next *domain.RefreshToken) error
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) error
	RevokeUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccessToken(tokenString string) (uuid.UUID, error)
}
