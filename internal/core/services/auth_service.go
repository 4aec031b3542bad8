package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

type AuthService struct {
	userRepo  ports.UserRepository
	authRepo  ports.AuthRepository
	userCache ports.UserCache
	tokens    *TokenManager
	logger    *slog.Logger
}

func NewAuthService(userRepo ports.UserRepository, authRepo ports.AuthRepository, userCache ports.UserCache, tokens *TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		authRepo:  authRepo,
		userCache: userCache,
		tokens:    tokens,
		logger:    logger,
	}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !checkPassword(user.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, domain.ErrEmailNotVerified
	}

	pair, rtEntity, err := s.sessionTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.authRepo.StoreRefreshToken(ctx, rtEntity); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.userCache.Set(ctx, user); err != nil {
		s.logger.Warn("failed to cache user on login", "user_id", user.ID, "error", err)
	}

	return pair, nil
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if _, err := s.tokens.Validate(refreshToken, domain.PurposeRefresh); err != nil {
		return nil, err
	}

	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return nil, domain.ErrInvalidToken
	}
	if rtEntity.Revoked {
		return nil, domain.ErrTokenRevoked
	}
	if rtEntity.ExpiresAt.Before(time.Now()) {
		return nil, domain.ErrTokenExpired
	}

	user, err := s.userRepo.GetByID(ctx, rtEntity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidToken
	}

	pair, next, err := s.sessionTokens(user)
	if err != nil {
		return nil, err
	}

	// Refresh tokens are single-use: the old record is revoked in the
	// same transaction that stores the new one.
	if err := s.authRepo.RotateRefreshToken(ctx, rtEntity.ID, next); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	if err := s.userCache.Delete(ctx, user.ID); err != nil {
		s.logger.Warn("failed to invalidate user cache on rotation", "user_id", user.ID, "error", err)
	}

	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	rtEntity, err := s.authRepo.GetRefreshTokenByHash(ctx, hashToken(refreshToken))
	if err != nil {
		return fmt.Errorf("failed to get refresh token: %w", err)
	}
	if rtEntity == nil {
		return nil
	}

	if err := s.authRepo.RevokeRefreshToken(ctx, rtEntity.ID); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	if err := s.userCache.Delete(ctx, rtEntity.UserID); err != nil {
		s.logger.Warn("failed to invalidate user cache on logout", "user_id", rtEntity.UserID, "error", err)
	}

	return nil
}

// VerifyAccessToken resolves a bearer token to the user it was issued
// for. Only tokens with the access purpose are accepted.
func (s *AuthService) VerifyAccessToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.tokens.Validate(tokenString, domain.PurposeAccess)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.UserID()
}

func (s *AuthService) sessionTokens(user *domain.User) (*domain.TokenPair, *domain.RefreshToken, error) {
	accessToken, _, err := s.tokens.Issue(user.ID, user.Email, domain.PurposeAccess)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, expiresAt, err := s.tokens.Issue(user.ID, user.Email, domain.PurposeRefresh)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rtEntity := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refreshToken),
		ExpiresAt: expiresAt,
		Revoked:   false,
	}
	pair := &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}

	return pair, rtEntity, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
