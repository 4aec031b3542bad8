package ports

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	MarkVerified(ctx context.Context, id uuid.UUID) error
	SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) error
}

type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateAvatar(ctx context.Context, userID uuid.UUID, filename, contentType string, file io.Reader, size int64) (*domain.User, error)
}
