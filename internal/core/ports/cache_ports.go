package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

// UserCache fronts hot "current user" lookups. A miss is (nil, nil).
// The cache is a best-effort accelerator, never a source of truth:
// callers fall through to the repository on any miss or error.
type UserCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ContactListCache caches pages of the contact list per user. Every
// contact write invalidates all cached pages for that user.
type ContactListCache interface {
	Get(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, bool, error)
	Set(ctx context.Context, userID uuid.UUID, limit, offset int, contacts []domain.Contact) error
	InvalidateUser(ctx context.Context, userID uuid.UUID) error
}
