package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *domain.Contact) error
	GetByID(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error)
	Update(ctx context.Context, contact *domain.Contact) error
	Delete(ctx context.Context, userID, contactID uuid.UUID) error
	Search(ctx context.Context, userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error)
	// FindByBirthdayCodes returns contacts whose birthday matches one of
	// the given month*100+day codes, regardless of birth year.
	FindByBirthdayCodes(ctx context.Context, userID uuid.UUID, codes []int64) ([]domain.Contact, error)
}

type ContactService interface {
	Create(ctx context.Context, userID uuid.UUID, contact *domain.Contact) (*domain.Contact, error)
	Get(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error)
	Update(ctx context.Context, userID, contactID uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error)
	Delete(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error)
	Search(ctx context.Context, userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]domain.Contact, error)
}
