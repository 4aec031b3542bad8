package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

type ContactService struct {
	repo      ports.ContactRepository
	listCache ports.ContactListCache
	logger    *slog.Logger
	now       func() time.Time
}

func NewContactService(repo ports.ContactRepository, listCache ports.ContactListCache, logger *slog.Logger) *ContactService {
	return &ContactService{
		repo:      repo,
		listCache: listCache,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *ContactService) Create(ctx context.Context, userID uuid.UUID, contact *domain.Contact) (*domain.Contact, error) {
	contact.UserID = userID
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	if err := s.invalidateList(ctx, userID); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *ContactService) Get(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	contact, err := s.repo.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error) {
	cached, ok, err := s.listCache.Get(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Warn("contact list cache read failed", "user_id", userID, "error", err)
	}
	if ok {
		return cached, nil
	}

	contacts, err := s.repo.List(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	if err := s.listCache.Set(ctx, userID, limit, offset, contacts); err != nil {
		s.logger.Warn("failed to cache contact list", "user_id", userID, "error", err)
	}

	return contacts, nil
}

// Update applies a partial update: only fields present in the patch
// change. A contact owned by someone else reads as not found.
func (s *ContactService) Update(ctx context.Context, userID, contactID uuid.UUID, patch domain.ContactPatch) (*domain.Contact, error) {
	contact, err := s.repo.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}

	if patch.FirstName != nil {
		contact.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		contact.LastName = *patch.LastName
	}
	if patch.Email != nil {
		contact.Email = *patch.Email
	}
	if patch.PhoneNumber != nil {
		contact.PhoneNumber = *patch.PhoneNumber
	}
	if patch.Birthday != nil {
		contact.Birthday = *patch.Birthday
	}
	if patch.AdditionalInfo != nil {
		contact.AdditionalInfo = *patch.AdditionalInfo
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	if err := s.invalidateList(ctx, userID); err != nil {
		return nil, err
	}

	return contact, nil
}

// Delete removes the contact and returns it. Deleting an absent or
// foreign contact fails with not found, including repeated deletes.
func (s *ContactService) Delete(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	contact, err := s.repo.GetByID(ctx, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, domain.ErrContactNotFound
	}

	if err := s.repo.Delete(ctx, userID, contactID); err != nil {
		return nil, fmt.Errorf("failed to delete contact: %w", err)
	}

	if err := s.invalidateList(ctx, userID); err != nil {
		return nil, err
	}

	return contact, nil
}

func (s *ContactService) Search(ctx context.Context, userID uuid.UUID, query string, limit, offset int) ([]domain.Contact, error) {
	contacts, err := s.repo.Search(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID uuid.UUID) ([]domain.Contact, error) {
	codes := upcomingBirthdayCodes(s.now())
	contacts, err := s.repo.FindByBirthdayCodes(ctx, userID, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to find upcoming birthdays: %w", err)
	}
	return contacts, nil
}

// invalidateList drops all cached pages for the user. A write must not
// leave stale pages behind, so failures here surface as errors rather
// than warnings.
func (s *ContactService) invalidateList(ctx context.Context, userID uuid.UUID) error {
	if err := s.listCache.InvalidateUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to invalidate contact list cache: %w", err)
	}
	return nil
}
