package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/TStakhniuk/contacts-api/internal/core/domain"
	"github.com/TStakhniuk/contacts-api/internal/core/ports"
)

type ContactRepository struct {
	db *sql.DB
}

func NewContactRepository(db *sql.DB) ports.ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	query := `
		INSERT INTO contacts (user_id, first_name, last_name, email, phone_number, birthday, additional_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		contact.UserID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Birthday,
		contact.AdditionalInfo,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
}

func (r *ContactRepository) GetByID(ctx context.Context, userID, contactID uuid.UUID) (*domain.Contact, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone_number, birthday, additional_info, created_at, updated_at
		FROM contacts
		WHERE id = $1 AND user_id = $2
	`
	contact := &domain.Contact{}
	err := r.db.QueryRowContext(ctx, query, contactID, userID).Scan(
		&contact.ID,
		&contact.UserID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.PhoneNumber,
		&contact.Birthday,
		&contact.AdditionalInfo,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return contact, nil
}

func (r *ContactRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Contact, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone_number, birthday, additional_info, created_at, updated_at
		FROM contacts
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	query := `
		UPDATE contacts
		SET first_name = $1, last_name = $2, email = $3, phone_number = $4, birthday = $5, additional_info = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.PhoneNumber,
		contact.Birthday,
		contact.AdditionalInfo,
		contact.ID,
		contact.UserID,
	).Scan(&contact.UpdatedAt)
}

func (r *ContactRepository) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	query := `DELETE FROM contacts WHERE id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, contactID, userID)
	return err
}

func (r *ContactRepository) Search(ctx context.Context, userID uuid.UUID, q string, limit, offset int) ([]domain.Contact, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone_number, birthday, additional_info, created_at, updated_at
		FROM contacts
		WHERE user_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2)
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.QueryContext(ctx, query, userID, "%"+q+"%", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to search contacts: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

// FindByBirthdayCodes matches contacts whose birthday falls on one of
// the month*100+day codes, ignoring the birth year.
func (r *ContactRepository) FindByBirthdayCodes(ctx context.Context, userID uuid.UUID, codes []int64) ([]domain.Contact, error) {
	query := `
		SELECT id, user_id, first_name, last_name, email, phone_number, birthday, additional_info, created_at, updated_at
		FROM contacts
		WHERE user_id = $1
		  AND (EXTRACT(MONTH FROM birthday)::int * 100 + EXTRACT(DAY FROM birthday)::int) = ANY($2)
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, pq.Array(codes))
	if err != nil {
		return nil, fmt.Errorf("failed to find contacts by birthday: %w", err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func scanContacts(rows *sql.Rows) ([]domain.Contact, error) {
	var contacts []domain.Contact
	for rows.Next() {
		var contact domain.Contact
		err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.PhoneNumber,
			&contact.Birthday,
			&contact.AdditionalInfo,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}
