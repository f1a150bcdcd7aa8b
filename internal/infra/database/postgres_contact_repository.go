// internal/infra/database/postgres_contact_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"

	"github.com/google/uuid"
)

// Custom errors specific to contact repository
var ErrContactNotFound = fmt.Errorf("contact not found")

type PostgresContactRepository struct {
	db *sql.DB
}

func NewPostgresContactRepository(db *sql.DB) *PostgresContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) Upsert(ctx context.Context, c *contact.Contact) error {
	query := `INSERT INTO contacts (id, full_name, first_name, last_name, email, birth_date, gender_code)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               ON CONFLICT (id) DO UPDATE SET
                   full_name = EXCLUDED.full_name,
                   first_name = EXCLUDED.first_name,
                   last_name = EXCLUDED.last_name,
                   email = EXCLUDED.email,
                   birth_date = EXCLUDED.birth_date,
                   gender_code = EXCLUDED.gender_code,
                   updated_at = NOW()
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.FullName, c.FirstName, c.LastName, c.Email, c.BirthDate, c.GenderCode,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting contact %s: %w", c.ID, err)
	}
	return nil
}

func (r *PostgresContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	query := `SELECT id, full_name, first_name, last_name, email, birth_date, gender_code, created_at, updated_at
               FROM contacts WHERE id = $1`
	c := contact.Contact{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.FullName, &c.FirstName, &c.LastName, &c.Email,
		&c.BirthDate, &c.GenderCode, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("error getting contact by ID: %w", err)
	}
	return &c, nil
}

func (r *PostgresContactRepository) UpdateGenderCode(ctx context.Context, id uuid.UUID, code contact.GenderCode) error {
	query := `UPDATE contacts SET gender_code = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, code, id)
	if err != nil {
		return fmt.Errorf("error updating gender code for contact %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading rows affected for contact %s: %w", id, err)
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}

func (r *PostgresContactRepository) ListWithBirthday(ctx context.Context, month time.Month, day int) ([]*contact.Contact, error) {
	query := `SELECT id, full_name, first_name, last_name, email, birth_date, gender_code, created_at, updated_at
               FROM contacts
               WHERE EXTRACT(MONTH FROM birth_date) = $1 AND EXTRACT(DAY FROM birth_date) = $2
               ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, int(month), day)
	if err != nil {
		return nil, fmt.Errorf("error listing contacts with birthday %02d-%02d: %w", int(month), day, err)
	}
	defer rows.Close()

	var contacts []*contact.Contact
	for rows.Next() {
		c := contact.Contact{}
		if err := rows.Scan(
			&c.ID, &c.FullName, &c.FirstName, &c.LastName, &c.Email,
			&c.BirthDate, &c.GenderCode, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning contact row: %w", err)
		}
		contacts = append(contacts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact rows: %w", err)
	}
	return contacts, nil
}
