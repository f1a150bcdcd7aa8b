// internal/infra/database/postgres_email_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
)

type PostgresEmailRepository struct {
	db *sql.DB
}

func NewPostgresEmailRepository(db *sql.DB) *PostgresEmailRepository {
	return &PostgresEmailRepository{db: db}
}

func (r *PostgresEmailRepository) Create(ctx context.Context, rec *email.Record) error {
	query := `INSERT INTO email_records (sender_id, receiver_id, recipients, subject, body)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query,
		rec.SenderID, rec.ReceiverID, rec.Recipients, rec.Subject, rec.Body,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating email record: %w", err)
	}
	return nil
}

// CountSentThisYear counts records created in the current UTC calendar year.
// The recipient is matched as a substring of the serialized recipient list,
// which can false-positive on overlapping addresses; this mirrors the
// upstream store's matching semantics.
func (r *PostgresEmailRepository) CountSentThisYear(ctx context.Context, recipientEmail, subjectPrefix string) (int, error) {
	query := `SELECT COUNT(*) FROM email_records
               WHERE EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC') = EXTRACT(YEAR FROM NOW() AT TIME ZONE 'UTC')
               AND recipients LIKE '%' || $1 || '%'
               AND subject LIKE $2 || '%'`
	var count int
	err := r.db.QueryRowContext(ctx, query, recipientEmail, subjectPrefix).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting email records sent this year: %w", err)
	}
	return count, nil
}
