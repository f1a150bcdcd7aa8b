package contact

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the operations for persisting and retrieving the
// contact mirror.
type Repository interface {
	// Upsert inserts the snapshot or refreshes an existing one by ID.
	Upsert(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Contact, error)
	UpdateGenderCode(ctx context.Context, id uuid.UUID, code GenderCode) error
	// ListWithBirthday returns contacts whose birth date falls on the given
	// month and day, regardless of year.
	ListWithBirthday(ctx context.Context, month time.Month, day int) ([]*Contact, error)
}
