package contact

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// GenderCode is the classification written back by the name-lookup service.
type GenderCode int

const (
	GenderUnknown GenderCode = 0
	GenderMale    GenderCode = 1
	GenderFemale  GenderCode = 2
)

// Contact is the local mirror of a CRM contact record.
// The CRM owns the record; we keep the snapshot fields the congratulation
// pipeline needs (names, email, birth date, gender code).
type Contact struct {
	ID         uuid.UUID
	FullName   string
	FirstName  string
	LastName   sql.NullString // Optional in the CRM
	Email      string
	BirthDate  time.Time // Only month/day are significant for matching
	GenderCode GenderCode
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
