// internal/domain/email/record.go
package email

import (
	"time"

	"github.com/google/uuid"
)

// Record represents a sent (or about-to-be-sent) congratulation email.
// Corresponds to the 'email_records' table. Immutable once created; the
// history of these records is what keeps the once-per-year invariant.
type Record struct {
	ID         int64
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	// Recipients is the serialized address list, matched by substring when
	// checking for prior sends.
	Recipients string
	Subject    string
	Body       string
	CreatedAt  time.Time
}
