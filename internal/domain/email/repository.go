// internal/domain/email/repository.go
package email

import "context"

// Repository defines operations on the email history store.
type Repository interface {
	// Create inserts a new record and fills in ID and CreatedAt.
	Create(ctx context.Context, rec *Record) error
	// CountSentThisYear counts records created within the current UTC
	// calendar year whose recipient list contains recipientEmail and whose
	// subject starts with subjectPrefix.
	CountSentThisYear(ctx context.Context, recipientEmail, subjectPrefix string) (int, error)
}

// Transport delivers a composed email record to the outside world.
type Transport interface {
	Send(ctx context.Context, rec *Record) error
}
