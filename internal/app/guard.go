// internal/app/guard.go
package app

import (
	"context"
	"fmt"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
)

// SentGuard answers whether a tagged notification already went out to a
// recipient within the current calendar year. It is a point-in-time check
// against the history store, not a transactional guarantee: two events
// processed concurrently can both pass it. That race is accepted.
type SentGuard struct {
	history email.Repository
}

func NewSentGuard(history email.Repository) *SentGuard {
	return &SentGuard{history: history}
}

// AlreadySent is true iff at least one matching record exists this year.
func (g *SentGuard) AlreadySent(ctx context.Context, recipientEmail, subjectPrefix string) (bool, error) {
	count, err := g.history.CountSentThisYear(ctx, recipientEmail, subjectPrefix)
	if err != nil {
		return false, fmt.Errorf("failed to query email history: %w", err)
	}
	return count > 0, nil
}
