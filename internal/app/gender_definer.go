// internal/app/gender_definer.go
package app

import (
	"context"
	"fmt"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/event"

	"github.com/sirupsen/logrus"
)

// GenderDefiner resolves a contact's gender code from their full name on
// create/update events and persists the result. It runs before the
// dispatcher in the webhook pipeline, so deferred deliveries can read the
// stored code instead of recomputing it.
type GenderDefiner struct {
	classifier Classifier
	contacts   contact.Repository
	countryID  int
	log        *logrus.Logger
}

func NewGenderDefiner(classifier Classifier, contacts contact.Repository, countryID int, log *logrus.Logger) *GenderDefiner {
	return &GenderDefiner{
		classifier: classifier,
		contacts:   contacts,
		countryID:  countryID,
		log:        log,
	}
}

// Handle classifies and persists the gender code for the event's contact.
// Returns true when a code was written; false when the event was not
// applicable (wrong message, wrong entity, no name, nested invocation).
func (g *GenderDefiner) Handle(ctx context.Context, ev event.Envelope) (bool, error) {
	// Nested automated invocations must not re-trigger classification.
	if ev.Depth > 1 {
		return false, nil
	}
	if ev.MessageName != event.MessageCreate && ev.MessageName != event.MessageUpdate {
		return false, nil
	}
	if ev.EntityName != event.EntityContact || ev.Target == nil || ev.Target.FullName == "" {
		return false, nil
	}

	g.log.WithField("contact_id", ev.Target.ID).Debug("Started gender definer activity.")
	code, err := g.classifier.Classify(ctx, g.countryID, ev.Target.FullName)
	if err != nil {
		return false, fmt.Errorf("failed to classify contact %s: %w", ev.Target.ID, err)
	}

	if err := g.contacts.UpdateGenderCode(ctx, ev.Target.ID, code); err != nil {
		return false, fmt.Errorf("failed to persist gender code for contact %s: %w", ev.Target.ID, err)
	}
	ev.Target.GenderCode = int(code)

	g.log.WithFields(logrus.Fields{"contact_id": ev.Target.ID, "gender_code": code}).Info("Gender code updated.")
	return true, nil
}
