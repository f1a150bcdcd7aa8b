// internal/app/delivery.go
package app

import (
	"context"
	"fmt"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrMissingArgument means a required delivery argument was absent.
var ErrMissingArgument = fmt.Errorf("required delivery argument missing")

// DeliveryService performs the deferred delivery when the external flow
// fires: it reads the stored contact, composes the message from the gender
// code persisted at event time (nothing is reclassified here), sends it, and
// records it.
type DeliveryService struct {
	contacts  contact.Repository
	guard     *SentGuard
	composer  *Composer
	history   email.Repository
	transport email.Transport
	log       *logrus.Logger
}

func NewDeliveryService(
	contacts contact.Repository,
	guard *SentGuard,
	composer *Composer,
	history email.Repository,
	transport email.Transport,
	log *logrus.Logger,
) *DeliveryService {
	return &DeliveryService{
		contacts:  contacts,
		guard:     guard,
		composer:  composer,
		history:   history,
		transport: transport,
		log:       log,
	}
}

// Deliver sends the templated email to the receiver on behalf of the sender.
// The guard is re-checked at fire time: a request double-scheduled by
// concurrent events must still result in a single email for the year.
func (s *DeliveryService) Deliver(ctx context.Context, receiverID, senderID uuid.UUID, templateName string) error {
	if receiverID == uuid.Nil {
		return fmt.Errorf("%w: receiver id", ErrMissingArgument)
	}
	if senderID == uuid.Nil {
		return fmt.Errorf("%w: sender id", ErrMissingArgument)
	}
	if templateName == "" {
		return fmt.Errorf("%w: template name", ErrMissingArgument)
	}

	s.log.WithField("receiver_id", receiverID).Debug("Started scheduled email send activity.")

	receiver, err := s.contacts.GetByID(ctx, receiverID)
	if err != nil {
		return fmt.Errorf("failed to load contact %s: %w", receiverID, err)
	}

	sent, err := s.guard.AlreadySent(ctx, receiver.Email, templateName)
	if err != nil {
		return fmt.Errorf("failed to check send history for contact %s: %w", receiverID, err)
	}
	if sent {
		s.log.WithField("receiver_id", receiverID).Info("Congratulation already sent this year. Skipping delivery.")
		return nil
	}

	lastName := ""
	if receiver.LastName.Valid {
		lastName = receiver.LastName.String
	}
	body, err := s.composer.Compose(templateName, ComposeFields{
		FirstName:  receiver.FirstName,
		LastName:   lastName,
		GenderCode: receiver.GenderCode,
		BirthDate:  receiver.BirthDate,
	})
	if err != nil {
		return fmt.Errorf("failed to compose congratulation for contact %s: %w", receiverID, err)
	}

	rec := &email.Record{
		SenderID:   senderID,
		ReceiverID: receiver.ID,
		Recipients: receiver.Email,
		Subject:    templateName,
		Body:       body,
	}
	// The record is written only after a successful send. A transport failure
	// must not leave history behind that trips the duplicate guard on retry.
	if err := s.transport.Send(ctx, rec); err != nil {
		return fmt.Errorf("failed to send congratulation to contact %s: %w", receiverID, err)
	}
	if err := s.history.Create(ctx, rec); err != nil {
		return fmt.Errorf("failed to create email record for contact %s: %w", receiverID, err)
	}

	s.log.WithFields(logrus.Fields{"receiver_id": receiverID, "email_record_id": rec.ID}).Info("Scheduled congratulation delivered.")
	return nil
}
