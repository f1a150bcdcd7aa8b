// internal/app/dispatcher.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/event"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/flow"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/templates"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Outcome is the dispatcher's verdict for one triggering event.
type Outcome string

const (
	OutcomeIgnored          Outcome = "IGNORED"
	OutcomeSkippedDuplicate Outcome = "SKIPPED_DUPLICATE"
	OutcomeSentImmediately  Outcome = "SENT_IMMEDIATELY"
	OutcomeScheduled        Outcome = "SCHEDULED"
)

// Mode selects the dispatch variant.
type Mode string

const (
	// ModeImmediate sends on the spot, and only reacts to record creation on
	// the birthday itself.
	ModeImmediate Mode = "immediate"
	// ModeScheduled defers delivery through the external automation flow and
	// reacts to both creation and updates.
	ModeScheduled Mode = "scheduled"
)

// SubjectImmediate is the subject (and guard tag) of immediately sent emails.
const SubjectImmediate = "Happy Birthday"

// Classifier is the name-lookup collaborator.
type Classifier interface {
	Classify(ctx context.Context, countryID int, fullName string) (contact.GenderCode, error)
}

// ScheduleTrigger is the external scheduling endpoint collaborator.
type ScheduleTrigger interface {
	Schedule(ctx context.Context, req flow.ScheduleRequest) error
}

// DispatcherConfig carries the static knobs of the dispatcher.
type DispatcherConfig struct {
	Mode            Mode
	GenderCountryID int
	SendHourUTC     int       // Hour of day for deferred fire times
	DefaultSenderID uuid.UUID // Used when the event carries no initiating user
}

// Dispatcher decides, per triggering event, whether to send immediately,
// schedule for later, or do nothing. All collaborators are injected so the
// decision logic is testable with fakes.
type Dispatcher struct {
	cfg        DispatcherConfig
	guard      *SentGuard
	composer   *Composer
	classifier Classifier
	contacts   contact.Repository
	history    email.Repository
	transport  email.Transport
	trigger    ScheduleTrigger
	log        *logrus.Logger

	now func() time.Time // Injectable clock for tests
}

func NewDispatcher(
	cfg DispatcherConfig,
	guard *SentGuard,
	composer *Composer,
	classifier Classifier,
	contacts contact.Repository,
	history email.Repository,
	transport email.Transport,
	trigger ScheduleTrigger,
	log *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		cfg:        cfg,
		guard:      guard,
		composer:   composer,
		classifier: classifier,
		contacts:   contacts,
		history:    history,
		transport:  transport,
		trigger:    trigger,
		log:        log,
		now:        time.Now,
	}
}

// subjectTag is the subject prefix this mode's send path writes, and
// therefore the tag the guard filters on.
func (d *Dispatcher) subjectTag() string {
	if d.cfg.Mode == ModeScheduled {
		return templates.KeyBirthdayCongratulation
	}
	return SubjectImmediate
}

func (d *Dispatcher) acceptsMessage(name string) bool {
	if name == event.MessageCreate {
		return true
	}
	return d.cfg.Mode == ModeScheduled && name == event.MessageUpdate
}

// Dispatch runs the decision pipeline for one event. Conditions are checked
// in order and each short-circuits the rest; the guard check deliberately
// precedes the date comparison so that repeated update events within one day
// cannot produce duplicate scheduling calls.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Envelope) (Outcome, error) {
	if !d.acceptsMessage(ev.MessageName) || ev.EntityName != event.EntityContact || ev.Target == nil {
		return OutcomeIgnored, nil
	}
	target := ev.Target
	if target.BirthDate == nil || target.Email == "" {
		return OutcomeIgnored, nil
	}

	// Nested automated invocations must not re-trigger the pipeline.
	if ev.Depth > 1 {
		d.log.WithField("contact_id", target.ID).Debug("Ignoring nested invocation")
		return OutcomeIgnored, nil
	}

	sent, err := d.guard.AlreadySent(ctx, target.Email, d.subjectTag())
	if err != nil {
		return "", fmt.Errorf("failed to check send history for contact %s: %w", target.ID, err)
	}
	if sent {
		d.log.WithField("contact_id", target.ID).Info("Congratulation already sent this year. Skipping.")
		return OutcomeSkippedDuplicate, nil
	}

	now := d.now()
	birthDate := *target.BirthDate
	isBirthdayToday := birthDate.Day() == now.Day() && birthDate.Month() == now.Month()

	if d.cfg.Mode == ModeImmediate {
		if !isBirthdayToday {
			return OutcomeIgnored, nil
		}
		return d.sendNow(ctx, ev)
	}
	return d.scheduleDelivery(ctx, ev, isBirthdayToday, now)
}

// sendNow is the immediate path: classify (when unknown), compose, record,
// send. Any failure aborts the dispatch with nothing partial committed.
func (d *Dispatcher) sendNow(ctx context.Context, ev event.Envelope) (Outcome, error) {
	target := ev.Target

	code := contact.GenderCode(target.GenderCode)
	if code == contact.GenderUnknown && target.FullName != "" {
		classified, err := d.classifier.Classify(ctx, d.cfg.GenderCountryID, target.FullName)
		if err != nil {
			return "", fmt.Errorf("failed to classify contact %s: %w", target.ID, err)
		}
		if err := d.contacts.UpdateGenderCode(ctx, target.ID, classified); err != nil {
			return "", fmt.Errorf("failed to persist gender code for contact %s: %w", target.ID, err)
		}
		code = classified
		d.log.WithFields(logrus.Fields{"contact_id": target.ID, "gender_code": code}).Info("Gender code resolved and persisted.")
	}

	body, err := d.composer.Compose(templates.KeyBirthdayCongratulation, ComposeFields{
		FirstName:  target.FirstName,
		LastName:   target.LastName,
		GenderCode: code,
		BirthDate:  *target.BirthDate,
	})
	if err != nil {
		return "", fmt.Errorf("failed to compose congratulation for contact %s: %w", target.ID, err)
	}

	rec := &email.Record{
		SenderID:   d.senderFor(ev),
		ReceiverID: target.ID,
		Recipients: target.Email,
		Subject:    d.subjectTag(),
		Body:       body,
	}
	// The record is written only after a successful send. A transport failure
	// must not leave history behind that trips the duplicate guard on retry.
	if err := d.transport.Send(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to send congratulation to contact %s: %w", target.ID, err)
	}
	if err := d.history.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to create email record for contact %s: %w", target.ID, err)
	}

	d.log.WithFields(logrus.Fields{"contact_id": target.ID, "email_record_id": rec.ID}).Info("Congratulation sent immediately.")
	return OutcomeSentImmediately, nil
}

// scheduleDelivery is the deferred path: no composition or send happens now.
// The external flow re-invokes delivery at the fire time.
func (d *Dispatcher) scheduleDelivery(ctx context.Context, ev event.Envelope, isBirthdayToday bool, now time.Time) (Outcome, error) {
	target := ev.Target

	var fireAt time.Time
	outcome := OutcomeScheduled
	if isBirthdayToday {
		// Near-immediate: fire a couple of minutes out so the flow run is
		// observable and cancellable.
		fireAt = now.UTC().Add(2 * time.Minute).Truncate(time.Minute)
		outcome = OutcomeSentImmediately
	} else {
		birthDate := *target.BirthDate
		// time.Date normalizes Feb 29 to Mar 1 in non-leap years, which is
		// the intended fire date for leap-day birthdays.
		fireAt = time.Date(now.Year(), birthDate.Month(), birthDate.Day(), d.cfg.SendHourUTC, 0, 0, 0, time.UTC)
	}

	req := flow.ScheduleRequest{
		FireAt:     fireAt,
		Title:      d.subjectTag(),
		ReceiverID: target.ID,
		SenderID:   d.senderFor(ev),
	}
	if err := d.trigger.Schedule(ctx, req); err != nil {
		return "", fmt.Errorf("failed to schedule congratulation for contact %s: %w", target.ID, err)
	}

	d.log.WithFields(logrus.Fields{
		"contact_id": target.ID,
		"fire_at":    fireAt.Format(time.RFC3339),
	}).Info("Congratulation delivery scheduled.")
	return outcome, nil
}

func (d *Dispatcher) senderFor(ev event.Envelope) uuid.UUID {
	if ev.InitiatingUserID != uuid.Nil {
		return ev.InitiatingUserID
	}
	return d.cfg.DefaultSenderID
}
