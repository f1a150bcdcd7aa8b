package scheduler

import (
	"context"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/app"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/event"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// BirthdaySweeper runs a daily cron job that pushes every mirrored contact
// whose birthday is today through the dispatcher. It covers contacts whose
// CRM records were not touched on their birthday and therefore produced no
// change event.
type BirthdaySweeper struct {
	cronEngine *cron.Cron
	dispatcher *app.Dispatcher
	contacts   contact.Repository
	logger     *logrus.Logger
	cronSpec   string
}

func NewBirthdaySweeper(
	dispatcher *app.Dispatcher,
	contacts contact.Repository,
	logger *logrus.Logger,
	cronSpec string, // e.g., "0 9 * * *" (9:00 AM daily)
) *BirthdaySweeper {
	return &BirthdaySweeper{
		cronEngine: cron.New(cron.WithLocation(time.Local)), // Use server's local time for cron
		dispatcher: dispatcher,
		contacts:   contacts,
		logger:     logger,
		cronSpec:   cronSpec,
	}
}

func (s *BirthdaySweeper) Start() {
	s.logger.Info("Starting birthday sweep scheduler...")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily birthday sweep.")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.Sweep(ctx)
	})
	if err != nil {
		s.logger.Fatalf("Could not add birthday sweep cron job: %v", err)
	}

	s.cronEngine.Start()
	s.logger.Info("Birthday sweep scheduler started.")
}

// Sweep dispatches a synthetic update event for every contact whose
// birthday is today. Per-contact failures are logged and do not stop the
// sweep.
func (s *BirthdaySweeper) Sweep(ctx context.Context) {
	now := time.Now()
	candidates, err := s.contacts.ListWithBirthday(ctx, now.Month(), now.Day())
	if err != nil {
		s.logger.WithError(err).Error("Failed to list contacts for birthday sweep.")
		return
	}
	if len(candidates) == 0 {
		s.logger.Debug("No contacts with a birthday today.")
		return
	}
	s.logger.WithField("count", len(candidates)).Info("Sweeping contacts with a birthday today.")

	for _, c := range candidates {
		env := syntheticEnvelope(c)
		outcome, err := s.dispatcher.Dispatch(ctx, env)
		if err != nil {
			s.logger.WithError(err).WithField("contact_id", c.ID).Error("Birthday sweep dispatch failed.")
			continue
		}
		s.logger.WithFields(logrus.Fields{"contact_id": c.ID, "outcome": outcome}).Info("Birthday sweep dispatch finished.")
	}
}

func syntheticEnvelope(c *contact.Contact) event.Envelope {
	birthDate := c.BirthDate
	lastName := ""
	if c.LastName.Valid {
		lastName = c.LastName.String
	}
	return event.Envelope{
		MessageName: event.MessageUpdate,
		EntityName:  event.EntityContact,
		Depth:       1,
		Target: &event.ContactTarget{
			ID:         c.ID,
			FullName:   c.FullName,
			FirstName:  c.FirstName,
			LastName:   lastName,
			Email:      c.Email,
			BirthDate:  &birthDate,
			GenderCode: int(c.GenderCode),
		},
	}
}

func (s *BirthdaySweeper) Stop() {
	s.logger.Info("Stopping birthday sweep scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Birthday sweep scheduler gracefully stopped.")
}
