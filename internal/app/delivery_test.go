package app

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/templates"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type deliveryFixture struct {
	service   *DeliveryService
	contacts  *mockContactRepo
	history   *mockHistory
	transport *mockTransport
}

func newDeliveryFixture(t *testing.T) *deliveryFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &deliveryFixture{
		contacts:  new(mockContactRepo),
		history:   new(mockHistory),
		transport: new(mockTransport),
	}
	f.service = NewDeliveryService(f.contacts, NewSentGuard(f.history), NewComposer(templates.Defaults()), f.history, f.transport, log)
	return f
}

var (
	receiverID = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	senderID   = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func storedContact() *contact.Contact {
	return &contact.Contact{
		ID:         receiverID,
		FullName:   "Anna Muster",
		FirstName:  "Anna",
		LastName:   sql.NullString{String: "Muster", Valid: true},
		Email:      "anna.muster@example.com",
		BirthDate:  time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC),
		GenderCode: contact.GenderFemale,
	}
}

func TestDeliveryService_Deliver_UsesStoredGenderCode(t *testing.T) {
	f := newDeliveryFixture(t)

	f.contacts.On("GetByID", mock.Anything, receiverID).Return(storedContact(), nil)
	f.history.On("CountSentThisYear", mock.Anything, "anna.muster@example.com", templates.KeyBirthdayCongratulation).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.transport.On("Send", mock.Anything, mock.MatchedBy(func(rec *email.Record) bool {
		return rec.Subject == templates.KeyBirthdayCongratulation &&
			strings.Contains(rec.Body, "Sehr geehrte Frau Anna Muster")
	})).Return(nil)

	err := f.service.Deliver(context.Background(), receiverID, senderID, templates.KeyBirthdayCongratulation)
	require.NoError(t, err)
	f.transport.AssertExpectations(t)
}

func TestDeliveryService_Deliver_SkipsWhenAlreadySentThisYear(t *testing.T) {
	f := newDeliveryFixture(t)

	f.contacts.On("GetByID", mock.Anything, receiverID).Return(storedContact(), nil)
	f.history.On("CountSentThisYear", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	err := f.service.Deliver(context.Background(), receiverID, senderID, templates.KeyBirthdayCongratulation)
	require.NoError(t, err)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	f.history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeliveryService_Deliver_FailedSendDoesNotBlockRetry(t *testing.T) {
	f := newDeliveryFixture(t)

	sendErr := errors.New("smtp: connection refused")
	f.contacts.On("GetByID", mock.Anything, receiverID).Return(storedContact(), nil)
	f.history.On("CountSentThisYear", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)
	f.history.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.transport.On("Send", mock.Anything, mock.Anything).Return(sendErr).Once()
	f.transport.On("Send", mock.Anything, mock.Anything).Return(nil)

	err := f.service.Deliver(context.Background(), receiverID, senderID, templates.KeyBirthdayCongratulation)
	require.ErrorIs(t, err, sendErr)
	// The failed send must leave no history record behind, or the guard
	// would skip every retry as a duplicate.
	f.history.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	err = f.service.Deliver(context.Background(), receiverID, senderID, templates.KeyBirthdayCongratulation)
	require.NoError(t, err)
	f.history.AssertCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDeliveryService_Deliver_MissingArguments(t *testing.T) {
	f := newDeliveryFixture(t)

	err := f.service.Deliver(context.Background(), uuid.Nil, senderID, templates.KeyBirthdayCongratulation)
	assert.ErrorIs(t, err, ErrMissingArgument)

	err = f.service.Deliver(context.Background(), receiverID, uuid.Nil, templates.KeyBirthdayCongratulation)
	assert.ErrorIs(t, err, ErrMissingArgument)

	err = f.service.Deliver(context.Background(), receiverID, senderID, "")
	assert.ErrorIs(t, err, ErrMissingArgument)
}

func TestDeliveryService_Deliver_TemplateNotFound(t *testing.T) {
	f := newDeliveryFixture(t)

	f.contacts.On("GetByID", mock.Anything, receiverID).Return(storedContact(), nil)
	f.history.On("CountSentThisYear", mock.Anything, mock.Anything, mock.Anything).Return(0, nil)

	err := f.service.Deliver(context.Background(), receiverID, senderID, "No Such Template")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	f.transport.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
