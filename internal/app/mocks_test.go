package app

import (
	"context"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/flow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// --- Mocks ---

type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) Upsert(ctx context.Context, c *contact.Contact) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockContactRepo) GetByID(ctx context.Context, id uuid.UUID) (*contact.Contact, error) {
	args := m.Called(ctx, id)
	if c, ok := args.Get(0).(*contact.Contact); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContactRepo) UpdateGenderCode(ctx context.Context, id uuid.UUID, code contact.GenderCode) error {
	args := m.Called(ctx, id, code)
	return args.Error(0)
}

func (m *mockContactRepo) ListWithBirthday(ctx context.Context, month time.Month, day int) ([]*contact.Contact, error) {
	args := m.Called(ctx, month, day)
	if list, ok := args.Get(0).([]*contact.Contact); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) Create(ctx context.Context, rec *email.Record) error {
	args := m.Called(ctx, rec)
	if args.Error(0) == nil {
		rec.ID = 1
		rec.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockHistory) CountSentThisYear(ctx context.Context, recipientEmail, subjectPrefix string) (int, error) {
	args := m.Called(ctx, recipientEmail, subjectPrefix)
	return args.Int(0), args.Error(1)
}

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Send(ctx context.Context, rec *email.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type mockTrigger struct {
	mock.Mock
}

func (m *mockTrigger) Schedule(ctx context.Context, req flow.ScheduleRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, countryID int, fullName string) (contact.GenderCode, error) {
	args := m.Called(ctx, countryID, fullName)
	return args.Get(0).(contact.GenderCode), args.Error(1)
}
