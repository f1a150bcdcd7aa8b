package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/app"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/email"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/alert"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/database"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/flow"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/templates"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type fakeContactRepo struct {
	stored   map[uuid.UUID]*contact.Contact
	upserted []*contact.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{stored: make(map[uuid.UUID]*contact.Contact)}
}

func (f *fakeContactRepo) Upsert(_ context.Context, c *contact.Contact) error {
	f.upserted = append(f.upserted, c)
	f.stored[c.ID] = c
	return nil
}

func (f *fakeContactRepo) GetByID(_ context.Context, id uuid.UUID) (*contact.Contact, error) {
	c, ok := f.stored[id]
	if !ok {
		return nil, database.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeContactRepo) UpdateGenderCode(_ context.Context, id uuid.UUID, code contact.GenderCode) error {
	if c, ok := f.stored[id]; ok {
		c.GenderCode = code
	}
	return nil
}

func (f *fakeContactRepo) ListWithBirthday(_ context.Context, month time.Month, day int) ([]*contact.Contact, error) {
	var out []*contact.Contact
	for _, c := range f.stored {
		if c.BirthDate.Month() == month && c.BirthDate.Day() == day {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeHistory struct {
	count   int
	created []*email.Record
}

func (f *fakeHistory) Create(_ context.Context, rec *email.Record) error {
	rec.ID = int64(len(f.created) + 1)
	rec.CreatedAt = time.Now()
	f.created = append(f.created, rec)
	return nil
}

func (f *fakeHistory) CountSentThisYear(_ context.Context, _, _ string) (int, error) {
	return f.count, nil
}

type fakeTransport struct {
	sent []*email.Record
}

func (f *fakeTransport) Send(_ context.Context, rec *email.Record) error {
	f.sent = append(f.sent, rec)
	return nil
}

type fakeTrigger struct {
	requests []flow.ScheduleRequest
}

func (f *fakeTrigger) Schedule(_ context.Context, req flow.ScheduleRequest) error {
	f.requests = append(f.requests, req)
	return nil
}

type fakeClassifier struct {
	code contact.GenderCode
	err  error
}

func (f *fakeClassifier) Classify(_ context.Context, _ int, _ string) (contact.GenderCode, error) {
	return f.code, f.err
}

type serverFixture struct {
	handler   http.Handler
	contacts  *fakeContactRepo
	history   *fakeHistory
	transport *fakeTransport
	trigger   *fakeTrigger
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &serverFixture{
		contacts:  newFakeContactRepo(),
		history:   &fakeHistory{},
		transport: &fakeTransport{},
		trigger:   &fakeTrigger{},
	}
	classifier := &fakeClassifier{code: contact.GenderFemale}
	composer := app.NewComposer(templates.Defaults())
	guard := app.NewSentGuard(f.history)

	dispatcher := app.NewDispatcher(app.DispatcherConfig{
		Mode:            app.ModeScheduled,
		GenderCountryID: 276,
		SendHourUTC:     9,
		DefaultSenderID: uuid.MustParse("11111111-1111-1111-1111-111111111111"),
	}, guard, composer, classifier, f.contacts, f.history, f.transport, f.trigger, log)
	definer := app.NewGenderDefiner(classifier, f.contacts, 276, log)
	delivery := app.NewDeliveryService(f.contacts, guard, composer, f.history, f.transport, log)

	server := NewServer(dispatcher, definer, delivery, f.contacts, alert.Nop{}, log)
	f.handler = server.Router()
	return f
}

func (f *serverFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

// notTodayBirthDate returns a date whose month/day never match today.
func notTodayBirthDate() string {
	bd := time.Now().AddDate(0, 0, 14)
	return time.Date(1990, bd.Month(), bd.Day(), 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func TestHandleContactEvent_SchedulesFutureBirthday(t *testing.T) {
	f := newServerFixture(t)

	body := fmt.Sprintf(`{
		"messagename": "Create",
		"entityname": "contact",
		"depth": 1,
		"target": {
			"id": "22222222-2222-2222-2222-222222222222",
			"fullname": "Anna Muster",
			"firstname": "Anna",
			"lastname": "Muster",
			"emailaddress1": "anna.muster@example.com",
			"birthdate": %q
		}
	}`, notTodayBirthDate())

	rr := f.post(t, "/hooks/contact-events", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Outcome    string `json:"outcome"`
		Classified bool   `json:"classified"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(app.OutcomeScheduled), resp.Outcome)
	assert.True(t, resp.Classified)

	require.Len(t, f.contacts.upserted, 1)
	require.Len(t, f.trigger.requests, 1)
	assert.Equal(t, templates.KeyBirthdayCongratulation, f.trigger.requests[0].Title)
	assert.Empty(t, f.transport.sent)
}

func TestHandleContactEvent_NestedInvocationIgnored(t *testing.T) {
	f := newServerFixture(t)

	body := fmt.Sprintf(`{
		"messagename": "Update",
		"entityname": "contact",
		"depth": 2,
		"target": {
			"id": "22222222-2222-2222-2222-222222222222",
			"fullname": "Anna Muster",
			"emailaddress1": "anna.muster@example.com",
			"birthdate": %q
		}
	}`, notTodayBirthDate())

	rr := f.post(t, "/hooks/contact-events", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, string(app.OutcomeIgnored), resp.Outcome)
	assert.Empty(t, f.trigger.requests)
}

func TestHandleContactEvent_BadRequests(t *testing.T) {
	f := newServerFixture(t)

	rr := f.post(t, "/hooks/contact-events", "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.post(t, "/hooks/contact-events", `{"messagename":"Create","entityname":"contact","target":{"id":"not-a-uuid"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.post(t, "/hooks/contact-events", `{"messagename":"Create","entityname":"contact","target":{"id":"22222222-2222-2222-2222-222222222222","birthdate":"10.05.1990"}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleScheduledDelivery_Success(t *testing.T) {
	f := newServerFixture(t)
	receiverID := uuid.MustParse("33333333-3333-3333-3333-333333333333")
	f.contacts.stored[receiverID] = &contact.Contact{
		ID:         receiverID,
		FirstName:  "Anna",
		Email:      "anna.muster@example.com",
		BirthDate:  time.Date(1990, time.May, 10, 0, 0, 0, 0, time.UTC),
		GenderCode: contact.GenderFemale,
	}

	body := `{
		"receiverid": "33333333-3333-3333-3333-333333333333",
		"senderid": "44444444-4444-4444-4444-444444444444",
		"templatename": "Birthday Congratulation"
	}`
	rr := f.post(t, "/hooks/scheduled-deliveries", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Len(t, f.transport.sent, 1)
	assert.Contains(t, f.transport.sent[0].Body, "Sehr geehrte Frau Anna")
}

func TestHandleScheduledDelivery_MissingTemplateName(t *testing.T) {
	f := newServerFixture(t)

	body := `{
		"receiverid": "33333333-3333-3333-3333-333333333333",
		"senderid": "44444444-4444-4444-4444-444444444444"
	}`
	rr := f.post(t, "/hooks/scheduled-deliveries", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleScheduledDelivery_UnknownContact(t *testing.T) {
	f := newServerFixture(t)

	body := `{
		"receiverid": "33333333-3333-3333-3333-333333333333",
		"senderid": "44444444-4444-4444-4444-444444444444",
		"templatename": "Birthday Congratulation"
	}`
	rr := f.post(t, "/hooks/scheduled-deliveries", body)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
