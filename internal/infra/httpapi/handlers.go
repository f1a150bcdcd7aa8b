package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Telyonok/Congratulator-Plugin/internal/app"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/contact"
	"github.com/Telyonok/Congratulator-Plugin/internal/domain/event"
	"github.com/Telyonok/Congratulator-Plugin/internal/infra/database"

	"github.com/google/uuid"
)

// birthDateLayout is the wire format for birth dates in webhook payloads.
const birthDateLayout = "2006-01-02"

type contactTargetPayload struct {
	ID         string `json:"id"`
	FullName   string `json:"fullname"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Email      string `json:"emailaddress1"`
	BirthDate  string `json:"birthdate"`
	GenderCode int    `json:"gendercode"`
}

type contactEventPayload struct {
	MessageName      string                `json:"messagename"`
	EntityName       string                `json:"entityname"`
	Depth            int                   `json:"depth"`
	InitiatingUserID string                `json:"initiatinguserid"`
	Target           *contactTargetPayload `json:"target"`
}

type contactEventResponse struct {
	Outcome    app.Outcome `json:"outcome"`
	Classified bool        `json:"classified"`
}

func (p *contactEventPayload) toEnvelope() (event.Envelope, error) {
	env := event.Envelope{
		MessageName: p.MessageName,
		EntityName:  p.EntityName,
		Depth:       p.Depth,
	}
	if p.Depth == 0 {
		env.Depth = 1 // Direct invocations default to depth 1
	}
	if p.InitiatingUserID != "" {
		id, err := uuid.Parse(p.InitiatingUserID)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("invalid initiatinguserid: %w", err)
		}
		env.InitiatingUserID = id
	}
	if p.Target == nil {
		return env, nil
	}

	target := &event.ContactTarget{
		FullName:   p.Target.FullName,
		FirstName:  p.Target.FirstName,
		LastName:   p.Target.LastName,
		Email:      p.Target.Email,
		GenderCode: p.Target.GenderCode,
	}
	id, err := uuid.Parse(p.Target.ID)
	if err != nil {
		return event.Envelope{}, fmt.Errorf("invalid target id: %w", err)
	}
	target.ID = id
	if p.Target.BirthDate != "" {
		bd, err := time.Parse(birthDateLayout, p.Target.BirthDate)
		if err != nil {
			return event.Envelope{}, fmt.Errorf("invalid birthdate (want YYYY-MM-DD): %w", err)
		}
		target.BirthDate = &bd
	}
	env.Target = target
	return env, nil
}

// handleContactEvent runs the full pipeline for one entity-change event:
// refresh the contact mirror, resolve the gender code, dispatch the
// congratulation decision.
func (s *Server) handleContactEvent(w http.ResponseWriter, r *http.Request) {
	var payload contactEventPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	env, err := payload.toEnvelope()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	// Refresh the mirror only from full snapshots: partial update events
	// carry just the changed fields and must not wipe stored values.
	if t := env.Target; t != nil && t.FullName != "" && t.Email != "" && t.BirthDate != nil {
		mirrored := &contact.Contact{
			ID:         t.ID,
			FullName:   t.FullName,
			FirstName:  t.FirstName,
			LastName:   sql.NullString{String: t.LastName, Valid: t.LastName != ""},
			Email:      t.Email,
			BirthDate:  *t.BirthDate,
			GenderCode: contact.GenderCode(t.GenderCode),
		}
		if err := s.contacts.Upsert(ctx, mirrored); err != nil {
			s.fail(w, "failed to refresh contact mirror", err)
			return
		}
	}

	classified, err := s.definer.Handle(ctx, env)
	if err != nil {
		s.fail(w, "gender definer failed", err)
		return
	}

	outcome, err := s.dispatcher.Dispatch(ctx, env)
	if err != nil {
		s.fail(w, "dispatch failed", err)
		return
	}

	writeJSON(w, http.StatusOK, contactEventResponse{Outcome: outcome, Classified: classified})
}

type scheduledDeliveryPayload struct {
	ReceiverID   string `json:"receiverid"`
	SenderID     string `json:"senderid"`
	TemplateName string `json:"templatename"`
}

// handleScheduledDelivery is the automation flow's callback at fire time.
func (s *Server) handleScheduledDelivery(w http.ResponseWriter, r *http.Request) {
	var payload scheduledDeliveryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	receiverID, err := parseOptionalUUID(payload.ReceiverID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid receiverid")
		return
	}
	senderID, err := parseOptionalUUID(payload.SenderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid senderid")
		return
	}

	err = s.delivery.Deliver(r.Context(), receiverID, senderID, payload.TemplateName)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "delivered"})
	case errors.Is(err, app.ErrMissingArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrContactNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrTemplateNotFound):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.fail(w, "scheduled delivery failed", err)
	}
}

func parseOptionalUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}

// fail logs, alerts, and answers 500. Used for genuine faults only; expected
// early-exit conditions are plain outcomes or 4xx responses.
func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.log.WithError(err).Error(msg)
	s.alerts.Alert(fmt.Sprintf("%s: %v", msg, err))
	writeError(w, http.StatusInternalServerError, msg)
}
