package event

import (
	"time"

	"github.com/google/uuid"
)

// Message names the CRM emits for record changes.
const (
	MessageCreate = "Create"
	MessageUpdate = "Update"
)

// EntityContact is the only entity type the pipeline reacts to.
const EntityContact = "contact"

// ContactTarget is the snapshot of the changed record carried by an event.
// Optional CRM fields arrive empty; BirthDate is nil when the field was not
// part of the change.
type ContactTarget struct {
	ID         uuid.UUID
	FullName   string
	FirstName  string
	LastName   string
	Email      string
	BirthDate  *time.Time
	GenderCode int
}

// Envelope is an inbound entity-change event. Depth counts nested automated
// invocations: 1 for a direct user action, >1 when another automated step
// triggered this one.
type Envelope struct {
	MessageName      string
	EntityName       string
	Depth            int
	InitiatingUserID uuid.UUID
	Target           *ContactTarget
}
