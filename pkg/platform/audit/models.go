package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryRoster covers changes to who is enrolled in an activity.
	CategoryRoster EventCategory = "roster"

	// CategoryOperations covers routine events useful for debugging.
	CategoryOperations EventCategory = "operations"
)

// AuditEvent names an auditable action.
type AuditEvent string

const (
	EventActivitySignup       AuditEvent = "activity_signup"
	EventActivityUnregistered AuditEvent = "activity_unregistered"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventActivitySignup:       CategoryRoster,
	EventActivityUnregistered: CategoryRoster,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted after a registry mutation. Keep it transport-agnostic so
// publishers can fan out.
type Event struct {
	ID        uuid.UUID     `json:"id"`
	Category  EventCategory `json:"category"`
	Action    AuditEvent    `json:"action"`
	Timestamp time.Time     `json:"timestamp"`
	Activity  string        `json:"activity"`
	Email     string        `json:"email,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	ClientIP  string        `json:"client_ip,omitempty"`
	UserAgent string        `json:"user_agent,omitempty"`
}

// Normalize fills ID, Category and Timestamp when unset.
func (e Event) Normalize(now time.Time) Event {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Category == "" {
		e.Category = e.Action.Category()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	return e
}

// Publisher delivers audit events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
