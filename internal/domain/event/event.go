package event

import (
	"time"

	"github.com/google/uuid"
)

// Payload keys shared by publishers and handlers
const (
	KeyStaffID   = "staff_id"
	KeyComment   = "comment"
	KeyReason    = "reason"
	KeyVisitorID = "visitor_id"
	KeyPath      = "path"
	KeyExpiresAt = "expires_at"
)

// Event is something that happened in the portal. Subject is the id of the leave
// request or blog post it concerns; Scope is the auth scope for session events.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Scope     string         `json:"scope,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// New creates an event with a generated ID and the current time
func New(eventType Type, scope, subject string, payload map[string]any) *Event {
	if payload == nil {
		payload = make(map[string]any)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Scope:     scope,
		Subject:   subject,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// WithPayload returns a copy of the event with key set
func (e *Event) WithPayload(key string, value any) *Event {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	copied := *e
	copied.Payload = payload
	return &copied
}

// PayloadString retrieves a string value from the payload
func (e *Event) PayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// PayloadTime retrieves a time value from the payload
func (e *Event) PayloadTime(key string) time.Time {
	switch v := e.Payload[key].(type) {
	case time.Time:
		return v
	case string:
		t, _ := time.Parse(time.RFC3339, v)
		return t
	}
	return time.Time{}
}
