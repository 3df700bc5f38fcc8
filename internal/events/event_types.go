package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventSessionSignedIn        EventType = "session.signed_in"
	EventSessionRefreshed       EventType = "session.refreshed"
	EventSessionSignedOut       EventType = "session.signed_out"
	EventSalarySlipUploaded     EventType = "salary_slip.uploaded"
	EventPasswordResetRequested EventType = "password_reset.requested"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type      domain.SubjectType `json:"type"`
	ProfileID *string            `json:"profile_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// SessionPayload carries the session for sign-in, refresh and sign-out events.
type SessionPayload struct {
	Session domain.Session `json:"session"`
}

// SalarySlipUploadedPayload payload.
type SalarySlipUploadedPayload struct {
	SlipID      string `json:"slip_id"`
	EmployeeRef string `json:"employee_ref"`
	Month       string `json:"month"`
	Year        int    `json:"year"`
	FileName    string `json:"file_name"`
}

// PasswordResetRequestedPayload payload. ResetLink carries the token and is only
// handed to the email sender, never serialized.
type PasswordResetRequestedPayload struct {
	AccountID string    `json:"account_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
	ResetLink string    `json:"-"`
}
