package events

import (
	"time"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventJobAssigned      EventType = "job_assigned"
	EventJobStatusChanged EventType = "job_status_changed"
	EventJobReminderDue   EventType = "job_reminder_due"
)

// Event represents a domain event emitted by services. IdentityKey is always
// the canonical identity key of the affected staff member.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	JobID       string      `json:"job_id"`
	IdentityKey string      `json:"identity_key"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// JobAssignedPayload payload.
type JobAssignedPayload struct {
	Title    string `json:"title"`
	Location string `json:"location,omitempty"`
}

// JobStatusChangedPayload payload.
type JobStatusChangedPayload struct {
	OldStatus domain.JobStatus `json:"old_status"`
	NewStatus domain.JobStatus `json:"new_status"`
}

// JobReminderDuePayload payload.
type JobReminderDuePayload struct {
	Title string `json:"title"`
	DueIn string `json:"due_in,omitempty"`
}
