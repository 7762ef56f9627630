package domain

import "time"

// JobStatus enumerates lifecycle states for assigned work.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusAssigned   JobStatus = "ASSIGNED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// JobAssignment is work handed to one staff member.
//
// AssignedIdentityKey is always a canonical identity key, never a raw staff
// record id or email.
type JobAssignment struct {
	JobID               string
	AssignedIdentityKey string
	Title               string
	Location            string
	Status              JobStatus
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// jobTransitions lists the permitted status moves.
var jobTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusAssigned, JobStatusCancelled},
	JobStatusAssigned:   {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress: {JobStatusCompleted, JobStatusCancelled},
}

// CanTransition reports whether a status change is allowed.
func CanTransition(from, to JobStatus) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
