package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/events"
	"github.com/crewline/staff-sync-service/internal/syncer"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// AssignmentService handles job assignment operations. All writes flow
// through the synchronizer, which is the only component allowed to touch the
// identity-keyed fields.
type AssignmentService struct {
	store      *syncer.Synchronizer
	resolver   IdentityResolver
	dispatcher events.Dispatcher
}

// NewAssignmentService creates the service.
func NewAssignmentService(store *syncer.Synchronizer, resolver IdentityResolver, dispatcher events.Dispatcher) *AssignmentService {
	return &AssignmentService{store: store, resolver: resolver, dispatcher: dispatcher}
}

// AssignJobInput carries job creation fields. StaffRef may be a record id,
// an email, or an already canonical key; it is resolved before the write.
type AssignJobInput struct {
	StaffRef string
	Title    string
	Location string
}

// AssignJob resolves the staff reference and creates the assignment.
func (s *AssignmentService) AssignJob(ctx context.Context, input AssignJobInput) (*domain.JobAssignment, error) {
	if input.Title == "" {
		return nil, apperrors.NewValidationError("job title required", nil)
	}

	key, err := s.resolver.Resolve(ctx, input.StaffRef)
	if err != nil {
		return nil, err
	}

	job := &domain.JobAssignment{
		AssignedIdentityKey: key,
		Title:               input.Title,
		Location:            input.Location,
		Status:              domain.JobStatusAssigned,
	}
	if err := s.store.AssignJob(ctx, job); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventJobAssigned,
		JobID:       job.JobID,
		IdentityKey: key,
		Timestamp:   time.Now(),
		Payload: events.JobAssignedPayload{
			Title:    job.Title,
			Location: job.Location,
		},
	})
	return job, nil
}

// JobsFor returns the jobs assigned to the staff member behind staffRef.
func (s *AssignmentService) JobsFor(ctx context.Context, staffRef string) ([]domain.JobAssignment, error) {
	key, err := s.resolver.Resolve(ctx, staffRef)
	if err != nil {
		return nil, err
	}
	return s.store.QueryJobsFor(ctx, key)
}

// UpdateJobStatus applies a status transition on behalf of actorRef. Staff
// may only move their own jobs; admins may move any.
func (s *AssignmentService) UpdateJobStatus(ctx context.Context, actorRef string, actorRole domain.StaffRole, jobID string, status domain.JobStatus) (*domain.JobAssignment, error) {
	key, err := s.resolver.Resolve(ctx, actorRef)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if current.AssignedIdentityKey != key && actorRole != domain.StaffRoleAdmin {
		return nil, apperrors.NewForbidden("job belongs to another staff member")
	}
	oldStatus := current.Status

	job, err := s.store.UpdateJobStatus(ctx, jobID, status)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		ID:          uuid.NewString(),
		Type:        events.EventJobStatusChanged,
		JobID:       job.JobID,
		IdentityKey: job.AssignedIdentityKey,
		Timestamp:   time.Now(),
		Payload: events.JobStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: job.Status,
		},
	})
	return job, nil
}

func (s *AssignmentService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
