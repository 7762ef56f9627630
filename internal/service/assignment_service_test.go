package service

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/events"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/repository"
	"github.com/crewline/staff-sync-service/internal/syncer"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

type memoryJobRepo struct {
	mu   sync.Mutex
	jobs map[string]*domain.JobAssignment
}

func (r *memoryJobRepo) Create(_ context.Context, job *domain.JobAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *job
	r.jobs[job.JobID] = &copied
	return nil
}

func (r *memoryJobRepo) GetByID(_ context.Context, jobID string) (*domain.JobAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[jobID]; ok {
		copied := *job
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryJobRepo) ListByIdentityKey(_ context.Context, key string) ([]domain.JobAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var jobs []domain.JobAssignment
	for _, job := range r.jobs {
		if job.AssignedIdentityKey == key {
			jobs = append(jobs, *job)
		}
	}
	return jobs, nil
}

func (r *memoryJobRepo) UpdateStatus(_ context.Context, jobID string, from, to domain.JobStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status != from {
		return pgx.ErrNoRows
	}
	job.Status = to
	return nil
}

type memoryNotificationRepo struct {
	mu     sync.Mutex
	events map[string]*domain.NotificationEvent
}

func (r *memoryNotificationRepo) Insert(_ context.Context, event *domain.NotificationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.events[event.EventID]; exists {
		return apperrors.NewDuplicateEvent(event.EventID)
	}
	copied := *event
	r.events[event.EventID] = &copied
	return nil
}

func (r *memoryNotificationRepo) ListByIdentityKey(_ context.Context, key string, _ *repository.NotificationCursor, _ int) ([]domain.NotificationEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationEvent
	for _, event := range r.events {
		if event.TargetIdentityKey == key {
			out = append(out, *event)
		}
	}
	return out, nil
}

func (r *memoryNotificationRepo) MarkRead(_ context.Context, key, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[eventID]
	if !ok || event.TargetIdentityKey != key {
		return pgx.ErrNoRows
	}
	event.Read = true
	return nil
}

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, staffRef string) (string, error) {
	if key, ok := r[staffRef]; ok {
		return key, nil
	}
	return "", apperrors.NewNotFound("staff", map[string]any{"staff_ref": staffRef})
}

func (staticResolver) Invalidate(context.Context, ...string) {}

type assignmentFixture struct {
	service       *AssignmentService
	notifications *memoryNotificationRepo
}

// newAssignmentFixture wires the real synchronizer, dispatcher, and
// notification handlers over in-memory stores, so a job write is observed all
// the way to its stored notification.
func newAssignmentFixture(resolver staticResolver) *assignmentFixture {
	jobs := &memoryJobRepo{jobs: map[string]*domain.JobAssignment{}}
	notifications := &memoryNotificationRepo{events: map[string]*domain.NotificationEvent{}}

	store := syncer.NewSynchronizer(
		config.SyncConfig{OpTimeoutSeconds: 2, MaxAttempts: 1},
		syncer.Dependencies{
			JobRepo:          jobs,
			NotificationRepo: notifications,
			Logger:           zap.NewNop(),
			Metrics:          observability.NewMetrics(),
		})

	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, store, zap.NewNop()).RegisterHandlers()

	return &assignmentFixture{
		service:       NewAssignmentService(store, resolver, dispatcher),
		notifications: notifications,
	}
}

func TestAssignJobWritesNotification(t *testing.T) {
	fx := newAssignmentFixture(staticResolver{"rec-1": "sid-k1"})
	ctx := context.Background()

	job, err := fx.service.AssignJob(ctx, AssignJobInput{
		StaffRef: "rec-1",
		Title:    "Clean room 4",
		Location: "Building A",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, job.JobID)
	assert.Equal(t, "sid-k1", job.AssignedIdentityKey)
	assert.Equal(t, domain.JobStatusAssigned, job.Status)

	stored, err := fx.notifications.ListByIdentityKey(ctx, "sid-k1", nil, 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.NotificationJobAssigned, stored[0].Kind)
	assert.Contains(t, stored[0].Body, "Clean room 4")
}

func TestAssignJobUnknownStaff(t *testing.T) {
	fx := newAssignmentFixture(staticResolver{})

	_, err := fx.service.AssignJob(context.Background(), AssignJobInput{StaffRef: "ghost", Title: "Anything"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "NOT_FOUND"))
}

func TestAssignJobRequiresTitle(t *testing.T) {
	fx := newAssignmentFixture(staticResolver{"rec-1": "sid-k1"})

	_, err := fx.service.AssignJob(context.Background(), AssignJobInput{StaffRef: "rec-1"})
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestUpdateJobStatusOwnership(t *testing.T) {
	fx := newAssignmentFixture(staticResolver{
		"rec-1": "sid-k1",
		"rec-2": "sid-k2",
		"admin": "sid-admin",
	})
	ctx := context.Background()

	job, err := fx.service.AssignJob(ctx, AssignJobInput{StaffRef: "rec-1", Title: "Clean room 4"})
	require.NoError(t, err)

	t.Run("owner may transition", func(t *testing.T) {
		updated, err := fx.service.UpdateJobStatus(ctx, "rec-1", domain.StaffRoleCleaner, job.JobID, domain.JobStatusInProgress)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusInProgress, updated.Status)
	})

	t.Run("other staff is forbidden", func(t *testing.T) {
		_, err := fx.service.UpdateJobStatus(ctx, "rec-2", domain.StaffRoleCleaner, job.JobID, domain.JobStatusCompleted)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, "FORBIDDEN"))
	})

	t.Run("admin may transition any job", func(t *testing.T) {
		updated, err := fx.service.UpdateJobStatus(ctx, "admin", domain.StaffRoleAdmin, job.JobID, domain.JobStatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, updated.Status)
	})
}

func TestUpdateJobStatusEmitsStatusNotification(t *testing.T) {
	fx := newAssignmentFixture(staticResolver{"rec-1": "sid-k1"})
	ctx := context.Background()

	job, err := fx.service.AssignJob(ctx, AssignJobInput{StaffRef: "rec-1", Title: "Clean room 4"})
	require.NoError(t, err)

	_, err = fx.service.UpdateJobStatus(ctx, "rec-1", domain.StaffRoleCleaner, job.JobID, domain.JobStatusInProgress)
	require.NoError(t, err)

	stored, err := fx.notifications.ListByIdentityKey(ctx, "sid-k1", nil, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2, "assignment plus status change")

	var statusBody string
	for _, event := range stored {
		if event.Kind == domain.NotificationSystem {
			statusBody = event.Body
		}
	}
	assert.Contains(t, statusBody, "ASSIGNED")
	assert.Contains(t, statusBody, "IN_PROGRESS")
}
