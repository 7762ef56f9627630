package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

const uniqueViolationCode = "23505"

// Collection names reported by partial-availability faults.
const (
	CollectionJobs          = "jobs"
	CollectionNotifications = "notifications"
)

// WakeupPublisher signals live subscriptions that an identity's notification
// stream grew. Best effort; the delivery pipeline also polls.
type WakeupPublisher interface {
	NotifyWrite(ctx context.Context, key string)
}

// Synchronizer issues consistent reads and writes across the job and
// notification collections. Every access keys on the canonical identity key,
// never on a record id or email, and this component is the sole writer of the
// identity-keyed fields.
type Synchronizer struct {
	jobs          repository.JobRepository
	notifications repository.NotificationRepository
	wakeups       WakeupPublisher
	logger        *zap.Logger
	metrics       *observability.Metrics
	cfg           config.SyncConfig
}

// Dependencies bundles collaborators for construction.
type Dependencies struct {
	JobRepo          repository.JobRepository
	NotificationRepo repository.NotificationRepository
	Wakeups          WakeupPublisher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

// NewSynchronizer constructs the synchronizer.
func NewSynchronizer(cfg config.SyncConfig, deps Dependencies) *Synchronizer {
	return &Synchronizer{
		jobs:          deps.JobRepo,
		notifications: deps.NotificationRepo,
		wakeups:       deps.Wakeups,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		cfg:           cfg,
	}
}

// QueryJobsFor returns all job assignments keyed by the canonical identity key.
func (s *Synchronizer) QueryJobsFor(ctx context.Context, key string) ([]domain.JobAssignment, error) {
	if key == "" {
		return nil, apperrors.NewValidationError("identity key required", nil)
	}
	s.metrics.Incr(observability.MetricSyncReads)

	var jobs []domain.JobAssignment
	err := s.withRetry(ctx, "query jobs", func(opCtx context.Context) error {
		var err error
		jobs, err = s.jobs.ListByIdentityKey(opCtx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// QueryNotificationsFor returns notification events for one identity ordered
// by createdAt ascending with eventId breaking ties. A nil cursor starts from
// the beginning of the stream.
func (s *Synchronizer) QueryNotificationsFor(ctx context.Context, key string, since *repository.NotificationCursor) ([]domain.NotificationEvent, error) {
	if key == "" {
		return nil, apperrors.NewValidationError("identity key required", nil)
	}
	s.metrics.Incr(observability.MetricSyncReads)

	var events []domain.NotificationEvent
	err := s.withRetry(ctx, "query notifications", func(opCtx context.Context) error {
		var err error
		events, err = s.notifications.ListByIdentityKey(opCtx, key, since, 0)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// WriteNotification appends one event. Appends are idempotent per event id:
// a second write of the same id fails with DUPLICATE_EVENT and leaves the
// store unchanged, so callers may retry freely.
func (s *Synchronizer) WriteNotification(ctx context.Context, event *domain.NotificationEvent) error {
	if event == nil {
		return apperrors.NewValidationError("event required", nil)
	}
	if event.TargetIdentityKey == "" {
		return apperrors.NewValidationError("target identity key required", nil)
	}
	if !domain.ValidNotificationKind(event.Kind) {
		return apperrors.NewValidationError("unknown notification kind", map[string]any{"kind": string(event.Kind)})
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	s.metrics.Incr(observability.MetricSyncWrites)

	err := s.withRetry(ctx, "write notification", func(opCtx context.Context) error {
		return s.notifications.Insert(opCtx, event)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewDuplicateEvent(event.EventID)
		}
		return err
	}

	if s.wakeups != nil {
		s.wakeups.NotifyWrite(ctx, event.TargetIdentityKey)
	}
	return nil
}

// MarkNotificationRead flips the read flag, the only mutation notification
// events ever receive.
func (s *Synchronizer) MarkNotificationRead(ctx context.Context, key, eventID string) error {
	if key == "" || eventID == "" {
		return apperrors.NewValidationError("identity key and event id required", nil)
	}
	err := s.withRetry(ctx, "mark notification read", func(opCtx context.Context) error {
		return s.notifications.MarkRead(opCtx, key, eventID)
	})
	if err != nil && errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("notification", map[string]any{"event_id": eventID})
	}
	return err
}

// AssignJob creates a job assignment keyed by the canonical identity key.
func (s *Synchronizer) AssignJob(ctx context.Context, job *domain.JobAssignment) error {
	if job == nil || job.AssignedIdentityKey == "" {
		return apperrors.NewValidationError("assigned identity key required", nil)
	}
	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = domain.JobStatusAssigned
	}
	s.metrics.Incr(observability.MetricSyncWrites)

	return s.withRetry(ctx, "assign job", func(opCtx context.Context) error {
		return s.jobs.Create(opCtx, job)
	})
}

// GetJob fetches one assignment by id.
func (s *Synchronizer) GetJob(ctx context.Context, jobID string) (*domain.JobAssignment, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("job", map[string]any{"job_id": jobID})
		}
		return nil, apperrors.MapError(err)
	}
	return job, nil
}

// UpdateJobStatus applies a validated status transition.
func (s *Synchronizer) UpdateJobStatus(ctx context.Context, jobID string, status domain.JobStatus) (*domain.JobAssignment, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(job.Status, status) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"job_id": jobID,
			"from":   string(job.Status),
			"to":     string(status),
		})
	}
	err = s.withRetry(ctx, "update job status", func(opCtx context.Context) error {
		return s.jobs.UpdateStatus(opCtx, jobID, job.Status, status)
	})
	if err != nil {
		// the guarded update matched no row: a concurrent writer moved
		// the job after our read
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewConflict("job status changed concurrently", map[string]any{
				"job_id": jobID,
				"from":   string(job.Status),
				"to":     string(status),
			})
		}
		return nil, err
	}
	job.Status = status
	return job, nil
}

// StaffView bundles one identity's data across collections.
type StaffView struct {
	IdentityKey   string
	Jobs          []domain.JobAssignment
	Notifications []domain.NotificationEvent
}

// FetchStaffView reads jobs and notifications for one identity. When one
// collection fails but another succeeds the view carries what was fetched and
// the returned error is a PartialAvailabilityError naming both sets; callers
// may still render the data they got.
func (s *Synchronizer) FetchStaffView(ctx context.Context, key string) (*StaffView, error) {
	view := &StaffView{IdentityKey: key}
	succeeded := []string{}
	failed := map[string]error{}

	jobs, err := s.QueryJobsFor(ctx, key)
	if err != nil {
		failed[CollectionJobs] = err
	} else {
		view.Jobs = jobs
		succeeded = append(succeeded, CollectionJobs)
	}

	events, err := s.QueryNotificationsFor(ctx, key, nil)
	if err != nil {
		failed[CollectionNotifications] = err
	} else {
		view.Notifications = events
		succeeded = append(succeeded, CollectionNotifications)
	}

	if len(failed) == 0 {
		return view, nil
	}
	if len(succeeded) == 0 {
		for _, err := range failed {
			return nil, apperrors.MapError(err)
		}
	}
	s.metrics.Incr(observability.MetricSyncPartial)
	s.logger.Warn("partial collection availability",
		zap.String("identity_key", key),
		zap.Strings("succeeded", succeeded))
	return view, &apperrors.PartialAvailabilityError{Succeeded: succeeded, Failed: failed}
}

// withRetry runs fn under the per-operation deadline, retrying transient
// timeouts with exponential backoff up to the configured attempt cap.
func (s *Synchronizer) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := s.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			s.metrics.Incr(observability.MetricSyncRetries)
			backoff := s.cfg.BackoffBase() * (1 << (attempt - 1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return apperrors.NewTimeout(op, ctx.Err())
			}
		}

		opCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout())
		err := fn(opCtx)
		cancel()
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return apperrors.MapError(err)
		}
		lastErr = apperrors.NewTimeout(op, err)
		s.logger.Warn("store operation timed out",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1))
	}
	return lastErr
}

func isTransient(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
