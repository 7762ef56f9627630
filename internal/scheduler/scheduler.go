package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// IdentityResolver maps a staff reference to the canonical identity key.
type IdentityResolver interface {
	Resolve(ctx context.Context, staffRef string) (string, error)
}

// CollectionAccess is the slice of the synchronizer the scheduler needs.
type CollectionAccess interface {
	QueryJobsFor(ctx context.Context, key string) ([]domain.JobAssignment, error)
	WriteNotification(ctx context.Context, event *domain.NotificationEvent) error
}

// Scheduler runs the weekly audit pass. Each (identity key, period) pair is
// an independent unit of work: one staff member's generation failure or
// timeout never blocks the others, and reruns of an already generated period
// are no-ops.
type Scheduler struct {
	staff    repository.StaffRepository
	audits   repository.AuditReportRepository
	resolver IdentityResolver
	store    CollectionAccess
	gen      Generator
	cron     *cron.Cron
	logger   *zap.Logger
	metrics  *observability.Metrics
	cfg      config.AuditConfig
	now      func() time.Time
}

// Dependencies bundles collaborators for construction.
type Dependencies struct {
	StaffRepo repository.StaffRepository
	AuditRepo repository.AuditReportRepository
	Resolver  IdentityResolver
	Store     CollectionAccess
	Generator Generator
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Now       func() time.Time
}

// NewScheduler constructs the scheduler.
func NewScheduler(cfg config.AuditConfig, deps Dependencies) *Scheduler {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		staff:    deps.StaffRepo,
		audits:   deps.AuditRepo,
		resolver: deps.Resolver,
		store:    deps.Store,
		gen:      deps.Generator,
		cron:     cron.New(cron.WithSeconds()),
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		cfg:      cfg,
		now:      now,
	}
}

// Start registers the recurring pass and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.cfg.CronSpec, s.runScheduled)
	if err != nil {
		return fmt.Errorf("schedule audit pass: %w", err)
	}
	s.cron.Start()
	s.logger.Info("audit scheduler started", zap.String("cron", s.cfg.CronSpec))
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("audit scheduler stopped")
}

func (s *Scheduler) runScheduled() {
	result, err := s.RunPass(context.Background())
	if err != nil {
		s.logger.Error("audit pass aborted", zap.Error(err))
		return
	}
	s.logger.Info("audit pass finished",
		zap.String("period", result.PeriodID),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("exhausted", result.Exhausted),
		zap.Int("resolution_errors", result.ResolutionErrors))
}

// PassResult summarizes one audit pass. Skipped counts benign no-ops
// (already generated, or claimed by a concurrent pass); Exhausted counts
// reports whose retry budget ran out, which an operator should look at.
type PassResult struct {
	PeriodID         string
	Generated        int
	Skipped          int
	Failed           int
	Exhausted        int
	ResolutionErrors int
}

type outcome int

const (
	outcomeGenerated outcome = iota
	outcomeSkipped
	outcomeFailed
	outcomeExhausted
)

// RunPass walks all active staff for the current period. Only the initial
// staff enumeration can abort the pass; every per-staff fault is contained
// and counted.
func (s *Scheduler) RunPass(ctx context.Context) (PassResult, error) {
	result := PassResult{PeriodID: domain.PeriodID(s.now())}

	records, err := s.staff.ListActive(ctx)
	if err != nil {
		return result, apperrors.MapError(err)
	}

	for _, record := range records {
		key, err := s.resolver.Resolve(ctx, record.RecordID)
		if err != nil {
			// a bad identity must not abort the whole run
			result.ResolutionErrors++
			s.logger.Warn("skipping staff member: identity resolution failed",
				zap.String("record_id", record.RecordID),
				zap.Error(err))
			continue
		}

		switch s.processReport(ctx, key, result.PeriodID) {
		case outcomeGenerated:
			result.Generated++
			s.metrics.Incr(observability.MetricAuditGenerated)
		case outcomeSkipped:
			result.Skipped++
			s.metrics.Incr(observability.MetricAuditSkipped)
		case outcomeFailed:
			result.Failed++
			s.metrics.Incr(observability.MetricAuditFailed)
		case outcomeExhausted:
			result.Exhausted++
			s.metrics.Incr(observability.MetricAuditExhausted)
		}
	}
	return result, nil
}

// processReport drives one (key, period) unit through the report state
// machine: pending -> generating -> generated | failed, with the bounded
// retry cap applied across passes via the stored attempt counter.
func (s *Scheduler) processReport(ctx context.Context, key, periodID string) outcome {
	report, err := s.audits.EnsurePending(ctx, key, periodID)
	if err != nil {
		s.logger.Error("audit report bootstrap failed",
			zap.String("identity_key", key), zap.String("period", periodID), zap.Error(err))
		return outcomeFailed
	}

	if report.Status == domain.AuditStatusGenerated {
		return outcomeSkipped
	}
	attempts := report.Attempts
	if attempts >= s.cfg.MaxAttempts {
		// retries exhausted in an earlier pass; left failed for the
		// operational dashboard, never silently dropped
		s.logger.Warn("audit retries exhausted",
			zap.String("identity_key", key), zap.String("period", periodID),
			zap.Int("attempts", attempts))
		return outcomeExhausted
	}

	// a GENERATING claim older than this was orphaned by a crashed pass
	staleBefore := s.now().UTC().Add(-s.cfg.StaleClaimAfter())

	for attempts < s.cfg.MaxAttempts {
		advanced, err := s.audits.MarkGenerating(ctx, key, periodID, staleBefore)
		if err != nil {
			s.logger.Error("audit state transition failed",
				zap.String("identity_key", key), zap.String("period", periodID), zap.Error(err))
			return outcomeFailed
		}
		if !advanced {
			// another pass finished this report or holds a live claim
			return outcomeSkipped
		}
		attempts++

		content, err := s.generateContent(ctx, key, periodID)
		if err == nil {
			if err := s.audits.MarkGenerated(ctx, key, periodID, content, s.now().UTC()); err != nil {
				s.logger.Error("persist generated report failed",
					zap.String("identity_key", key), zap.String("period", periodID), zap.Error(err))
				return outcomeFailed
			}
			s.emitAuditReady(ctx, key, periodID)
			return outcomeGenerated
		}

		s.logger.Warn("audit generation attempt failed",
			zap.String("identity_key", key),
			zap.String("period", periodID),
			zap.Int("attempt", attempts),
			zap.Error(err))
		if err := s.audits.MarkFailed(ctx, key, periodID); err != nil {
			s.logger.Error("persist failed report failed",
				zap.String("identity_key", key), zap.String("period", periodID), zap.Error(err))
			return outcomeFailed
		}
		if attempts < s.cfg.MaxAttempts {
			backoff := time.Duration(s.cfg.RetryBackoffMillis) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return outcomeFailed
			}
		}
	}
	return outcomeFailed
}

// generateContent summarizes the staff member's activity window and invokes
// the external generator under its own deadline, so a slow generation is
// individually cancelable without affecting sibling staff members.
func (s *Scheduler) generateContent(ctx context.Context, key, periodID string) (string, error) {
	summary, err := s.buildSummary(ctx, key, periodID)
	if err != nil {
		return "", err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GenTimeout())
	defer cancel()
	return s.gen.Generate(genCtx, summary)
}

func (s *Scheduler) buildSummary(ctx context.Context, key, periodID string) (string, error) {
	jobs, err := s.store.QueryJobsFor(ctx, key)
	if err != nil {
		return "", err
	}

	limit := s.cfg.SummaryJobLimit
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}

	counts := map[domain.JobStatus]int{}
	for _, job := range jobs {
		counts[job.Status]++
	}
	return fmt.Sprintf(
		"staff %s, period %s: %d jobs (%d completed, %d in progress, %d assigned, %d cancelled)",
		key, periodID, len(jobs),
		counts[domain.JobStatusCompleted],
		counts[domain.JobStatusInProgress],
		counts[domain.JobStatusAssigned],
		counts[domain.JobStatusCancelled],
	), nil
}

// emitAuditReady writes the single audit_ready event for a generated report.
// The event id is derived from the report key, so a rerun that somehow gets
// this far hits the duplicate guard and stays a no-op.
func (s *Scheduler) emitAuditReady(ctx context.Context, key, periodID string) {
	event := &domain.NotificationEvent{
		EventID:           fmt.Sprintf("audit-ready-%s-%s", key, periodID),
		TargetIdentityKey: key,
		Kind:              domain.NotificationAuditReady,
		Title:             "Weekly audit ready",
		Body:              fmt.Sprintf("Your audit report for %s is available.", periodID),
	}
	if err := s.store.WriteNotification(ctx, event); err != nil && !apperrors.IsDuplicateEvent(err) {
		s.logger.Error("audit_ready notification failed",
			zap.String("identity_key", key), zap.String("period", periodID), zap.Error(err))
	}
}
