package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// AuditReportRepository handles persistence for audit reports. The scheduler
// is its only writer.
type AuditReportRepository interface {
	EnsurePending(ctx context.Context, key, periodID string) (*domain.AuditReport, error)
	Get(ctx context.Context, key, periodID string) (*domain.AuditReport, error)
	MarkGenerating(ctx context.Context, key, periodID string, staleBefore time.Time) (bool, error)
	MarkGenerated(ctx context.Context, key, periodID, content string, generatedAt time.Time) error
	MarkFailed(ctx context.Context, key, periodID string) error
	ListByIdentityKey(ctx context.Context, key string) ([]domain.AuditReport, error)
}

type auditReportRepository struct {
	pool *pgxpool.Pool
}

// NewAuditReportRepository instantiates the repository.
func NewAuditReportRepository(pool *pgxpool.Pool) AuditReportRepository {
	return &auditReportRepository{pool: pool}
}

const auditColumns = `canonical_identity_key, period_id, status, attempts, content, generated_at, created_at, updated_at`

// EnsurePending creates the report row for (key, period) if absent and returns
// the stored row. Reruns of the same period are no-ops.
func (r *auditReportRepository) EnsurePending(ctx context.Context, key, periodID string) (*domain.AuditReport, error) {
	const insert = `
        INSERT INTO audit_reports (canonical_identity_key, period_id, status)
        VALUES ($1,$2,$3)
        ON CONFLICT (canonical_identity_key, period_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, insert, key, periodID, domain.AuditStatusPending); err != nil {
		return nil, err
	}
	return r.Get(ctx, key, periodID)
}

func (r *auditReportRepository) Get(ctx context.Context, key, periodID string) (*domain.AuditReport, error) {
	const query = `SELECT ` + auditColumns + ` FROM audit_reports WHERE canonical_identity_key=$1 AND period_id=$2`

	var report domain.AuditReport
	if err := r.pool.QueryRow(ctx, query, key, periodID).Scan(
		&report.CanonicalIdentityKey,
		&report.PeriodID,
		&report.Status,
		&report.Attempts,
		&report.Content,
		&report.GeneratedAt,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &report, nil
}

// MarkGenerating advances a pending or failed report and bumps the attempt
// counter. Returns false when the transition is not applicable, which is how
// reruns skip generated reports. A GENERATING row untouched since staleBefore
// is a claim orphaned by a crashed pass and may be reclaimed; a fresh claim
// stays with its owner.
func (r *auditReportRepository) MarkGenerating(ctx context.Context, key, periodID string, staleBefore time.Time) (bool, error) {
	const query = `
        UPDATE audit_reports
        SET status=$3, attempts=attempts+1, updated_at=NOW()
        WHERE canonical_identity_key=$1 AND period_id=$2
          AND (status IN ($4, $5) OR (status=$3 AND updated_at < $6))`

	cmd, err := r.pool.Exec(ctx, query, key, periodID,
		domain.AuditStatusGenerating, domain.AuditStatusPending, domain.AuditStatusFailed,
		staleBefore)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *auditReportRepository) MarkGenerated(ctx context.Context, key, periodID, content string, generatedAt time.Time) error {
	const query = `
        UPDATE audit_reports
        SET status=$3, content=$4, generated_at=$5, updated_at=NOW()
        WHERE canonical_identity_key=$1 AND period_id=$2 AND status=$6`

	cmd, err := r.pool.Exec(ctx, query, key, periodID,
		domain.AuditStatusGenerated, content, generatedAt, domain.AuditStatusGenerating)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *auditReportRepository) MarkFailed(ctx context.Context, key, periodID string) error {
	const query = `
        UPDATE audit_reports
        SET status=$3, updated_at=NOW()
        WHERE canonical_identity_key=$1 AND period_id=$2 AND status=$4`

	cmd, err := r.pool.Exec(ctx, query, key, periodID,
		domain.AuditStatusFailed, domain.AuditStatusGenerating)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *auditReportRepository) ListByIdentityKey(ctx context.Context, key string) ([]domain.AuditReport, error) {
	const query = `
        SELECT ` + auditColumns + `
        FROM audit_reports
        WHERE canonical_identity_key=$1
        ORDER BY period_id DESC`

	rows, err := r.pool.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditReport
	for rows.Next() {
		var report domain.AuditReport
		if err := rows.Scan(
			&report.CanonicalIdentityKey,
			&report.PeriodID,
			&report.Status,
			&report.Attempts,
			&report.Content,
			&report.GeneratedAt,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, rows.Err()
}
