package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// JobRepository handles persistence for job assignments.
type JobRepository interface {
	Create(ctx context.Context, job *domain.JobAssignment) error
	GetByID(ctx context.Context, jobID string) (*domain.JobAssignment, error)
	ListByIdentityKey(ctx context.Context, key string) ([]domain.JobAssignment, error)
	UpdateStatus(ctx context.Context, jobID string, from, to domain.JobStatus) error
}

type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository instantiates the repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

const jobColumns = `job_id, assigned_identity_key, title, location, status, created_at, updated_at`

func (r *jobRepository) Create(ctx context.Context, job *domain.JobAssignment) error {
	const query = `
        INSERT INTO job_assignments (job_id, assigned_identity_key, title, location, status)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		job.JobID,
		job.AssignedIdentityKey,
		job.Title,
		job.Location,
		job.Status,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
}

func (r *jobRepository) GetByID(ctx context.Context, jobID string) (*domain.JobAssignment, error) {
	const query = `SELECT ` + jobColumns + ` FROM job_assignments WHERE job_id=$1`

	var job domain.JobAssignment
	if err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&job.JobID,
		&job.AssignedIdentityKey,
		&job.Title,
		&job.Location,
		&job.Status,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *jobRepository) ListByIdentityKey(ctx context.Context, key string) ([]domain.JobAssignment, error) {
	const query = `
        SELECT ` + jobColumns + `
        FROM job_assignments
        WHERE assigned_identity_key=$1
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.JobAssignment
	for rows.Next() {
		var job domain.JobAssignment
		if err := rows.Scan(
			&job.JobID,
			&job.AssignedIdentityKey,
			&job.Title,
			&job.Location,
			&job.Status,
			&job.CreatedAt,
			&job.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

// UpdateStatus is a compare-and-set: the row only moves when it still holds
// the status the caller observed. Zero rows affected means the job is gone or
// a concurrent writer got there first; both surface as pgx.ErrNoRows.
func (r *jobRepository) UpdateStatus(ctx context.Context, jobID string, from, to domain.JobStatus) error {
	const query = `UPDATE job_assignments SET status=$1, updated_at=NOW() WHERE job_id=$2 AND status=$3`

	cmd, err := r.pool.Exec(ctx, query, to, jobID, from)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
