package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// StaffRepository handles persistence for staff records.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffRecord) error
	Update(ctx context.Context, staff *domain.StaffRecord) error
	GetByRecordID(ctx context.Context, recordID string) (*domain.StaffRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.StaffRecord, error)
	ListActiveByCanonicalKey(ctx context.Context, key string) ([]domain.StaffRecord, error)
	ListActive(ctx context.Context) ([]domain.StaffRecord, error)
	BackfillCanonicalKey(ctx context.Context, recordID, key string) (string, error)
	Deactivate(ctx context.Context, recordID string) error
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffColumns = `record_id, canonical_identity_key, name, email, pin_hash, role, active_flag, created_at, updated_at`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffRecord) error {
	const query = `
        INSERT INTO staff_records (canonical_identity_key, name, email, pin_hash, role, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING record_id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		staff.CanonicalIdentityKey,
		staff.Name,
		staff.Email,
		staff.PINHash,
		staff.Role,
		staff.Active,
	).Scan(&staff.RecordID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffRecord) error {
	const query = `
        UPDATE staff_records
        SET canonical_identity_key=$1, name=$2, email=$3, pin_hash=$4, role=$5, active_flag=$6, updated_at=NOW()
        WHERE record_id=$7`

	cmd, err := r.pool.Exec(ctx, query,
		staff.CanonicalIdentityKey,
		staff.Name,
		staff.Email,
		staff.PINHash,
		staff.Role,
		staff.Active,
		staff.RecordID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByRecordID(ctx context.Context, recordID string) (*domain.StaffRecord, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff_records WHERE record_id=$1`
	return r.scanOne(r.pool.QueryRow(ctx, query, recordID))
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*domain.StaffRecord, error) {
	const query = `SELECT ` + staffColumns + ` FROM staff_records WHERE email=$1 ORDER BY active_flag DESC, created_at ASC LIMIT 1`
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *staffRepository) ListActiveByCanonicalKey(ctx context.Context, key string) ([]domain.StaffRecord, error) {
	const query = `
        SELECT ` + staffColumns + `
        FROM staff_records
        WHERE canonical_identity_key=$1 AND active_flag=TRUE
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

func (r *staffRepository) ListActive(ctx context.Context) ([]domain.StaffRecord, error) {
	const query = `
        SELECT ` + staffColumns + `
        FROM staff_records
        WHERE active_flag=TRUE
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanMany(rows)
}

// BackfillCanonicalKey writes key onto a record that lacks one. The write is
// conditional: a key already stored by a concurrent resolver wins, and the
// stored value is returned either way.
func (r *staffRepository) BackfillCanonicalKey(ctx context.Context, recordID, key string) (string, error) {
	const query = `
        UPDATE staff_records
        SET canonical_identity_key = COALESCE(canonical_identity_key, $2), updated_at=NOW()
        WHERE record_id=$1
        RETURNING canonical_identity_key`

	var stored string
	if err := r.pool.QueryRow(ctx, query, recordID, key).Scan(&stored); err != nil {
		return "", err
	}
	return stored, nil
}

func (r *staffRepository) Deactivate(ctx context.Context, recordID string) error {
	const query = `UPDATE staff_records SET active_flag=FALSE, updated_at=NOW() WHERE record_id=$1`

	cmd, err := r.pool.Exec(ctx, query, recordID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) scanOne(row pgx.Row) (*domain.StaffRecord, error) {
	var staff domain.StaffRecord
	if err := row.Scan(
		&staff.RecordID,
		&staff.CanonicalIdentityKey,
		&staff.Name,
		&staff.Email,
		&staff.PINHash,
		&staff.Role,
		&staff.Active,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &staff, nil
}

func (r *staffRepository) scanMany(rows pgx.Rows) ([]domain.StaffRecord, error) {
	var result []domain.StaffRecord
	for rows.Next() {
		var staff domain.StaffRecord
		if err := rows.Scan(
			&staff.RecordID,
			&staff.CanonicalIdentityKey,
			&staff.Name,
			&staff.Email,
			&staff.PINHash,
			&staff.Role,
			&staff.Active,
			&staff.CreatedAt,
			&staff.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, staff)
	}
	return result, rows.Err()
}
