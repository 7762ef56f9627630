package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/crewline/staff-sync-service/internal/auth"
	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// StaffService manages staff record onboarding and lifecycle. Records are
// never hard-deleted; deactivation flips the active flag and drops the
// resolver's cached references.
type StaffService struct {
	staff      repository.StaffRepository
	resolver   IdentityResolver
	bcryptCost int
}

// NewStaffService constructs the service.
func NewStaffService(cfg config.Config, staff repository.StaffRepository, resolver IdentityResolver) *StaffService {
	return &StaffService{
		staff:      staff,
		resolver:   resolver,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// CreateStaffInput carries onboarding fields.
type CreateStaffInput struct {
	Name  string
	Email string
	PIN   string
	Role  domain.StaffRole
}

// CreateStaff onboards a new staff record.
func (s *StaffService) CreateStaff(ctx context.Context, input CreateStaffInput) (*domain.StaffRecord, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Name == "" || input.Email == "" {
		return nil, apperrors.NewValidationError("name and email required", nil)
	}
	switch input.Role {
	case domain.StaffRoleCleaner, domain.StaffRoleMaintenance, domain.StaffRoleAdmin:
	default:
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": string(input.Role)})
	}

	existing, err := s.staff.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil && existing.Active {
		return nil, apperrors.NewConflict("email already in use", map[string]any{"email": input.Email})
	}

	pinHash, err := auth.HashPIN(input.PIN, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	record := &domain.StaffRecord{
		Name:    input.Name,
		Email:   input.Email,
		PINHash: pinHash,
		Role:    input.Role,
		Active:  true,
	}
	if err := s.staff.Create(ctx, record); err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// GetStaff fetches a record by id.
func (s *StaffService) GetStaff(ctx context.Context, recordID string) (*domain.StaffRecord, error) {
	record, err := s.staff.GetByRecordID(ctx, recordID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"record_id": recordID})
		}
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// ListActiveStaff lists all active records.
func (s *StaffService) ListActiveStaff(ctx context.Context) ([]domain.StaffRecord, error) {
	records, err := s.staff.ListActive(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return records, nil
}

// DeactivateStaff soft-deactivates a record and invalidates every cached
// reference to it, so live resolution never serves the dead identity.
func (s *StaffService) DeactivateStaff(ctx context.Context, recordID string) error {
	record, err := s.GetStaff(ctx, recordID)
	if err != nil {
		return err
	}
	if !record.Active {
		return apperrors.NewConflict("staff already deactivated", map[string]any{"record_id": recordID})
	}

	if err := s.staff.Deactivate(ctx, recordID); err != nil {
		return apperrors.MapError(err)
	}

	refs := []string{record.RecordID, record.Email}
	if record.HasCanonicalKey() {
		refs = append(refs, *record.CanonicalIdentityKey)
	}
	s.resolver.Invalidate(ctx, refs...)
	return nil
}
