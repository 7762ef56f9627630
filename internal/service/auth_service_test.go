package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewline/staff-sync-service/internal/auth"
	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

type staffByEmail struct {
	records map[string]*domain.StaffRecord
}

func (s *staffByEmail) Create(context.Context, *domain.StaffRecord) error { return nil }
func (s *staffByEmail) Update(context.Context, *domain.StaffRecord) error { return nil }
func (s *staffByEmail) GetByRecordID(_ context.Context, recordID string) (*domain.StaffRecord, error) {
	for _, r := range s.records {
		if r.RecordID == recordID {
			return r, nil
		}
	}
	return nil, pgx.ErrNoRows
}
func (s *staffByEmail) GetByEmail(_ context.Context, email string) (*domain.StaffRecord, error) {
	if r, ok := s.records[email]; ok {
		return r, nil
	}
	return nil, pgx.ErrNoRows
}
func (s *staffByEmail) ListActiveByCanonicalKey(context.Context, string) ([]domain.StaffRecord, error) {
	return nil, nil
}
func (s *staffByEmail) ListActive(context.Context) ([]domain.StaffRecord, error) { return nil, nil }
func (s *staffByEmail) BackfillCanonicalKey(context.Context, string, string) (string, error) {
	return "", pgx.ErrNoRows
}
func (s *staffByEmail) Deactivate(context.Context, string) error { return nil }

func newAuthFixture(t *testing.T) (*AuthService, *staffByEmail) {
	t.Helper()
	pinHash, err := auth.HashPIN("4821", bcrypt.MinCost)
	require.NoError(t, err)

	repo := &staffByEmail{records: map[string]*domain.StaffRecord{
		"ana@example.com": {
			RecordID: "rec-1",
			Name:     "Ana",
			Email:    "ana@example.com",
			PINHash:  pinHash,
			Role:     domain.StaffRoleCleaner,
			Active:   true,
		},
	}}
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60}}
	return NewAuthService(cfg, repo, staticResolver{"rec-1": "sid-k1"}), repo
}

func TestLoginIssuesTokenAndIdentityKey(t *testing.T) {
	svc, _ := newAuthFixture(t)

	result, err := svc.Login(context.Background(), "ana@example.com", "4821")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "sid-k1", result.IdentityKey)
	assert.Equal(t, "rec-1", result.Staff.RecordID)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, "rec-1", claims.RecordID)
	assert.Equal(t, domain.StaffRoleCleaner, claims.Role)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	_, wrongPIN := svc.Login(ctx, "ana@example.com", "9999")
	_, unknownEmail := svc.Login(ctx, "ghost@example.com", "4821")

	require.Error(t, wrongPIN)
	require.Error(t, unknownEmail)
	assert.Equal(t, wrongPIN.Error(), unknownEmail.Error(), "no account enumeration via error text")
	assert.True(t, apperrors.HasCode(wrongPIN, "UNAUTHORIZED"))
	assert.True(t, apperrors.HasCode(unknownEmail, "UNAUTHORIZED"))

	repo.records["ana@example.com"].Active = false
	_, deactivated := svc.Login(ctx, "ana@example.com", "4821")
	require.Error(t, deactivated)
	assert.True(t, apperrors.HasCode(deactivated, "UNAUTHORIZED"))
}

func TestLoginValidation(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), "", "")
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}
