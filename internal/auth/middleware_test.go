package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewline/staff-sync-service/internal/domain"
)

// staffByRecord serves one staff record and captures the context the lookup
// ran under.
type staffByRecord struct {
	record    *domain.StaffRecord
	lookupCtx context.Context
}

func (s *staffByRecord) Create(context.Context, *domain.StaffRecord) error { return nil }
func (s *staffByRecord) Update(context.Context, *domain.StaffRecord) error { return nil }
func (s *staffByRecord) GetByRecordID(ctx context.Context, recordID string) (*domain.StaffRecord, error) {
	s.lookupCtx = ctx
	if s.record == nil || s.record.RecordID != recordID {
		return nil, pgx.ErrNoRows
	}
	copied := *s.record
	return &copied, nil
}
func (s *staffByRecord) GetByEmail(context.Context, string) (*domain.StaffRecord, error) {
	return nil, pgx.ErrNoRows
}
func (s *staffByRecord) ListActiveByCanonicalKey(context.Context, string) ([]domain.StaffRecord, error) {
	return nil, nil
}
func (s *staffByRecord) ListActive(context.Context) ([]domain.StaffRecord, error) { return nil, nil }
func (s *staffByRecord) BackfillCanonicalKey(context.Context, string, string) (string, error) {
	return "", pgx.ErrNoRows
}
func (s *staffByRecord) Deactivate(context.Context, string) error { return nil }

func newAuthApp(staff *staffByRecord, deadline time.Time) (*fiber.App, *TokenManager) {
	tokens := NewTokenManager("test-secret", 60)
	middleware := NewAuthMiddleware(tokens, staff)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithDeadline(c.UserContext(), deadline)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	app.Use(middleware.Handle)
	app.Get("/me", func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.ErrInternalServerError
		}
		return c.SendStatus(fiber.StatusOK)
	})
	return app, tokens
}

func TestHandleRunsStaffLookupUnderRequestDeadline(t *testing.T) {
	staff := &staffByRecord{record: &domain.StaffRecord{
		RecordID: "rec-1",
		Email:    "rec-1@example.com",
		Role:     domain.StaffRoleCleaner,
		Active:   true,
	}}
	deadline := time.Now().Add(5 * time.Second)
	app, tokens := newAuthApp(staff, deadline)

	token, _, err := tokens.GenerateToken("rec-1", domain.StaffRoleCleaner)
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NotNil(t, staff.lookupCtx)
	got, ok := staff.lookupCtx.Deadline()
	require.True(t, ok, "lookup inherits the request-scoped deadline")
	assert.WithinDuration(t, deadline, got, time.Second)
}

func TestHandleRejectsUnknownAndDeactivatedStaff(t *testing.T) {
	deadline := time.Now().Add(5 * time.Second)

	t.Run("unknown record", func(t *testing.T) {
		app, tokens := newAuthApp(&staffByRecord{}, deadline)
		token, _, err := tokens.GenerateToken("rec-ghost", domain.StaffRoleCleaner)
		require.NoError(t, err)

		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("deactivated record", func(t *testing.T) {
		staff := &staffByRecord{record: &domain.StaffRecord{
			RecordID: "rec-1",
			Role:     domain.StaffRoleCleaner,
			Active:   false,
		}}
		app, tokens := newAuthApp(staff, deadline)
		token, _, err := tokens.GenerateToken("rec-1", domain.StaffRoleCleaner)
		require.NoError(t, err)

		req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.NotEqual(t, fiber.StatusOK, resp.StatusCode)
	})
}
