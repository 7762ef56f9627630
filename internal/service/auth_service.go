package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crewline/staff-sync-service/internal/auth"
	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// IdentityResolver is the slice of the resolver the services need.
type IdentityResolver interface {
	Resolve(ctx context.Context, staffRef string) (string, error)
	Invalidate(ctx context.Context, refs ...string)
}

// AuthService handles the lightweight staff PIN login.
type AuthService struct {
	staff    repository.StaffRepository
	resolver IdentityResolver
	tokens   *auth.TokenManager
}

// NewAuthService creates the service.
func NewAuthService(cfg config.Config, staff repository.StaffRepository, resolver IdentityResolver) *AuthService {
	return &AuthService{
		staff:    staff,
		resolver: resolver,
		tokens:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// LoginResult carries a successful login.
type LoginResult struct {
	Token       string
	ExpiresAt   time.Time
	Staff       *domain.StaffRecord
	IdentityKey string
}

// Login authenticates a staff member by email and PIN and resolves the
// canonical identity key so the client can subscribe immediately.
func (s *AuthService) Login(ctx context.Context, email, pin string) (*LoginResult, error) {
	if email == "" || pin == "" {
		return nil, apperrors.NewValidationError("email and pin required", nil)
	}

	staff, err := s.staff.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("identity not recognized")
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.Active || !auth.VerifyPIN(staff.PINHash, pin) {
		return nil, apperrors.NewUnauthorized("identity not recognized")
	}

	key, err := s.resolver.Resolve(ctx, staff.RecordID)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.tokens.GenerateToken(staff.RecordID, staff.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Staff: staff, IdentityKey: key}, nil
}
