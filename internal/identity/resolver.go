package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

const canonicalKeyPrefix = "sid-"

// keyNamespace seeds deterministic key derivation. Deriving from the record id
// means two concurrent resolutions of one staff member mint the identical key,
// so the conditional backfill write can never fork.
var keyNamespace = uuid.MustParse("9f2c1a54-3b77-4de0-9c14-58a0f2d6be71")

// ReferenceCache maps presented staff references to canonical identity keys.
// Entries are invalidated when a staff record is deactivated.
type ReferenceCache interface {
	Get(ctx context.Context, ref string) (string, bool)
	Set(ctx context.Context, ref, key string)
	Invalidate(ctx context.Context, refs ...string)
}

// Resolver maps any acceptable staff reference (record id, email, or canonical
// key) to the single canonical identity key. Resolution is a write-through
// cache with self-healing backfill: records that never had a key get one
// minted and persisted as a side effect.
type Resolver struct {
	staff   repository.StaffRepository
	cache   ReferenceCache
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewResolver constructs the resolver.
func NewResolver(staff repository.StaffRepository, cache ReferenceCache, logger *zap.Logger, metrics *observability.Metrics) *Resolver {
	if cache == nil {
		cache = noopCache{}
	}
	return &Resolver{staff: staff, cache: cache, logger: logger, metrics: metrics}
}

// LooksCanonical reports whether ref already has the canonical key shape.
func LooksCanonical(ref string) bool {
	if !strings.HasPrefix(ref, canonicalKeyPrefix) {
		return false
	}
	_, err := uuid.Parse(strings.TrimPrefix(ref, canonicalKeyPrefix))
	return err == nil
}

// DeriveKey mints the canonical key for a staff record id.
func DeriveKey(recordID string) string {
	return canonicalKeyPrefix + uuid.NewSHA1(keyNamespace, []byte(recordID)).String()
}

// Resolve maps staffRef to the canonical identity key.
//
// Match order, first hit wins: canonical-shaped key of an active record,
// record id, email. When the matched record lacks a stored key one is derived
// and backfilled. Fails with NOT_FOUND when nothing matches and with
// AMBIGUOUS_IDENTITY when more than one active record shares the key.
func (r *Resolver) Resolve(ctx context.Context, staffRef string) (string, error) {
	staffRef = strings.TrimSpace(staffRef)
	if staffRef == "" {
		return "", apperrors.NewValidationError("staff reference required", nil)
	}
	r.metrics.Incr(observability.MetricResolutions)

	if key, ok := r.cache.Get(ctx, staffRef); ok {
		r.metrics.Incr(observability.MetricCacheHits)
		return key, nil
	}

	if LooksCanonical(staffRef) {
		matches, err := r.staff.ListActiveByCanonicalKey(ctx, staffRef)
		if err != nil {
			return "", apperrors.MapError(err)
		}
		switch len(matches) {
		case 0:
			// fall through: the ref may still be a record id that merely
			// resembles a key
		case 1:
			r.cache.Set(ctx, staffRef, staffRef)
			return staffRef, nil
		default:
			return "", ambiguous(staffRef, matches)
		}
	}

	record, err := r.lookup(ctx, staffRef)
	if err != nil {
		return "", err
	}
	if !record.Active {
		r.metrics.Incr(observability.MetricResolutionMisses)
		return "", apperrors.NewNotFound("staff", map[string]any{"staff_ref": staffRef})
	}

	key, err := r.keyFor(ctx, record)
	if err != nil {
		return "", err
	}

	matches, err := r.staff.ListActiveByCanonicalKey(ctx, key)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if len(matches) > 1 {
		return "", ambiguous(key, matches)
	}

	r.cache.Set(ctx, staffRef, key)
	return key, nil
}

// Invalidate drops cached mappings for the given references. Called on staff
// deactivation so a stale key never resolves for an inactive record.
func (r *Resolver) Invalidate(ctx context.Context, refs ...string) {
	r.cache.Invalidate(ctx, refs...)
}

func (r *Resolver) lookup(ctx context.Context, staffRef string) (*domain.StaffRecord, error) {
	record, err := r.staff.GetByRecordID(ctx, staffRef)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	record, err = r.staff.GetByEmail(ctx, staffRef)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	r.metrics.Incr(observability.MetricResolutionMisses)
	return nil, apperrors.NewNotFound("staff", map[string]any{"staff_ref": staffRef})
}

func (r *Resolver) keyFor(ctx context.Context, record *domain.StaffRecord) (string, error) {
	if record.HasCanonicalKey() {
		return *record.CanonicalIdentityKey, nil
	}

	derived := DeriveKey(record.RecordID)
	stored, err := r.staff.BackfillCanonicalKey(ctx, record.RecordID, derived)
	if err != nil {
		return "", apperrors.MapError(err)
	}
	if stored == derived {
		r.metrics.Incr(observability.MetricKeyBackfills)
		r.logger.Info("backfilled canonical identity key",
			zap.String("record_id", record.RecordID),
			zap.String("identity_key", stored))
	}
	return stored, nil
}

func ambiguous(key string, matches []domain.StaffRecord) error {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.RecordID)
	}
	return apperrors.NewAmbiguousIdentity(key, ids)
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (string, bool) { return "", false }
func (noopCache) Set(context.Context, string, string)        {}
func (noopCache) Invalidate(context.Context, ...string)      {}
