package delivery

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crewline/staff-sync-service/internal/config"
	"github.com/crewline/staff-sync-service/internal/domain"
	"github.com/crewline/staff-sync-service/internal/observability"
	"github.com/crewline/staff-sync-service/internal/repository"
	apperrors "github.com/crewline/staff-sync-service/pkg/util"
)

// EventSource reads one identity's ordered notification stream.
type EventSource interface {
	QueryNotificationsFor(ctx context.Context, key string, since *repository.NotificationCursor) ([]domain.NotificationEvent, error)
}

// WakeupListener delivers write wakeups for one identity.
type WakeupListener interface {
	Listen(ctx context.Context, key string) (<-chan struct{}, func())
}

// OnEvents receives batches of newly observed events, in stream order.
type OnEvents func(events []domain.NotificationEvent)

// OnError receives the single fatal fault that ends a subscription.
type OnError func(err error)

// Pipeline layers live subscriptions over the synchronizer's notification
// reads. Per subscription: callbacks are serialized, no event id is delivered
// twice, transient store faults are retried internally with backoff, and only
// a fatal fault reaches OnError, after which the subscription is dead.
type Pipeline struct {
	source  EventSource
	wakeups WakeupListener
	logger  *zap.Logger
	metrics *observability.Metrics
	cfg     config.DeliveryConfig
}

// NewPipeline constructs the pipeline.
func NewPipeline(cfg config.DeliveryConfig, source EventSource, wakeups WakeupListener, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		wakeups: wakeups,
		logger:  logger,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Subscribe starts a live subscription for one canonical identity key and
// returns its unsubscribe handle. Once the handle returns, no further
// onEvents or onError invocation happens; an in-flight delivery is allowed
// to finish first.
func (p *Pipeline) Subscribe(key string, onEvents OnEvents, onError OnError) (func(), error) {
	if key == "" {
		return nil, apperrors.NewValidationError("identity key required", nil)
	}
	if onEvents == nil {
		return nil, apperrors.NewValidationError("onEvents callback required", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		p.run(ctx, key, onEvents, onError)
	}()

	unsubscribe := func() {
		cancel()
		wg.Wait()
	}
	return unsubscribe, nil
}

func (p *Pipeline) run(ctx context.Context, key string, onEvents OnEvents, onError OnError) {
	var wake <-chan struct{}
	if p.wakeups != nil {
		ch, stop := p.wakeups.Listen(ctx, key)
		defer stop()
		wake = ch
	}

	ticker := time.NewTicker(p.cfg.PollInterval())
	defer ticker.Stop()

	sub := &subscription{key: key, seen: make(map[string]struct{})}

	if !p.fetch(ctx, sub, onEvents, onError) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
		}
		if !p.fetch(ctx, sub, onEvents, onError) {
			return
		}
	}
}

// subscription tracks per-subscription delivery state: the stream cursor and
// the lifetime de-duplication set.
type subscription struct {
	key      string
	cursor   *repository.NotificationCursor
	seen     map[string]struct{}
	failures int
}

// fetch pulls events past the cursor and delivers the unseen ones. Returns
// false when the subscription must end.
func (p *Pipeline) fetch(ctx context.Context, sub *subscription, onEvents OnEvents, onError OnError) bool {
	events, err := p.source.QueryNotificationsFor(ctx, sub.key, sub.cursor)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		if isFatal(err) {
			p.logger.Error("subscription ended on fatal fault",
				zap.String("identity_key", sub.key), zap.Error(err))
			if onError != nil {
				onError(err)
			}
			return false
		}
		sub.failures++
		p.logger.Warn("subscription fetch failed; backing off",
			zap.String("identity_key", sub.key),
			zap.Int("failures", sub.failures),
			zap.Error(err))
		return p.backoff(ctx, sub.failures)
	}
	sub.failures = 0

	if len(events) == 0 {
		return true
	}
	// delivery order is created_at asc with event_id tiebreak regardless of
	// how the source returned the batch
	sort.SliceStable(events, func(i, j int) bool {
		return repository.StreamLess(events[i], events[j])
	})
	fresh := events[:0:0]
	for _, event := range events {
		if _, dup := sub.seen[event.EventID]; dup {
			continue
		}
		sub.seen[event.EventID] = struct{}{}
		fresh = append(fresh, event)
	}
	last := repository.After(events[len(events)-1])
	sub.cursor = &last

	if len(fresh) > 0 && ctx.Err() == nil {
		onEvents(fresh)
		p.metrics.Incr(observability.MetricDeliveries)
	}
	return true
}

func (p *Pipeline) backoff(ctx context.Context, failures int) bool {
	shift := failures - 1
	if shift > 5 {
		shift = 5
	}
	base := time.Duration(p.cfg.RetryBaseMillis) * time.Millisecond
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	select {
	case <-time.After(base * (1 << shift)):
		return true
	case <-ctx.Done():
		return false
	}
}

// isFatal classifies faults that end a subscription. Everything else is
// transient and retried without surfacing.
func isFatal(err error) bool {
	for _, code := range []string{"UNAUTHORIZED", "FORBIDDEN", "AMBIGUOUS_IDENTITY", "VALIDATION_FAILED"} {
		if apperrors.HasCode(err, code) {
			return true
		}
	}
	return false
}
