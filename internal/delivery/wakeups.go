package delivery

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const channelPrefix = "notify:"

// RedisWakeups carries write wakeups between the synchronizer and live
// subscriptions over redis pub/sub. Publishing is best effort: a missed
// wakeup only delays delivery until the next poll tick.
type RedisWakeups struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisWakeups constructs the pub/sub bridge.
func NewRedisWakeups(client *redis.Client, logger *zap.Logger) *RedisWakeups {
	return &RedisWakeups{client: client, logger: logger}
}

// NotifyWrite signals subscribers of one identity's stream.
func (w *RedisWakeups) NotifyWrite(ctx context.Context, key string) {
	if err := w.client.Publish(ctx, channelPrefix+key, "1").Err(); err != nil {
		w.logger.Debug("wakeup publish failed", zap.String("identity_key", key), zap.Error(err))
	}
}

// Listen subscribes to wakeups for one identity. Signals are coalesced: the
// returned channel holds at most one pending wakeup. The stop function tears
// the subscription down.
func (w *RedisWakeups) Listen(ctx context.Context, key string) (<-chan struct{}, func()) {
	pubsub := w.client.Subscribe(ctx, channelPrefix+key)
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		for range pubsub.Channel() {
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()

	stop := func() {
		_ = pubsub.Close()
	}
	return out, stop
}
