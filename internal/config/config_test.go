package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "staff-sync-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.Sync.OpTimeout())
	assert.Equal(t, "0 0 6 * * 1", cfg.Audit.CronSpec)
	assert.Equal(t, 3, cfg.Audit.MaxAttempts)
	assert.Equal(t, 30*time.Minute, cfg.Audit.StaleClaimAfter())
	assert.Equal(t, time.Hour, cfg.Resolver.CacheTTL())
	assert.Equal(t, 30*time.Second, cfg.Delivery.PollInterval())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SYNC_MAX_ATTEMPTS", "5")
	t.Setenv("SYNC_OP_TIMEOUT_SECONDS", "2")
	t.Setenv("AUDIT_CRON_SPEC", "0 30 5 * * 2")
	t.Setenv("AUDIT_GENERATOR_URL", "http://generator:8000/generate")
	t.Setenv("RESOLVER_CACHE_TTL_MINUTES", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sync.OpTimeout())
	assert.Equal(t, "0 30 5 * * 2", cfg.Audit.CronSpec)
	assert.Equal(t, "http://generator:8000/generate", cfg.Audit.GeneratorURL)
	assert.Equal(t, 5*time.Minute, cfg.Resolver.CacheTTL())
}

func TestLoadRejectsInvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestDurationHelpersFallBackWhenUnset(t *testing.T) {
	assert.Equal(t, 5*time.Second, SyncConfig{}.OpTimeout())
	assert.Equal(t, 100*time.Millisecond, SyncConfig{}.BackoffBase())
	assert.Equal(t, 60*time.Second, AuditConfig{}.GenTimeout())
	assert.Equal(t, 30*time.Minute, AuditConfig{}.StaleClaimAfter())
	assert.Equal(t, time.Hour, ResolverConfig{}.CacheTTL())
	assert.Equal(t, 30*time.Second, DeliveryConfig{}.PollInterval())
	assert.Equal(t, time.Duration(0), AppConfig{}.RequestTimeout())
}
