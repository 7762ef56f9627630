package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Resolver ResolverConfig
	Sync     SyncConfig
	Audit    AuditConfig
	Delivery DeliveryConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// ResolverConfig tunes the identity resolver cache.
type ResolverConfig struct {
	CacheTTLMinutes int
}

// SyncConfig tunes collection synchronizer timeouts and retries.
type SyncConfig struct {
	OpTimeoutSeconds  int
	MaxAttempts       int
	BackoffBaseMillis int
}

// AuditConfig tunes the background audit scheduler.
type AuditConfig struct {
	CronSpec           string
	MaxAttempts        int
	GenTimeoutSeconds  int
	SummaryJobLimit    int
	RetryBackoffMillis int
	StaleClaimMinutes  int
	GeneratorURL       string
}

// DeliveryConfig tunes the notification delivery pipeline.
type DeliveryConfig struct {
	PollIntervalSeconds int
	RetryBaseMillis     int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "staff-sync-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 480),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
		},
		Resolver: ResolverConfig{
			CacheTTLMinutes: getEnvAsInt("RESOLVER_CACHE_TTL_MINUTES", 60),
		},
		Sync: SyncConfig{
			OpTimeoutSeconds:  getEnvAsInt("SYNC_OP_TIMEOUT_SECONDS", 5),
			MaxAttempts:       getEnvAsInt("SYNC_MAX_ATTEMPTS", 3),
			BackoffBaseMillis: getEnvAsInt("SYNC_BACKOFF_BASE_MILLIS", 100),
		},
		Audit: AuditConfig{
			// second minute hour day month weekday: Mondays 06:00
			CronSpec:           getEnv("AUDIT_CRON_SPEC", "0 0 6 * * 1"),
			MaxAttempts:        getEnvAsInt("AUDIT_MAX_ATTEMPTS", 3),
			GenTimeoutSeconds:  getEnvAsInt("AUDIT_GEN_TIMEOUT_SECONDS", 60),
			SummaryJobLimit:    getEnvAsInt("AUDIT_SUMMARY_JOB_LIMIT", 200),
			RetryBackoffMillis: getEnvAsInt("AUDIT_RETRY_BACKOFF_MILLIS", 250),
			StaleClaimMinutes:  getEnvAsInt("AUDIT_STALE_CLAIM_MINUTES", 30),
			GeneratorURL:       os.Getenv("AUDIT_GENERATOR_URL"),
		},
		Delivery: DeliveryConfig{
			PollIntervalSeconds: getEnvAsInt("DELIVERY_POLL_INTERVAL_SECONDS", 30),
			RetryBaseMillis:     getEnvAsInt("DELIVERY_RETRY_BASE_MILLIS", 200),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// OpTimeout returns the per-operation store deadline.
func (s SyncConfig) OpTimeout() time.Duration {
	if s.OpTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.OpTimeoutSeconds) * time.Second
}

// BackoffBase returns the retry backoff base interval.
func (s SyncConfig) BackoffBase() time.Duration {
	if s.BackoffBaseMillis <= 0 {
		return 100 * time.Millisecond
	}
	return time.Duration(s.BackoffBaseMillis) * time.Millisecond
}

// StaleClaimAfter returns how long a GENERATING claim may sit untouched
// before another pass is allowed to reclaim it.
func (a AuditConfig) StaleClaimAfter() time.Duration {
	if a.StaleClaimMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(a.StaleClaimMinutes) * time.Minute
}

// GenTimeout returns the per-staff generation deadline.
func (a AuditConfig) GenTimeout() time.Duration {
	if a.GenTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(a.GenTimeoutSeconds) * time.Second
}

// CacheTTL returns the resolver cache entry lifetime.
func (r ResolverConfig) CacheTTL() time.Duration {
	if r.CacheTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(r.CacheTTLMinutes) * time.Minute
}

// PollInterval returns the delivery poll fallback interval.
func (d DeliveryConfig) PollInterval() time.Duration {
	if d.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.PollIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
