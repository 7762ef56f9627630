package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu           sync.Mutex
	requestCount map[string]int64
	errorCount   map[string]int64
	domainCount  map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		domainCount:  make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Counter names recorded by the core components.
const (
	MetricResolutions      = "identity.resolutions"
	MetricResolutionMisses = "identity.resolution_misses"
	MetricCacheHits        = "identity.cache_hits"
	MetricKeyBackfills     = "identity.key_backfills"
	MetricSyncReads        = "sync.reads"
	MetricSyncWrites       = "sync.writes"
	MetricSyncPartial      = "sync.partial_availability"
	MetricSyncRetries      = "sync.retries"
	MetricDeliveries       = "delivery.batches"
	MetricAuditGenerated   = "audit.generated"
	MetricAuditFailed      = "audit.failed"
	MetricAuditSkipped     = "audit.skipped"
	MetricAuditExhausted   = "audit.exhausted"
)

// Incr bumps a named domain counter.
func (m *Metrics) Incr(name string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domainCount[name]++
}

// Count returns the current value of a named domain counter.
func (m *Metrics) Count(name string) int64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.domainCount[name]
}

// Snapshot copies all domain counters for reporting.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.domainCount))
	for k, v := range m.domainCount {
		out[k] = v
	}
	return out
}
