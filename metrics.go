package resetkit

import "sync/atomic"

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricTokenIssued counts reset tokens issued.
	MetricTokenIssued MetricID = iota
	// MetricVerifySuccess counts successful token verifications.
	MetricVerifySuccess
	// MetricVerifyFailure counts failed token verifications.
	MetricVerifyFailure
	// MetricDeviceMismatch counts user-agent mismatches during verification.
	MetricDeviceMismatch
	// MetricLocationMismatch counts IP dissimilarities during verification.
	MetricLocationMismatch
	// MetricResetSuccess counts completed password resets.
	MetricResetSuccess
	// MetricResetFailure counts rejected password resets.
	MetricResetFailure
	// MetricPasswordChangeRejected counts rejected password-change validations.
	MetricPasswordChangeRejected
	// MetricRateLimited counts fixed-window rate-limit hits.
	MetricRateLimited
	// MetricBlacklistHit counts revoked tokens caught by the blacklist.
	MetricBlacklistHit
	// MetricBlacklistFailOpen counts blacklist reads answered "not revoked"
	// because the store was unreachable.
	MetricBlacklistFailOpen
	// MetricStoreUnavailable counts operations failed by store outage.
	MetricStoreUnavailable
	// MetricTokenVersionBumped counts per-user token-version increments.
	MetricTokenVersionBumped
	// MetricSessionCreated counts sessions written to the registry.
	MetricSessionCreated
	// MetricSessionInvalidated counts sessions removed from the registry.
	MetricSessionInvalidated
	// MetricSessionTokenStale counts session tokens rejected for an old
	// embedded version.
	MetricSessionTokenStale

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed array of padded atomic counters. Inc is wait-free; a
// disabled Metrics is a no-op.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics set honoring cfg.Enabled.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value returns the current counter value.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
