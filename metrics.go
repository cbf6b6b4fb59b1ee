package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one in-process counter.
type MetricID uint16

const (
	// MetricRequestAttempt counts attempts of in-scope requests, retries included.
	MetricRequestAttempt MetricID = iota
	// MetricPassThrough counts requests sent unchanged because they were out of scope.
	MetricPassThrough
	// MetricExpiredResponse counts responses carrying the session-expired status.
	MetricExpiredResponse
	// MetricRetry counts requests replayed after a refresh outcome of RETRY.
	MetricRetry
	// MetricSessionExpired counts requests that ended with a session-expired error.
	MetricSessionExpired
	// MetricTransportError counts attempts that failed without a response.
	MetricTransportError
	// MetricTokenCleanup counts cleanups that removed tokens of a vanished session.
	MetricTokenCleanup
	// MetricRefreshCall counts calls to the refresh endpoint.
	MetricRefreshCall
	// MetricRefreshRetry counts refresh requests that ended with RETRY.
	MetricRefreshRetry
	// MetricRefreshSessionExpired counts refresh requests that ended with SESSION_EXPIRED.
	MetricRefreshSessionExpired
	// MetricRefreshAPIError counts refresh requests that ended with API_ERROR.
	MetricRefreshAPIError
	// MetricRefreshFastPath counts refresh requests answered without a session.
	MetricRefreshFastPath
	// MetricRefreshDeduplicated counts refresh requests satisfied by another caller's
	// refresh.
	MetricRefreshDeduplicated
	// MetricInterceptorInstalled counts http.Clients wrapped by AddInterceptors.
	MetricInterceptorInstalled
	// MetricRequestLatency is the only histogram; it covers whole logical requests.
	MetricRequestLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters. A nil or disabled Metrics records nothing.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of [Metrics].
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics returns counters configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram of id. Only [MetricRequestLatency] has one.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id != MetricRequestLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value returns the current count of id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current values. A disabled Metrics returns empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricRequestLatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := range histBucketCount {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}
	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
