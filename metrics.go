package samunu

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a counter or histogram slot in the in-process
// metrics system.
type MetricID uint16

const (
	// MetricSignInSuccess counts provider-confirmed sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts provider-declined sign-ins.
	MetricSignInFailure
	// MetricSignInUnexpected counts sign-ins lost to transport failures
	// or timeouts.
	MetricSignInUnexpected
	// MetricSignUpSuccess counts provider-confirmed sign-ups.
	MetricSignUpSuccess
	// MetricSignUpFailure counts provider-declined sign-ups.
	MetricSignUpFailure
	// MetricSignUpUnexpected counts sign-ups lost to transport failures
	// or timeouts.
	MetricSignUpUnexpected
	// MetricValidationRejected counts submissions stopped by field
	// validation before any provider round trip.
	MetricValidationRejected
	// MetricSubmissionRejectedInFlight counts Submit calls refused
	// because the form instance already had a submission outstanding.
	MetricSubmissionRejectedInFlight
	// MetricGateAllowed counts protected-page requests with a confirmed
	// session.
	MetricGateAllowed
	// MetricGateRedirected counts protected-page requests redirected to
	// the sign-in page.
	MetricGateRedirected
	// MetricGateError counts session lookups that failed at the
	// provider; the gate fails closed and redirects.
	MetricGateError
	// MetricSubmitLatency is the submit round-trip latency histogram.
	MetricSubmitLatency
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

// Metrics holds lock-free counters and the optional submit-latency
// histogram. Counters live in cache-line-padded slots and are updated
// with atomic adds; the write path is allocation-free.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
	latencySumNs  paddedCounter
	latencyCount  paddedCounter
}

// MetricsSnapshot is a point-in-time deep copy of all metrics, consumed
// by the exporters under metrics/export.
type MetricsSnapshot struct {
	Counters      map[MetricID]uint64
	Histograms    map[MetricID][]uint64
	LatencySumNs  uint64
	LatencyCount  uint64
}

// NewMetrics creates a [Metrics] instance. When cfg.Enabled is false
// all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the instance records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records one submit round trip in the latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricSubmitLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
	atomic.AddUint64(&m.latencySumNs.value, uint64(d.Nanoseconds()))
	atomic.AddUint64(&m.latencyCount.value, 1)
}

// Value returns the current value of the counter for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies all counters and histogram buckets.
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
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSubmitLatency].buckets[i])
		}
		s.Histograms[MetricSubmitLatency] = buckets
		s.LatencySumNs = atomic.LoadUint64(&m.latencySumNs.value)
		s.LatencyCount = atomic.LoadUint64(&m.latencyCount.value)
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
