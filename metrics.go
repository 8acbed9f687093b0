package authchain

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one engine counter.
type MetricID uint16

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricLogout
	MetricLogoutFailure
	MetricSecretKeySuccess
	MetricSecretKeyFailure
	MetricSessionCreated
	MetricSessionRotated
	MetricSessionExpired
	MetricSessionRevoked
	MetricRevokedTokenRejected
	MetricIssueFailure
	MetricVerifyTimeout
	// MetricVerifyLatency is the only histogram.
	MetricVerifyLatency
	metricIDCount
)

const (
	// HistogramBuckets is the number of latency buckets; see BucketBounds.
	HistogramBuckets = 8
	cacheLineSize    = 64
)

// BucketBounds are the inclusive upper bounds of the latency buckets. The
// last bucket is unbounded.
var BucketBounds = [HistogramBuckets - 1]time.Duration{
	time.Millisecond,
	2 * time.Millisecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	100 * time.Millisecond,
	500 * time.Millisecond,
}

type paddedCounter struct {
	value atomic.Uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus one latency histogram.
// A nil or disabled *Metrics ignores writes.
type Metrics struct {
	enabled  bool
	latency  bool
	counters [metricIDCount]paddedCounter
	buckets  [HistogramBuckets]atomic.Uint64
}

// MetricsSnapshot is a point-in-time copy of all values.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
	// Latency holds per-bucket (non-cumulative) counts, or nil when
	// latency histograms are disabled.
	Latency []uint64
}

// NewMetrics allocates counters; a disabled config yields no-op updates.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
		latency: cfg.Enabled && cfg.LatencyHistograms,
	}
}

// Inc adds one to the counter id. Safe on a nil receiver.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].value.Add(1)
}

// Observe records a verification latency.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.latency || id != MetricVerifyLatency {
		return
	}
	m.buckets[bucketIndex(d)].Add(1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return m.counters[id].value.Load()
}

// Snapshot copies every counter and the latency histogram.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	if m == nil || !m.enabled {
		return s
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricVerifyLatency {
			continue
		}
		s.Counters[id] = m.counters[id].value.Load()
	}
	if m.latency {
		s.Latency = make([]uint64, HistogramBuckets)
		for i := range m.buckets {
			s.Latency[i] = m.buckets[i].Load()
		}
	}
	return s
}

func bucketIndex(d time.Duration) int {
	for i, bound := range BucketBounds {
		if d <= bound {
			return i
		}
	}
	return HistogramBuckets - 1
}
