// Package metrics holds the counters the core emits for an external
// collector. Plain atomics: increments happen on the redirect hot path and
// must not contend.
package metrics

import "sync/atomic"

type Metrics struct {
	Admitted       atomic.Int64
	Denied         atomic.Int64
	CacheHits      atomic.Int64
	CacheMisses    atomic.Int64
	NegativeHits   atomic.Int64
	EventsRecorded atomic.Int64
	EventsRetried  atomic.Int64
	EventsDropped  atomic.Int64
	QueueDepth     atomic.Int64
}

func New() *Metrics {
	return &Metrics{}
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"admitted":        m.Admitted.Load(),
		"denied":          m.Denied.Load(),
		"cache_hits":      m.CacheHits.Load(),
		"cache_misses":    m.CacheMisses.Load(),
		"negative_hits":   m.NegativeHits.Load(),
		"events_recorded": m.EventsRecorded.Load(),
		"events_retried":  m.EventsRetried.Load(),
		"events_dropped":  m.EventsDropped.Load(),
		"queue_depth":     m.QueueDepth.Load(),
	}
}
