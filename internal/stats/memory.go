package stats

import (
	"context"
	"sort"
	"sync"
	"time"

	"snaplink/internal/entities"
)

// Memory is the in-process stats store used in dev mode and tests. Counters
// are locked per slug, not store-wide, so concurrent increments for different
// slugs never contend.
type Memory struct {
	bucket time.Duration

	mu       sync.RWMutex
	counters map[string]*slugCounter
}

type slugCounter struct {
	mu      sync.Mutex
	total   uint64
	buckets map[int64]uint64 // unix seconds of period start -> count
	last    time.Time
}

// NewMemory creates a memory store with the given bucket granularity.
func NewMemory(bucket time.Duration) *Memory {
	if bucket <= 0 {
		bucket = time.Hour
	}
	return &Memory{
		bucket:   bucket,
		counters: make(map[string]*slugCounter),
	}
}

// Record applies one click to the per-slug and global counters.
func (m *Memory) Record(_ context.Context, ev entities.ClickEvent) error {
	m.counter(ev.Slug).add(ev.Timestamp, m.bucket)
	m.counter(GlobalSlug).add(ev.Timestamp, m.bucket)
	return nil
}

// Query returns counters for slug since the given time. Pass GlobalSlug for
// the service-wide view.
func (m *Memory) Query(_ context.Context, slug string, since time.Time) (*Counters, error) {
	m.mu.RLock()
	c, ok := m.counters[slug]
	m.mu.RUnlock()

	out := &Counters{Slug: slug}
	if !ok {
		return out, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := since.Truncate(m.bucket).Unix()
	starts := make([]int64, 0, len(c.buckets))
	for start := range c.buckets {
		if start >= cutoff {
			starts = append(starts, start)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	for _, start := range starts {
		n := c.buckets[start]
		out.Buckets = append(out.Buckets, Bucket{PeriodStart: time.Unix(start, 0).UTC(), Count: n})
		out.TotalClicks += n
	}
	out.LastUpdated = c.last
	return out, nil
}

// TopPerforming returns up to limit slugs ordered by click count descending,
// ties broken by most recent activity.
func (m *Memory) TopPerforming(_ context.Context, limit int, since time.Time) ([]SlugCount, error) {
	m.mu.RLock()
	slugs := make([]string, 0, len(m.counters))
	for slug := range m.counters {
		if slug != GlobalSlug {
			slugs = append(slugs, slug)
		}
	}
	m.mu.RUnlock()

	cutoff := since.Truncate(m.bucket).Unix()
	rows := make([]SlugCount, 0, len(slugs))
	for _, slug := range slugs {
		m.mu.RLock()
		c := m.counters[slug]
		m.mu.RUnlock()

		c.mu.Lock()
		var n uint64
		for start, count := range c.buckets {
			if start >= cutoff {
				n += count
			}
		}
		last := c.last
		c.mu.Unlock()

		if n > 0 {
			rows = append(rows, SlugCount{Slug: slug, Count: n, LastSeen: last})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].LastSeen.After(rows[j].LastSeen)
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *Memory) counter(slug string) *slugCounter {
	m.mu.RLock()
	c, ok := m.counters[slug]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.counters[slug]; ok {
		return c
	}
	c = &slugCounter{buckets: make(map[int64]uint64)}
	m.counters[slug] = c
	return c
}

func (c *slugCounter) add(ts time.Time, bucket time.Duration) {
	start := ts.Truncate(bucket).Unix()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.total++
	c.buckets[start]++
	if ts.After(c.last) {
		c.last = ts
	}
}
