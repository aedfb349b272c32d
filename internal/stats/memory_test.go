package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaplink/internal/entities"
)

func click(slug string, ts time.Time) entities.ClickEvent {
	return entities.ClickEvent{
		Slug:        slug,
		Timestamp:   ts,
		Fingerprint: "fp",
	}
}

func TestMemory_TotalsMatchBuckets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 15, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.Record(ctx, click("abc123", base)))
	}
	require.NoError(t, m.Record(ctx, click("abc123", base.Add(time.Hour))))

	counters, err := m.Query(ctx, "abc123", base.Add(-time.Hour))
	require.NoError(t, err)

	assert.Equal(t, uint64(4), counters.TotalClicks)
	require.Len(t, counters.Buckets, 2)
	assert.Equal(t, uint64(3), counters.Buckets[0].Count)
	assert.Equal(t, uint64(1), counters.Buckets[1].Count)

	var sum uint64
	for _, b := range counters.Buckets {
		sum += b.Count
	}
	assert.Equal(t, counters.TotalClicks, sum)
}

func TestMemory_GlobalCountersTrackAllSlugs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, m.Record(ctx, click("one", base)))
	require.NoError(t, m.Record(ctx, click("two", base)))

	global, err := m.Query(ctx, GlobalSlug, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), global.TotalClicks)
}

func TestMemory_CountersAreMonotone(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	since := base.Add(-time.Hour)

	var prev uint64
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Record(ctx, click("abc123", base.Add(time.Duration(i)*time.Minute))))
		counters, err := m.Query(ctx, "abc123", since)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, counters.TotalClicks, prev)
		prev = counters.TotalClicks
	}
	assert.Equal(t, uint64(10), prev)
}

func TestMemory_ConcurrentRecords(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	const n = 500
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = m.Record(ctx, click("abc123", base))
		}()
	}
	wg.Wait()

	counters, err := m.Query(ctx, "abc123", base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, uint64(n), counters.TotalClicks, "no increments may be lost under concurrency")
}

func TestMemory_TopPerformingOrdering(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// "busy" has the most clicks; "fresh" and "stale" tie on count, with
	// "fresh" more recently active
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Record(ctx, click("busy", base)))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, m.Record(ctx, click("stale", base)))
		require.NoError(t, m.Record(ctx, click("fresh", base.Add(30*time.Minute))))
	}

	top, err := m.TopPerforming(ctx, 10, base.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "busy", top[0].Slug)
	assert.Equal(t, "fresh", top[1].Slug, "ties break by most recent activity")
	assert.Equal(t, "stale", top[2].Slug)
}

func TestMemory_TopPerformingHonorsLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Hour)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for _, slug := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Record(ctx, click(slug, base)))
	}

	top, err := m.TopPerforming(ctx, 2, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, top, 2)
}
