package clicks_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaplink/internal/clicks"
	"snaplink/internal/entities"
	"snaplink/internal/metrics"
	"snaplink/internal/stats"
)

func event(slug string) entities.ClickEvent {
	return entities.ClickEvent{
		Slug:        slug,
		Timestamp:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		Fingerprint: "fp",
	}
}

func drain(t *testing.T, r *clicks.Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Close(ctx))
}

func TestRecorder_ConcurrentRecordsAllLand(t *testing.T) {
	sink := stats.NewMemory(time.Hour)
	m := metrics.New()
	r := clicks.NewRecorder(sink, m, 1024, 3, time.Millisecond)
	r.Start()

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.True(t, r.Record(event("abc123")))
		}()
	}
	wg.Wait()
	drain(t, r)

	counters, err := sink.Query(context.Background(), "abc123", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, uint64(n), counters.TotalClicks, "queue drain must deliver every accepted event")
	assert.Equal(t, int64(n), m.EventsRecorded.Load())
	assert.Zero(t, m.EventsDropped.Load())
}

// failingSink always rejects deliveries.
type failingSink struct{}

func (failingSink) Record(context.Context, entities.ClickEvent) error {
	return errors.New("sink unavailable")
}
func (failingSink) Query(context.Context, string, time.Time) (*stats.Counters, error) {
	return &stats.Counters{}, nil
}
func (failingSink) TopPerforming(context.Context, int, time.Time) ([]stats.SlugCount, error) {
	return nil, nil
}

func TestRecorder_DropsAfterRetryBudget(t *testing.T) {
	m := metrics.New()
	r := clicks.NewRecorder(failingSink{}, m, 16, 2, time.Millisecond)
	r.Start()

	require.True(t, r.Record(event("abc123")))
	drain(t, r)

	assert.Equal(t, int64(1), m.EventsDropped.Load())
	assert.Equal(t, int64(2), m.EventsRetried.Load())
	assert.Zero(t, m.EventsRecorded.Load())
}

// blockingSink parks deliveries until released, so tests can saturate the
// queue deterministically.
type blockingSink struct {
	inner   *stats.Memory
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Record(ctx context.Context, ev entities.ClickEvent) error {
	s.entered <- struct{}{}
	<-s.release
	return s.inner.Record(ctx, ev)
}
func (s *blockingSink) Query(ctx context.Context, slug string, since time.Time) (*stats.Counters, error) {
	return s.inner.Query(ctx, slug, since)
}
func (s *blockingSink) TopPerforming(ctx context.Context, limit int, since time.Time) ([]stats.SlugCount, error) {
	return s.inner.TopPerforming(ctx, limit, since)
}

func TestRecorder_SaturatedQueueDropsWithoutBlocking(t *testing.T) {
	sink := &blockingSink{
		inner:   stats.NewMemory(time.Hour),
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	m := metrics.New()
	r := clicks.NewRecorder(sink, m, 1, 0, time.Millisecond)
	r.Start()

	// First event is picked up by the consumer and parks in the sink
	require.True(t, r.Record(event("one")))
	<-sink.entered

	// Second event fills the queue; third must be dropped immediately
	require.True(t, r.Record(event("two")))
	assert.False(t, r.Record(event("three")))
	assert.Equal(t, int64(1), m.EventsDropped.Load())

	close(sink.release)
	drain(t, r)

	assert.Equal(t, int64(2), m.EventsRecorded.Load())
}
