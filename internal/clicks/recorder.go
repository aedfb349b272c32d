// Package clicks implements the asynchronous click-accounting pipeline.
// Accepting an event never blocks the redirect: the queue is bounded and a
// saturated queue drops events (counted) instead of holding request
// goroutines. Redirect latency wins over analytics completeness.
package clicks

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"snaplink/internal/entities"
	"snaplink/internal/metrics"
	"snaplink/internal/stats"
)

const deliverTimeout = 10 * time.Second

// Recorder queues click events and feeds them to the stats store from a
// background consumer. Transient sink failures are retried with bounded
// exponential backoff; after the retry budget the event is dropped and
// counted. A lost click never propagates to the visitor.
type Recorder struct {
	queue     chan entities.ClickEvent
	sink      stats.Store
	m         *metrics.Metrics
	retryMax  int
	retryBase time.Duration
	warnLimit *rate.Limiter // caps drop/failure log volume
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// NewRecorder creates a recorder with a queue of the given capacity. Call
// Start before recording and Close on shutdown.
func NewRecorder(sink stats.Store, m *metrics.Metrics, capacity, retryMax int, retryBase time.Duration) *Recorder {
	if capacity <= 0 {
		capacity = 1024
	}
	if retryBase <= 0 {
		retryBase = 100 * time.Millisecond
	}
	return &Recorder{
		queue:     make(chan entities.ClickEvent, capacity),
		sink:      sink,
		m:         m,
		retryMax:  retryMax,
		retryBase: retryBase,
		warnLimit: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Start launches the background consumer.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.consume()
}

// Record enqueues a click event and returns immediately. It reports false
// when the event was dropped because the queue is saturated.
func (r *Recorder) Record(ev entities.ClickEvent) bool {
	if r.closed.Load() {
		return false
	}

	select {
	case r.queue <- ev:
		r.m.QueueDepth.Add(1)
		return true
	default:
		r.m.EventsDropped.Add(1)
		if r.warnLimit.Allow() {
			log.Printf("Warning: click queue full, dropping event for slug %s", ev.Slug)
		}
		return false
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to
// expire. The HTTP server must be stopped before Close so no Record call
// races the channel close.
func (r *Recorder) Close(ctx context.Context) error {
	if r.closed.Swap(true) {
		return nil
	}
	close(r.queue)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Recorder) consume() {
	defer r.wg.Done()

	for ev := range r.queue {
		r.m.QueueDepth.Add(-1)
		r.deliver(ev)
	}
}

func (r *Recorder) deliver(ev entities.ClickEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	attempt := 0
	backoff := retry.WithMaxRetries(uint64(r.retryMax), retry.NewExponential(r.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if attempt > 0 {
			r.m.EventsRetried.Add(1)
		}
		attempt++
		if err := r.sink.Record(ctx, ev); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	if err != nil {
		r.m.EventsDropped.Add(1)
		if r.warnLimit.Allow() {
			log.Printf("Warning: dropping click for slug %s after %d attempts: %v", ev.Slug, attempt, err)
		}
		return
	}
	r.m.EventsRecorded.Add(1)
}
