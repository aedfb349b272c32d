// Package limiter provides admission control for one route class. Each route
// class (public redirects, API paths) gets its own Limiter instance with its
// own window size and budget, so policies differ without branching in the
// hot path.
package limiter

import (
	"sync"
	"time"
)

// Limiter counts requests per client identity in fixed windows. A client's
// first request opens a window; once MaxRequests is reached, further requests
// are denied until the window rolls over. Window updates are mutually
// exclusive per limiter so concurrent bursts cannot undercount.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	max     int
	size    time.Duration
	nowFunc func() time.Time
}

// window is ephemeral per-client state; stale windows are reaped by the
// cleanup loop and are never persisted.
type window struct {
	count int
	start time.Time
}

// New creates a limiter allowing max requests per size window per client key.
func New(max int, size time.Duration) *Limiter {
	if max <= 0 {
		max = 60
	}
	if size <= 0 {
		size = time.Minute
	}
	return &Limiter{
		windows: make(map[string]*window),
		max:     max,
		size:    size,
		nowFunc: time.Now,
	}
}

// Admit decides whether the request identified by key may proceed. When
// denied, retryAfter is the time until the client's window resets, never
// longer than the window size.
func (l *Limiter) Admit(key string) (allowed bool, retryAfter time.Duration) {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.size {
		l.windows[key] = &window{count: 1, start: now}
		return true, 0
	}

	if w.count < l.max {
		w.count++
		return true, 0
	}

	retryAfter = w.start.Add(l.size).Sub(now)
	if retryAfter < time.Second {
		retryAfter = time.Second
	}
	return false, retryAfter
}

// CleanupLoop reaps expired windows until stop is closed. Run it in its own
// goroutine to keep the windows map from growing with one-off clients.
func (l *Limiter) CleanupLoop(stop <-chan struct{}) {
	t := time.NewTicker(5 * time.Minute)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			l.cleanup()
		case <-stop:
			return
		}
	}
}

func (l *Limiter) cleanup() {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, w := range l.windows {
		if now.Sub(w.start) >= l.size {
			delete(l.windows, key)
		}
	}
}
