package limiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmit_DeniesSixthRequestInWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l := New(5, 60*time.Second)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		allowed, _ := l.Admit("client-a")
		require.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, retryAfter := l.Admit("client-a")
	assert.False(t, allowed)
	assert.LessOrEqual(t, retryAfter, 60*time.Second)
	assert.Greater(t, retryAfter, time.Duration(0))
}

func TestAdmit_AllowsAgainAfterWindowElapses(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l := New(5, 60*time.Second)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 5; i++ {
		l.Admit("client-a")
	}
	allowed, _ := l.Admit("client-a")
	require.False(t, allowed)

	now = now.Add(61 * time.Second)

	allowed, retryAfter := l.Admit("client-a")
	assert.True(t, allowed)
	assert.Zero(t, retryAfter)
}

func TestAdmit_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute)

	allowed, _ := l.Admit("client-a")
	require.True(t, allowed)
	allowed, _ = l.Admit("client-a")
	require.False(t, allowed)

	// A different client still has budget
	allowed, _ = l.Admit("client-b")
	assert.True(t, allowed)
}

func TestAdmit_ConcurrentBurstNeverOveradmits(t *testing.T) {
	const budget = 50
	l := New(budget, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Admit("burst"); ok {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, budget, admitted)
}

func TestCleanup_ReapsExpiredWindows(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l := New(5, time.Minute)
	l.nowFunc = func() time.Time { return now }

	l.Admit("client-a")
	l.Admit("client-b")
	require.Len(t, l.windows, 2)

	now = now.Add(2 * time.Minute)
	l.cleanup()

	assert.Empty(t, l.windows)
}
