package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaplink/internal/entities"
)

func testLink(slug string) *entities.Link {
	return &entities.Link{
		ID:        "id-" + slug,
		Slug:      slug,
		TargetURL: "https://example.com/" + slug,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
}

func TestResolution_StoreAndLookup(t *testing.T) {
	ctx := context.Background()
	c := NewResolution(10, time.Minute, time.Second, nil)

	_, hit := c.Lookup(ctx, "abc123")
	require.False(t, hit)

	c.Store(ctx, testLink("abc123"))

	link, hit := c.Lookup(ctx, "abc123")
	require.True(t, hit)
	require.NotNil(t, link)
	assert.Equal(t, "https://example.com/abc123", link.TargetURL)
}

func TestResolution_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewResolution(2, time.Minute, time.Second, nil)

	c.Store(ctx, testLink("one"))
	c.Store(ctx, testLink("two"))

	// Touch "one" so "two" becomes the eviction candidate
	_, hit := c.Lookup(ctx, "one")
	require.True(t, hit)

	c.Store(ctx, testLink("three"))

	assert.Equal(t, 2, c.Len())
	_, hit = c.Lookup(ctx, "two")
	assert.False(t, hit, "least recently used entry should be evicted")
	_, hit = c.Lookup(ctx, "one")
	assert.True(t, hit)
	_, hit = c.Lookup(ctx, "three")
	assert.True(t, hit)
}

func TestResolution_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewResolution(10, time.Minute, time.Second, nil)
	c.nowFunc = func() time.Time { return now }

	c.Store(ctx, testLink("abc123"))

	_, hit := c.Lookup(ctx, "abc123")
	require.True(t, hit)

	now = now.Add(2 * time.Minute)

	_, hit = c.Lookup(ctx, "abc123")
	assert.False(t, hit, "entry should expire after its TTL")
}

func TestResolution_NegativeEntries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := NewResolution(10, time.Minute, 30*time.Second, nil)
	c.nowFunc = func() time.Time { return now }

	c.StoreNegative("nope")

	link, hit := c.Lookup(ctx, "nope")
	require.True(t, hit, "negative result should be a cache hit")
	assert.Nil(t, link)

	// Negative entries use the shorter TTL
	now = now.Add(31 * time.Second)
	_, hit = c.Lookup(ctx, "nope")
	assert.False(t, hit)
}

func TestResolution_Invalidate(t *testing.T) {
	ctx := context.Background()
	c := NewResolution(10, time.Minute, time.Second, nil)

	c.Store(ctx, testLink("abc123"))
	c.Invalidate(ctx, "abc123")

	_, hit := c.Lookup(ctx, "abc123")
	assert.False(t, hit, "invalidated entry must not be served")
}
