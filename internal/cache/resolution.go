package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"snaplink/internal/entities"
)

// Resolution is the in-process read-through cache on the redirect hot path.
// It is bounded: entries fall out by LRU eviction or TTL expiry, whichever
// triggers first. Not-found results are cached too, with a shorter TTL, so
// slug-guessing traffic does not hammer the store.
//
// An optional shared Cache (Redis) sits behind it; local fills and
// invalidations are written through so multiple instances stay warm and
// consistent.
type Resolution struct {
	mu      sync.Mutex
	ll      *list.List // front = most recently used
	items   map[string]*list.Element
	size    int
	ttl     time.Duration
	negTTL  time.Duration
	shared  Cache // may be nil
	nowFunc func() time.Time
}

// entry with a nil link marks a cached negative result.
type entry struct {
	slug      string
	link      *entities.Link
	expiresAt time.Time
}

const sharedKeyPrefix = "link:"

// NewResolution creates a resolution cache holding at most size entries.
// shared may be nil when no Redis layer is configured.
func NewResolution(size int, ttl, negTTL time.Duration, shared Cache) *Resolution {
	if size <= 0 {
		size = 1024
	}
	return &Resolution{
		ll:      list.New(),
		items:   make(map[string]*list.Element, size),
		size:    size,
		ttl:     ttl,
		negTTL:  negTTL,
		shared:  shared,
		nowFunc: time.Now,
	}
}

// Lookup returns the cached link for slug. hit reports whether the cache had
// an answer at all; a hit with a nil link is a cached not-found.
func (c *Resolution) Lookup(ctx context.Context, slug string) (link *entities.Link, hit bool) {
	c.mu.Lock()
	if el, ok := c.items[slug]; ok {
		e := el.Value.(*entry)
		if c.nowFunc().Before(e.expiresAt) {
			c.ll.MoveToFront(el)
			c.mu.Unlock()
			return e.link, true
		}
		// Expired entry, drop it and fall through to the shared layer
		c.ll.Remove(el)
		delete(c.items, slug)
	}
	c.mu.Unlock()

	if c.shared == nil {
		return nil, false
	}

	var cached entities.Link
	if err := c.shared.GetJSON(ctx, sharedKeyPrefix+slug, &cached); err != nil {
		return nil, false
	}
	c.storeLocal(slug, &cached, c.ttl)
	return &cached, true
}

// Store caches a positive resolution and writes it through to the shared
// layer.
func (c *Resolution) Store(ctx context.Context, link *entities.Link) {
	c.storeLocal(link.Slug, link, c.ttl)
	if c.shared != nil {
		// Best effort; the store stays the source of truth
		_ = c.shared.SetJSON(ctx, sharedKeyPrefix+link.Slug, link, c.ttl)
	}
}

// StoreNegative caches a not-found result with the short negative TTL.
// Negative entries stay process-local: they are cheap to recompute and a
// shared negative could mask a link created on another instance.
func (c *Resolution) StoreNegative(slug string) {
	c.storeLocal(slug, nil, c.negTTL)
}

// Invalidate removes slug from this process and from the shared layer.
// Deactivation and target changes call this; correctness never relies on
// TTL expiry alone.
func (c *Resolution) Invalidate(ctx context.Context, slug string) {
	c.mu.Lock()
	if el, ok := c.items[slug]; ok {
		c.ll.Remove(el)
		delete(c.items, slug)
	}
	c.mu.Unlock()

	if c.shared != nil {
		_ = c.shared.Delete(ctx, sharedKeyPrefix+slug)
	}
}

// Len returns the current number of cached entries.
func (c *Resolution) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Resolution) storeLocal(slug string, link *entities.Link, ttl time.Duration) {
	now := c.nowFunc()
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[slug]; ok {
		e := el.Value.(*entry)
		e.link = link
		e.expiresAt = now.Add(ttl)
		c.ll.MoveToFront(el)
		return
	}

	c.items[slug] = c.ll.PushFront(&entry{slug: slug, link: link, expiresAt: now.Add(ttl)})

	// Evict the least recently used entry once over capacity
	if c.ll.Len() > c.size {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).slug)
		}
	}
}
