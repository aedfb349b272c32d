// Package stats maintains rolling click counters consumed by the dashboard.
// Deliveries come from the click recorder at-least-once; increments are
// commutative counter additions, so concurrent consumers need no ordering.
package stats

import (
	"context"
	"time"

	"snaplink/internal/entities"
)

// GlobalSlug is the key under which service-wide counters are kept.
const GlobalSlug = ""

// Bucket is one fixed-size period of the click time series.
type Bucket struct {
	PeriodStart time.Time `json:"period_start"`
	Count       uint64    `json:"count"`
}

// Counters is the aggregate view for one slug (or the global view).
// TotalClicks always equals the sum of the bucket counts for the queried
// window, and never decreases for a fixed window with no deletions.
type Counters struct {
	Slug        string    `json:"slug,omitempty"`
	TotalClicks uint64    `json:"total_clicks"`
	Buckets     []Bucket  `json:"buckets"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
}

// SlugCount is one row of a top-performing query.
type SlugCount struct {
	Slug     string    `json:"slug"`
	Count    uint64    `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// Store defines the aggregate stats operations. Record applies one click
// (persisting the raw event where the backend supports it); Query and
// TopPerforming serve dashboard reads over fixed-size buckets, so their cost
// is proportional to buckets requested, not to events recorded.
type Store interface {
	Record(ctx context.Context, ev entities.ClickEvent) error
	Query(ctx context.Context, slug string, since time.Time) (*Counters, error)
	TopPerforming(ctx context.Context, limit int, since time.Time) ([]SlugCount, error)
}
