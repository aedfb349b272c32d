package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"snaplink/internal/entities"
	"snaplink/internal/stats"
)

// clickRepository is the Postgres-backed stats store. Raw click events land
// in link_clicks for audit and replay; aggregate queries bucket them by the
// configured granularity so time-series reads scale with buckets requested,
// not with clicks recorded.
type clickRepository struct {
	db     *sql.DB
	bucket time.Duration
}

// NewClickRepository creates a stats store writing to Postgres.
func NewClickRepository(db *sql.DB, bucket time.Duration) stats.Store {
	if bucket <= 0 {
		bucket = time.Hour
	}
	return &clickRepository{db: db, bucket: bucket}
}

// Record persists one click event. Delivery is at-least-once from the click
// recorder; duplicate rows are an accepted approximation.
func (r *clickRepository) Record(ctx context.Context, ev entities.ClickEvent) error {
	query := `
		INSERT INTO link_clicks (slug, clicked_at, fingerprint, referrer)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query, ev.Slug, ev.Timestamp.UTC(), ev.Fingerprint, nullable(ev.Referrer))
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	return nil
}

// Query returns bucketed counters for a slug since the given time. Pass
// stats.GlobalSlug for the service-wide series. Totals are summed from the
// same buckets returned, so total == sum(buckets) always holds.
func (r *clickRepository) Query(ctx context.Context, slug string, since time.Time) (*stats.Counters, error) {
	secs := int64(r.bucket.Seconds())
	query := `
		SELECT to_timestamp(floor(extract(epoch FROM clicked_at) / $1) * $1) AS bucket,
		       COUNT(*),
		       MAX(clicked_at)
		FROM link_clicks
		WHERE ($2 = '' OR slug = $2)
		AND clicked_at >= $3
		GROUP BY bucket
		ORDER BY bucket ASC
	`

	rows, err := r.db.QueryContext(ctx, query, secs, slug, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query click stats: %w", err)
	}
	defer rows.Close()

	out := &stats.Counters{Slug: slug}
	for rows.Next() {
		var b stats.Bucket
		var last time.Time
		if err := rows.Scan(&b.PeriodStart, &b.Count, &last); err != nil {
			return nil, fmt.Errorf("failed to scan click bucket: %w", err)
		}
		b.PeriodStart = b.PeriodStart.UTC()
		out.Buckets = append(out.Buckets, b)
		out.TotalClicks += b.Count
		if last.After(out.LastUpdated) {
			out.LastUpdated = last
		}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating click buckets: %w", err)
	}

	return out, nil
}

// TopPerforming returns the busiest slugs for the window, ordered by count
// descending with ties broken by most recent activity.
func (r *clickRepository) TopPerforming(ctx context.Context, limit int, since time.Time) ([]stats.SlugCount, error) {
	query := `
		SELECT slug, COUNT(*) AS clicks, MAX(clicked_at) AS last_seen
		FROM link_clicks
		WHERE clicked_at >= $1
		GROUP BY slug
		ORDER BY clicks DESC, last_seen DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top slugs: %w", err)
	}
	defer rows.Close()

	var out []stats.SlugCount
	for rows.Next() {
		var row stats.SlugCount
		if err := rows.Scan(&row.Slug, &row.Count, &row.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan top slug: %w", err)
		}
		row.LastSeen = row.LastSeen.UTC()
		out = append(out, row)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top slugs: %w", err)
	}

	return out, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
