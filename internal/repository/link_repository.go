package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"snaplink/internal/apperr"
	"snaplink/internal/entities"
)

// LinkRepository defines the interface for link database operations. It is
// the source of truth for slug resolution; caches hold copies, never
// authoritative state.
type LinkRepository interface {
	Create(ctx context.Context, slug, targetURL string, ownerID *string, expiresAt *time.Time) (*entities.Link, error)
	FindBySlug(ctx context.Context, slug string) (*entities.Link, error)
	Deactivate(ctx context.Context, slug string, ownerID *string) error
	UpdateTarget(ctx context.Context, slug string, ownerID *string, targetURL string) error
	GetByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error)
}

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new link repository backed by Postgres
func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

// Create inserts a new link. The row is durable before success is returned.
func (r *linkRepository) Create(ctx context.Context, slug, targetURL string, ownerID *string, expiresAt *time.Time) (*entities.Link, error) {
	// Store expirations in UTC
	var expiresAtValue interface{}
	if expiresAt != nil {
		expiresAtValue = expiresAt.UTC()
	}

	query := `
		INSERT INTO links (slug, target_url, owner_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, slug, target_url, owner_id, active, created_at, expires_at
	`

	var link entities.Link
	err := r.db.QueryRowContext(ctx, query, slug, targetURL, ownerID, expiresAtValue).Scan(
		&link.ID,
		&link.Slug,
		&link.TargetURL,
		&link.OwnerID,
		&link.Active,
		&link.CreatedAt,
		&link.ExpiresAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperr.ErrConflict
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	return &link, nil
}

// FindBySlug finds a link by slug. Expired and deactivated rows are returned
// as-is; callers decide how to present them.
func (r *linkRepository) FindBySlug(ctx context.Context, slug string) (*entities.Link, error) {
	query := `
		SELECT id, slug, target_url, owner_id, active, created_at, expires_at
		FROM links
		WHERE slug = $1
	`

	var link entities.Link
	err := r.db.QueryRowContext(ctx, query, slug).Scan(
		&link.ID,
		&link.Slug,
		&link.TargetURL,
		&link.OwnerID,
		&link.Active,
		&link.CreatedAt,
		&link.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}

	return &link, nil
}

// Deactivate marks a link inactive. If ownerID is provided the link must
// belong to that owner.
func (r *linkRepository) Deactivate(ctx context.Context, slug string, ownerID *string) error {
	var query string
	var args []interface{}

	if ownerID != nil {
		query = `UPDATE links SET active = FALSE WHERE slug = $1 AND owner_id = $2`
		args = []interface{}{slug, *ownerID}
	} else {
		query = `UPDATE links SET active = FALSE WHERE slug = $1`
		args = []interface{}{slug}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.missOrForbidden(ctx, slug)
	}

	return nil
}

// UpdateTarget changes where a link points. Same ownership rules as
// Deactivate.
func (r *linkRepository) UpdateTarget(ctx context.Context, slug string, ownerID *string, targetURL string) error {
	var query string
	var args []interface{}

	if ownerID != nil {
		query = `UPDATE links SET target_url = $1 WHERE slug = $2 AND owner_id = $3`
		args = []interface{}{targetURL, slug, *ownerID}
	} else {
		query = `UPDATE links SET target_url = $1 WHERE slug = $2`
		args = []interface{}{targetURL, slug}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return r.missOrForbidden(ctx, slug)
	}

	return nil
}

// GetByOwner retrieves all links for a specific owner
func (r *linkRepository) GetByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error) {
	query := `
		SELECT id, slug, target_url, owner_id, active, created_at, expires_at
		FROM links
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	defer rows.Close()

	var links []*entities.Link
	for rows.Next() {
		var link entities.Link
		err := rows.Scan(
			&link.ID,
			&link.Slug,
			&link.TargetURL,
			&link.OwnerID,
			&link.Active,
			&link.CreatedAt,
			&link.ExpiresAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &link)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

// missOrForbidden disambiguates a zero-row mutation: unknown slug versus a
// slug owned by somebody else.
func (r *linkRepository) missOrForbidden(ctx context.Context, slug string) error {
	if _, err := r.FindBySlug(ctx, slug); err != nil {
		return err
	}
	return apperr.ErrForbidden
}
