// Package resolver turns an inbound slug into a destination link: cache
// first, store on a miss, with a hard timeout so a slow store can never hang
// a visitor.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snaplink/internal/apperr"
	"snaplink/internal/cache"
	"snaplink/internal/entities"
	"snaplink/internal/metrics"
	"snaplink/internal/repository"
)

type Resolver struct {
	repo          repository.LinkRepository
	cache         *cache.Resolution
	m             *metrics.Metrics
	lookupTimeout time.Duration
	nowFunc       func() time.Time
}

func New(repo repository.LinkRepository, resolution *cache.Resolution, m *metrics.Metrics, lookupTimeout time.Duration) *Resolver {
	if lookupTimeout <= 0 {
		lookupTimeout = 2 * time.Second
	}
	return &Resolver{
		repo:          repo,
		cache:         resolution,
		m:             m,
		lookupTimeout: lookupTimeout,
		nowFunc:       time.Now,
	}
}

// Resolve returns the link for slug if it may be redirected to. Unknown,
// deactivated and expired slugs all come back as a not-found class error;
// store timeouts surface as ErrTransient, which handlers present as
// not-found rather than leaking internal failure.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*entities.Link, error) {
	if link, hit := r.cache.Lookup(ctx, slug); hit {
		r.m.CacheHits.Add(1)
		if link == nil {
			// Cached negative result
			r.m.NegativeHits.Add(1)
			return nil, apperr.ErrNotFound
		}
		return r.checked(link)
	}
	r.m.CacheMisses.Add(1)

	// Cache miss is the only blocking path; bound it
	lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
	defer cancel()

	link, err := r.repo.FindBySlug(lookupCtx, slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// Negative caching blunts repeated lookups for invalid slugs
			// without fabricating store entries
			r.cache.StoreNegative(slug)
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", apperr.ErrTransient, err)
	}

	r.cache.Store(ctx, link)
	return r.checked(link)
}

func (r *Resolver) checked(link *entities.Link) (*entities.Link, error) {
	now := r.nowFunc()
	if !link.Active {
		return nil, apperr.ErrInactive
	}
	if link.ExpiresAt != nil && !link.ExpiresAt.After(now) {
		return nil, apperr.ErrExpired
	}
	return link, nil
}
