package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"snaplink/internal/apperr"
	"snaplink/internal/entities"
)

// memoryLinkRepository keeps links in a process-local map. It backs dev mode
// (no DATABASE_URL) and tests; multi-instance deployments need the Postgres
// repository for external consistency.
type memoryLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*entities.Link
}

// NewMemoryLinkRepository creates an in-memory link repository.
func NewMemoryLinkRepository() LinkRepository {
	return &memoryLinkRepository{links: make(map[string]*entities.Link)}
}

func (r *memoryLinkRepository) Create(_ context.Context, slug, targetURL string, ownerID *string, expiresAt *time.Time) (*entities.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.links[slug]; exists {
		return nil, apperr.ErrConflict
	}

	link := &entities.Link{
		ID:        newID(),
		Slug:      slug,
		TargetURL: targetURL,
		OwnerID:   ownerID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	r.links[slug] = link

	copied := *link
	return &copied, nil
}

func (r *memoryLinkRepository) FindBySlug(_ context.Context, slug string) (*entities.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[slug]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	copied := *link
	return &copied, nil
}

func (r *memoryLinkRepository) Deactivate(_ context.Context, slug string, ownerID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[slug]
	if !ok {
		return apperr.ErrNotFound
	}
	if ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID) {
		return apperr.ErrForbidden
	}
	link.Active = false
	return nil
}

func (r *memoryLinkRepository) UpdateTarget(_ context.Context, slug string, ownerID *string, targetURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[slug]
	if !ok {
		return apperr.ErrNotFound
	}
	if ownerID != nil && (link.OwnerID == nil || *link.OwnerID != *ownerID) {
		return apperr.ErrForbidden
	}
	link.TargetURL = targetURL
	return nil
}

func (r *memoryLinkRepository) GetByOwner(_ context.Context, ownerID string) ([]*entities.Link, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var links []*entities.Link
	for _, link := range r.links {
		if link.OwnerID != nil && *link.OwnerID == ownerID {
			copied := *link
			links = append(links, &copied)
		}
	}
	return links, nil
}

func newID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}
