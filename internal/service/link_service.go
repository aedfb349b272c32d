package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"strings"
	"time"

	"snaplink/internal/apperr"
	"snaplink/internal/cache"
	"snaplink/internal/entities"
	"snaplink/internal/models"
	"snaplink/internal/repository"
)

// LinkService defines the interface for link administration. The redirect
// path never goes through here; it reads via the resolver. Mutations funnel
// through this service so every one of them invalidates the resolution cache.
type LinkService interface {
	Create(ctx context.Context, req *models.CreateLinkRequest, ownerID *string) (*entities.Link, error)
	Deactivate(ctx context.Context, slug string, ownerID *string) error
	UpdateTarget(ctx context.Context, slug string, ownerID *string, targetURL string) error
	GetByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error)
}

type linkService struct {
	repo        repository.LinkRepository
	cache       *cache.Resolution
	slugLength  int
	alphabet    string
	maxAttempts int
}

// NewLinkService creates a new link service
func NewLinkService(repo repository.LinkRepository, resolution *cache.Resolution, slugLength int, alphabet string, maxAttempts int) LinkService {
	if slugLength <= 0 {
		slugLength = 7
	}
	if alphabet == "" {
		alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &linkService{
		repo:        repo,
		cache:       resolution,
		slugLength:  slugLength,
		alphabet:    alphabet,
		maxAttempts: maxAttempts,
	}
}

// Reserved slugs that cannot be used
var reservedSlugs = map[string]bool{
	"api":     true,
	"health":  true,
	"metrics": true,
	"links":   true,
	"stats":   true,
	"preview": true,
	"qrcode":  true,
	"admin":   true,
}

var slugRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Create validates the request and persists a new link. Custom slugs get a
// single attempt; generated slugs are retried up to the collision budget
// before giving up with a conflict.
func (s *linkService) Create(ctx context.Context, req *models.CreateLinkRequest, ownerID *string) (*entities.Link, error) {
	if err := validateTargetURL(req.URL); err != nil {
		return nil, err
	}

	// Allow a 2-second buffer to account for network latency and processing time
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now().Add(-2*time.Second)) {
		return nil, fmt.Errorf("%w: expiration time cannot be in the past", apperr.ErrInvalid)
	}

	if req.Slug != nil && *req.Slug != "" {
		custom := strings.TrimSpace(*req.Slug)
		if err := s.validateCustomSlug(custom); err != nil {
			return nil, err
		}
		return s.repo.Create(ctx, custom, req.URL, ownerID, req.ExpiresAt)
	}

	// Generated slugs: regenerate on collision, bounded so worst-case create
	// latency stays predictable
	for i := 0; i < s.maxAttempts; i++ {
		slug, err := s.generateSlug()
		if err != nil {
			return nil, err
		}

		link, err := s.repo.Create(ctx, slug, req.URL, ownerID, req.ExpiresAt)
		if err == nil {
			return link, nil
		}
		if !apperr.IsConflict(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: exhausted %d generation attempts", apperr.ErrConflict, s.maxAttempts)
}

// Deactivate marks a link inactive and drops any warmed cache entry so no
// stale redirect is served afterwards.
func (s *linkService) Deactivate(ctx context.Context, slug string, ownerID *string) error {
	if err := s.repo.Deactivate(ctx, slug, ownerID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, slug)
	return nil
}

// UpdateTarget changes a link's destination and invalidates the cache.
func (s *linkService) UpdateTarget(ctx context.Context, slug string, ownerID *string, targetURL string) error {
	if err := validateTargetURL(targetURL); err != nil {
		return err
	}
	if err := s.repo.UpdateTarget(ctx, slug, ownerID, targetURL); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, slug)
	return nil
}

// GetByOwner retrieves all links for a specific owner
func (s *linkService) GetByOwner(ctx context.Context, ownerID string) ([]*entities.Link, error) {
	return s.repo.GetByOwner(ctx, ownerID)
}

// validateCustomSlug validates a caller-chosen slug
func (s *linkService) validateCustomSlug(slug string) error {
	if len(slug) < 3 {
		return fmt.Errorf("%w: slug must be at least 3 characters long", apperr.ErrInvalid)
	}
	if len(slug) > 20 {
		return fmt.Errorf("%w: slug must be at most 20 characters long", apperr.ErrInvalid)
	}
	if !slugRe.MatchString(slug) {
		return fmt.Errorf("%w: slug can only contain letters, numbers, hyphens, and underscores", apperr.ErrInvalid)
	}
	if reservedSlugs[strings.ToLower(slug)] {
		return fmt.Errorf("%w: slug %q is reserved", apperr.ErrInvalid, slug)
	}
	return nil
}

// generateSlug draws a fixed-length random token from the configured
// alphabet.
func (s *linkService) generateSlug() (string, error) {
	max := big.NewInt(int64(len(s.alphabet)))
	b := make([]byte, s.slugLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random slug: %w", err)
		}
		b[i] = s.alphabet[n.Int64()]
	}
	return string(b), nil
}

func validateTargetURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%w: malformed target URL", apperr.ErrInvalid)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: target URL must use http or https", apperr.ErrInvalid)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: target URL must have a host", apperr.ErrInvalid)
	}
	return nil
}
