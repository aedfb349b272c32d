package resolver_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snaplink/internal/apperr"
	"snaplink/internal/cache"
	"snaplink/internal/entities"
	"snaplink/internal/metrics"
	"snaplink/internal/resolver"
)

// fakeRepo serves a fixed set of links and counts lookups.
type fakeRepo struct {
	links map[string]*entities.Link
	calls int
	err   error
	block bool
}

func (f *fakeRepo) FindBySlug(ctx context.Context, slug string) (*entities.Link, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	link, ok := f.links[slug]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return link, nil
}

func (f *fakeRepo) Create(context.Context, string, string, *string, *time.Time) (*entities.Link, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeRepo) Deactivate(context.Context, string, *string) error  { return errors.New("not implemented") }
func (f *fakeRepo) UpdateTarget(context.Context, string, *string, string) error {
	return errors.New("not implemented")
}
func (f *fakeRepo) GetByOwner(context.Context, string) ([]*entities.Link, error) {
	return nil, errors.New("not implemented")
}

func newResolver(repo *fakeRepo, lookupTimeout time.Duration) *resolver.Resolver {
	c := cache.NewResolution(64, time.Hour, time.Minute, nil)
	return resolver.New(repo, c, metrics.New(), lookupTimeout)
}

func activeLink(slug string) *entities.Link {
	return &entities.Link{
		ID:        "id-" + slug,
		Slug:      slug,
		TargetURL: "https://example.com/",
		Active:    true,
		CreatedAt: time.Now().Add(-time.Hour),
	}
}

func TestResolve_CacheFillServesSecondLookup(t *testing.T) {
	repo := &fakeRepo{links: map[string]*entities.Link{"abc123": activeLink("abc123")}}
	r := newResolver(repo, time.Second)

	for i := 0; i < 2; i++ {
		link, err := r.Resolve(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/", link.TargetURL)
	}
	assert.Equal(t, 1, repo.calls, "second resolve must be served from cache")
}

func TestResolve_UnknownSlugIsCachedNegatively(t *testing.T) {
	repo := &fakeRepo{links: map[string]*entities.Link{}}
	r := newResolver(repo, time.Second)

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "nosuch1")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	}
	assert.Equal(t, 1, repo.calls, "repeated misses must hit the negative cache")
}

func TestResolve_InactiveAndExpired(t *testing.T) {
	inactive := activeLink("paused1")
	inactive.Active = false

	past := time.Now().Add(-time.Minute)
	expired := activeLink("lapsed1")
	expired.ExpiresAt = &past

	repo := &fakeRepo{links: map[string]*entities.Link{
		"paused1": inactive,
		"lapsed1": expired,
	}}
	r := newResolver(repo, time.Second)

	_, err := r.Resolve(context.Background(), "paused1")
	assert.ErrorIs(t, err, apperr.ErrInactive)
	assert.True(t, apperr.IsNotFound(err), "inactive links present as not found")

	_, err = r.Resolve(context.Background(), "lapsed1")
	assert.ErrorIs(t, err, apperr.ErrExpired)
	assert.True(t, apperr.IsNotFound(err), "expired links present as not found")
}

func TestResolve_StoreFailureIsTransient(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection refused")}
	r := newResolver(repo, time.Second)

	_, err := r.Resolve(context.Background(), "abc123")
	assert.True(t, apperr.IsTransient(err))
	assert.NotErrorIs(t, err, apperr.ErrNotFound, "store failure must not be cached as a miss")
}

func TestResolve_SlowStoreIsBounded(t *testing.T) {
	repo := &fakeRepo{block: true}
	r := newResolver(repo, 50*time.Millisecond)

	start := time.Now()
	_, err := r.Resolve(context.Background(), "abc123")
	assert.True(t, apperr.IsTransient(err))
	assert.Less(t, time.Since(start), time.Second, "lookup must be cut off by the timeout")
}
