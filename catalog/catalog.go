// Package catalog holds the release catalog: platform identifier to the list of
// releases published for it. State lives for the lifetime of the process only.
package catalog

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Catalog is the storage contract shared by the in-memory and SQL backends.
type Catalog interface {
	// ReleasesFor returns a copy of the platform's releases, nil when unknown.
	ReleasesFor(ctx context.Context, platform string) ([]Release, error)
	// AddRelease appends r to the platform's list and returns the stored record.
	// PubDate is always replaced by the registration time.
	AddRelease(ctx context.Context, platform string, r Release) (Release, error)
	// Platforms returns all known platform identifiers, sorted.
	Platforms(ctx context.Context) ([]string, error)
}

// Seeder is implemented by catalogs that can take entries verbatim,
// keeping their publication date.
type Seeder interface {
	SeedRelease(ctx context.Context, platform string, r Release) error
}

// Clock returns the current time.
type Clock func() time.Time

type Option func(*MemoryCatalog)

// WithClock overrides the registration clock.
func WithClock(clock Clock) Option {
	return func(c *MemoryCatalog) {
		c.now = clock
	}
}

// MemoryCatalog is a Catalog guarded by a RWMutex.
type MemoryCatalog struct {
	mu       sync.RWMutex
	releases map[string][]Release
	now      Clock
}

func NewMemoryCatalog(opts ...Option) *MemoryCatalog {
	c := &MemoryCatalog{
		releases: make(map[string][]Release),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *MemoryCatalog) ReleasesFor(_ context.Context, platform string) ([]Release, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.releases[platform]
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]Release, len(list))
	copy(out, list)
	return out, nil
}

func (c *MemoryCatalog) AddRelease(_ context.Context, platform string, r Release) (Release, error) {
	r.PubDate = FormatPubDate(c.now())
	c.mu.Lock()
	c.releases[platform] = append(c.releases[platform], r)
	c.mu.Unlock()
	return r, nil
}

func (c *MemoryCatalog) SeedRelease(_ context.Context, platform string, r Release) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releases[platform] = append(c.releases[platform], r)
	return nil
}

func (c *MemoryCatalog) Platforms(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.releases))
	for name := range c.releases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
