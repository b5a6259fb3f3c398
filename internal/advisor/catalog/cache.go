package catalog

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	logx "github.com/dx-advisor/server/pkg/logger"
)

// Cached memoizes catalog fetches in a size-bounded LRU. The cache lives
// in process memory only, so it starts empty on every boot; eviction is
// least-recently-used once the size budget is hit. Errors are never
// cached.
type Cached struct {
	inner Fetcher
	key   string
	cache *lru.Cache[string, []Entry]
}

// NewCached wraps a fetcher. The key identifies the wrapped fetch call so
// several catalogs can share one cache size budget.
func NewCached(inner Fetcher, key string, size int) (*Cached, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, []Entry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, key: key, cache: cache}, nil
}

func (c *Cached) Fetch(ctx context.Context) ([]Entry, error) {
	if entries, ok := c.cache.Get(c.key); ok {
		logx.Debug().Str("key", c.key).Msg("catalog served from cache")
		return append([]Entry(nil), entries...), nil
	}

	entries, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(c.key, entries)
	return append([]Entry(nil), entries...), nil
}

var _ Fetcher = (*Cached)(nil)
