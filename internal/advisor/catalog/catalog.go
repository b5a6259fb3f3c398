// Package catalog supplies the list of available DX tools with
// descriptions used to enrich system prompts.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	errx "github.com/dx-advisor/server/internal/core/error"
	logx "github.com/dx-advisor/server/pkg/logger"
)

// Entry is one catalog row.
type Entry struct {
	Name        string `json:"tool_name"`
	Description string `json:"description"`
}

// Fetcher retrieves the tool catalog. The catalog is read-only and safe
// to share across sessions.
type Fetcher interface {
	Fetch(ctx context.Context) ([]Entry, error)
}

// RedisCatalog reads the catalog from a Redis hash of name → description.
type RedisCatalog struct {
	rdb redis.Cmdable
	key string
}

func NewRedisCatalog(rdb redis.Cmdable, key string) *RedisCatalog {
	return &RedisCatalog{rdb: rdb, key: key}
}

// Fetch loads and sorts the catalog. An empty or missing catalog is an
// error: a recommendation must never be built on an empty tool list.
func (c *RedisCatalog) Fetch(ctx context.Context) ([]Entry, error) {
	rows, err := c.rdb.HGetAll(ctx, c.key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", c.key).Msg("failed to load tool catalog from redis")
		return nil, errx.Catalog(errx.WrapRedis(err))
	}
	if len(rows) == 0 {
		return nil, errx.Catalog(fmt.Errorf("catalog key %q is empty", c.key))
	}

	entries := make([]Entry, 0, len(rows))
	for name, desc := range rows {
		entries = append(entries, Entry{Name: name, Description: desc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

var _ Fetcher = (*RedisCatalog)(nil)
