package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// CachedCatalogSource is a read-through cache in front of a catalog source.
// The catalog changes rarely and every pipeline run reads it in full, so one
// TTL-bound snapshot per node spares the mapping tables.  Cache failures
// degrade to the underlying source, never to an error.
type CachedCatalogSource struct {
	source catalog.Source
	client *Client
	logger logging.Logger
}

// NewCachedCatalogSource wraps source with the shared Redis client.
func NewCachedCatalogSource(source catalog.Source, client *Client, log logging.Logger) *CachedCatalogSource {
	return &CachedCatalogSource{
		source: source,
		client: client,
		logger: log.Named("catalog_cache"),
	}
}

func (c *CachedCatalogSource) catalogKey() string {
	return c.client.Key("catalog", "snapshot")
}

func (c *CachedCatalogSource) benchmarksKey() string {
	return c.client.Key("catalog", "benchmarks")
}

// LoadCatalog serves the cached snapshot when present, otherwise loads from
// the source and caches the result with the default TTL.
func (c *CachedCatalogSource) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	var cached catalog.Catalog
	if hit := c.read(ctx, c.catalogKey(), &cached); hit {
		return &cached, nil
	}

	cat, err := c.source.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}
	c.write(ctx, c.catalogKey(), cat)
	return cat, nil
}

// LoadBenchmarks serves the cached table when present, otherwise loads from
// the source and caches the result.
func (c *CachedCatalogSource) LoadBenchmarks(ctx context.Context) (*catalog.BenchmarkTable, error) {
	var cached catalog.BenchmarkTable
	if hit := c.read(ctx, c.benchmarksKey(), &cached); hit {
		return &cached, nil
	}

	table, err := c.source.LoadBenchmarks(ctx)
	if err != nil {
		return nil, err
	}
	c.write(ctx, c.benchmarksKey(), table)
	return table, nil
}

// Invalidate drops both cached entries, forcing the next load through to
// the source.  Called after catalog administration changes the tables.
func (c *CachedCatalogSource) Invalidate(ctx context.Context) error {
	if err := c.client.RDB().Del(ctx, c.catalogKey(), c.benchmarksKey()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "invalidating catalog cache")
	}
	return nil
}

func (c *CachedCatalogSource) read(ctx context.Context, key string, target interface{}) bool {
	raw, err := c.client.RDB().Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("catalog cache read failed", logging.String("key", key), logging.Err(err))
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		c.logger.Warn("dropping corrupt catalog cache entry",
			logging.String("key", key), logging.Err(err))
		_ = c.client.RDB().Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *CachedCatalogSource) write(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("encoding catalog cache entry failed", logging.Err(err))
		return
	}
	if err := c.client.RDB().Set(ctx, key, raw, c.client.DefaultTTL()).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", logging.String("key", key), logging.Err(err))
	}
}
