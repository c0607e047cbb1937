package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"worldfolio/internal/country"
)

const keyPrefix = "catalog:v1:"

// Cached is a read-through Redis cache in front of a Catalog. Country
// records are immutable so a cached answer is always a valid answer. Redis
// failures fall through to the wrapped catalog.
type Cached struct {
	next   Catalog
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with a Redis cache.
func NewCached(next Catalog, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

func cacheKey(op, arg string) string {
	return keyPrefix + op + ":" + strings.ToLower(arg)
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func() (T, error)) (T, error) {
	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.logger.WarnContext(ctx, "discarding undecodable catalog cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "catalog cache read failed", "key", key, "error", err)
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "catalog cache write failed", "key", key, "error", err)
		}
	}
	return v, nil
}

func (c *Cached) ListAll(ctx context.Context) ([]country.Country, error) {
	return readThrough(ctx, c, cacheKey("all", ""), func() ([]country.Country, error) {
		return c.next.ListAll(ctx)
	})
}

func (c *Cached) SearchByName(ctx context.Context, name string) ([]country.Country, error) {
	return readThrough(ctx, c, cacheKey("name", strings.TrimSpace(name)), func() ([]country.Country, error) {
		return c.next.SearchByName(ctx, name)
	})
}

func (c *Cached) FilterByRegion(ctx context.Context, region country.Region) ([]country.Country, error) {
	return readThrough(ctx, c, cacheKey("region", string(region)), func() ([]country.Country, error) {
		return c.next.FilterByRegion(ctx, region)
	})
}

func (c *Cached) FilterByLanguage(ctx context.Context, language string) ([]country.Country, error) {
	return readThrough(ctx, c, cacheKey("lang", strings.TrimSpace(language)), func() ([]country.Country, error) {
		return c.next.FilterByLanguage(ctx, language)
	})
}

func (c *Cached) GetByCode(ctx context.Context, code string) (country.Country, error) {
	return readThrough(ctx, c, cacheKey("alpha", country.NormalizeCode(code)), func() (country.Country, error) {
		return c.next.GetByCode(ctx, code)
	})
}

func (c *Cached) GetManyByCodes(ctx context.Context, codes []string) ([]country.Country, error) {
	if len(codes) == 0 {
		return []country.Country{}, nil
	}
	return readThrough(ctx, c, cacheKey("codes", strings.Join(codes, ",")), func() ([]country.Country, error) {
		return c.next.GetManyByCodes(ctx, codes)
	})
}
