package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// DefaultResultTTL bounds how long a cached scan result is served.
const DefaultResultTTL = 10 * time.Minute

// ResultCache implements domain.ResultCache. Only the latest payload of each
// scan kind is kept.
//
// Key schema:
//
//	scan:latest:{kind} - string holding the JSON scan result
type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewResultCache creates a ResultCache. A non-positive ttl uses
// DefaultResultTTL.
func NewResultCache(c *Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{rdb: c.Underlying(), ttl: ttl}
}

func resultKey(kind string) string { return "scan:latest:" + kind }

// SetLatest replaces the cached result for kind.
func (rc *ResultCache) SetLatest(ctx context.Context, kind string, payload []byte) error {
	if err := rc.rdb.Set(ctx, resultKey(kind), payload, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set latest %s: %w", kind, err)
	}
	return nil
}

// GetLatest returns the cached result for kind, or domain.ErrNotFound when
// nothing fresh is cached.
func (rc *ResultCache) GetLatest(ctx context.Context, kind string) ([]byte, error) {
	data, err := rc.rdb.Get(ctx, resultKey(kind)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get latest %s: %w", kind, err)
	}
	return data, nil
}

// Compile-time interface check.
var _ domain.ResultCache = (*ResultCache)(nil)
