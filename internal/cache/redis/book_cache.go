package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultBookTTL is how long a raw order book stays cached.
const DefaultBookTTL = 5 * time.Second

// BookFetcher is the upstream source of raw order book payloads.
type BookFetcher interface {
	FetchOrderBook(ctx context.Context, tokenID string) ([]byte, error)
}

// BookCache is a read-through cache in front of a BookFetcher. Redis
// failures are logged and fall through to the upstream source.
//
// Key schema:
//
//	book:{tokenID} - string holding the raw order book JSON
type BookCache struct {
	rdb    *redis.Client
	source BookFetcher
	ttl    time.Duration
	logger *slog.Logger
}

// NewBookCache wraps source. A non-positive ttl uses DefaultBookTTL.
func NewBookCache(c *Client, source BookFetcher, ttl time.Duration, logger *slog.Logger) *BookCache {
	if ttl <= 0 {
		ttl = DefaultBookTTL
	}
	return &BookCache{
		rdb:    c.Underlying(),
		source: source,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "book_cache")),
	}
}

func bookKey(tokenID string) string { return "book:" + tokenID }

// FetchOrderBook returns the cached payload for tokenID or fetches and
// caches it.
func (bc *BookCache) FetchOrderBook(ctx context.Context, tokenID string) ([]byte, error) {
	key := bookKey(tokenID)

	data, err := bc.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, nil
	case !errors.Is(err, redis.Nil):
		bc.logger.Warn("book cache read failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
	}

	data, err = bc.source.FetchOrderBook(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if err := bc.rdb.Set(ctx, key, data, bc.ttl).Err(); err != nil {
		bc.logger.Warn("book cache write failed",
			slog.String("token_id", tokenID),
			slog.String("error", err.Error()),
		)
	}
	return data, nil
}
