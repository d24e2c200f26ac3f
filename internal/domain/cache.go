package domain

import (
	"context"
	"time"
)

// MarketSource lists the active binary markets of one venue.
type MarketSource interface {
	Venue() Venue
	FetchMarkets(ctx context.Context) ([]MarketSnapshot, error)
}

// ResultCache keeps the JSON of the most recent scan of each kind.
type ResultCache interface {
	SetLatest(ctx context.Context, kind string, payload []byte) error
	GetLatest(ctx context.Context, kind string) ([]byte, error)
}

// RateLimiter provides distributed rate limiting.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BusMessage is one payload delivered by a SignalBus subscription. Channel is
// the concrete channel it was published on, even for pattern subscriptions.
type BusMessage struct {
	Channel string
	Payload []byte
}

// SignalBus provides pub/sub fan-out of scan results and price ticks.
// Channels containing glob wildcards subscribe by pattern.
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan BusMessage, error)
}

// OpportunitySink receives every opportunity found by a scan.
type OpportunitySink interface {
	PublishOpportunities(ctx context.Context, scanID, kind string, items []any) error
}
