package feed

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/platform/polymarket"
)

// PriceChannelPrefix prefixes the bus channel of each token's price ticks.
const PriceChannelPrefix = "ch:price:"

// PriceCallback receives every tick decoded from the feed.
type PriceCallback func(domain.PriceUpdate)

// Config controls reconnect behaviour.
type Config struct {
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// DefaultConfig returns a 3s reconnect delay and 10 attempts.
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:       3 * time.Second,
		MaxReconnectAttempts: 10,
	}
}

// RealtimeFeed keeps a subscription to the Polymarket market channel open
// for a fixed set of asset ids and fans price ticks out to callbacks. It
// redials after a drop and gives up after MaxReconnectAttempts consecutive
// failures; a successful connect resets the count.
type RealtimeFeed struct {
	wsURL    string
	assetIDs []string
	cfg      Config
	logger   *slog.Logger

	mu        sync.RWMutex
	callbacks map[int]PriceCallback
	nextID    int
	connected bool
}

// NewRealtimeFeed creates a feed for the given asset ids.
func NewRealtimeFeed(wsURL string, assetIDs []string, cfg Config, logger *slog.Logger) *RealtimeFeed {
	def := DefaultConfig()
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = def.ReconnectDelay
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = def.MaxReconnectAttempts
	}
	return &RealtimeFeed{
		wsURL:     wsURL,
		assetIDs:  assetIDs,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "realtime_feed")),
		callbacks: make(map[int]PriceCallback),
	}
}

// Subscribe registers cb and returns a func that removes it.
func (f *RealtimeFeed) Subscribe(cb PriceCallback) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.callbacks[id] = cb
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.callbacks, id)
			f.mu.Unlock()
		})
	}
}

// Connected reports whether a connection is currently open.
func (f *RealtimeFeed) Connected() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.connected
}

// Run connects and keeps the feed alive until ctx is cancelled or the
// reconnect budget is spent.
func (f *RealtimeFeed) Run(ctx context.Context) error {
	if len(f.assetIDs) == 0 {
		f.logger.Info("no asset IDs to subscribe, exiting")
		return nil
	}

	attempts := 0
	for {
		err := f.runConnection(ctx, func() { attempts = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}

		attempts++
		if attempts >= f.cfg.MaxReconnectAttempts {
			f.logger.Error("realtime feed giving up",
				slog.Int("attempts", attempts),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("feed: giving up after %d attempts: %w", attempts, err)
		}

		f.logger.Warn("polymarket ws disconnected, reconnecting",
			slog.Int("attempt", attempts),
			slog.Duration("delay", f.cfg.ReconnectDelay),
			slog.String("error", err.Error()),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.cfg.ReconnectDelay):
		}
	}
}

func (f *RealtimeFeed) runConnection(ctx context.Context, onConnect func()) error {
	client := polymarket.NewWSClient(f.wsURL)
	defer client.Close()

	client.OnPriceUpdate(f.dispatch)

	if err := client.Connect(ctx); err != nil {
		return err
	}
	if err := client.Subscribe(f.assetIDs); err != nil {
		return fmt.Errorf("feed: subscribe: %w", err)
	}
	onConnect()
	f.setConnected(true)
	defer f.setConnected(false)
	f.logger.Info("polymarket ws subscribed", slog.Int("assets", len(f.assetIDs)))

	err := client.ReadLoop(ctx)
	if err == nil {
		err = domain.ErrWSDisconnect
	}
	return err
}

func (f *RealtimeFeed) setConnected(v bool) {
	f.mu.Lock()
	f.connected = v
	f.mu.Unlock()
}

func (f *RealtimeFeed) dispatch(u domain.PriceUpdate) {
	f.mu.RLock()
	cbs := make([]PriceCallback, 0, len(f.callbacks))
	for _, cb := range f.callbacks {
		cbs = append(cbs, cb)
	}
	f.mu.RUnlock()

	for _, cb := range cbs {
		cb(u)
	}
}

// TopAssets returns the Yes token ids of the n most liquid markets that
// carry one.
func TopAssets(markets []domain.MarketSnapshot, n int) []string {
	withToken := make([]domain.MarketSnapshot, 0, len(markets))
	for _, m := range markets {
		if m.TokenID != "" {
			withToken = append(withToken, m)
		}
	}
	slices.SortStableFunc(withToken, func(a, b domain.MarketSnapshot) int {
		return cmp.Compare(b.Liquidity, a.Liquidity)
	})
	if n > 0 && len(withToken) > n {
		withToken = withToken[:n]
	}
	ids := make([]string, len(withToken))
	for i, m := range withToken {
		ids[i] = m.TokenID
	}
	return ids
}

// BusPublisher returns a callback that republishes each tick as JSON on
// ch:price:{tokenID}.
func BusPublisher(ctx context.Context, bus domain.SignalBus, logger *slog.Logger) PriceCallback {
	return func(u domain.PriceUpdate) {
		payload, err := json.Marshal(u)
		if err != nil {
			return
		}
		if err := bus.Publish(ctx, PriceChannelPrefix+u.TokenID, payload); err != nil {
			logger.Warn("publish price update failed",
				slog.String("token_id", u.TokenID),
				slog.String("error", err.Error()),
			)
		}
	}
}
