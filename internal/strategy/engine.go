package strategy

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/orderbook"
)

// BookSource fetches the raw order book of an outcome token. It returns an
// error wrapping domain.ErrNotFound when the venue has no book for tokenID.
type BookSource interface {
	FetchOrderBook(ctx context.Context, tokenID string) ([]byte, error)
}

// FailureRecorder counts per-market failures by reason.
type FailureRecorder interface {
	BookFetchFailed(reason string)
}

// EngineConfig controls how the engine paces book fetches.
type EngineConfig struct {
	BatchSize  int
	BatchPause time.Duration
}

// DefaultEngineConfig returns batches of 10 with a 100ms pause.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{BatchSize: 10, BatchPause: 100 * time.Millisecond}
}

// Failure reasons reported to the FailureRecorder.
const (
	reasonNotFound    = "not_found"
	reasonFetchError  = "fetch_error"
	reasonUnparseable = "unparseable"
)

// Engine runs every registered evaluator over a batch of markets. Markets
// are processed in fixed-size groups; the markets of a group are fetched
// concurrently and a short pause separates groups.
type Engine struct {
	registry *Registry
	books    BookSource
	cfg      EngineConfig
	failures FailureRecorder
	logger   *slog.Logger
}

// EngineOption configures optional Engine collaborators.
type EngineOption func(*Engine)

// WithFailureRecorder reports market failures to r.
func WithFailureRecorder(r FailureRecorder) EngineOption {
	return func(e *Engine) { e.failures = r }
}

// NewEngine creates an Engine. A non-positive batch size falls back to the
// default.
func NewEngine(registry *Registry, books BookSource, cfg EngineConfig, logger *slog.Logger, opts ...EngineOption) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultEngineConfig().BatchSize
	}
	e := &Engine{
		registry: registry,
		books:    books,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "strategy_engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategies lists the names the engine evaluates, in order.
func (e *Engine) Strategies() []domain.Strategy {
	return e.registry.List()
}

// FindOpportunities evaluates markets and returns every opportunity found,
// sorted by profit percent, highest first. Markets without a token id are
// skipped. A market whose book cannot be fetched or parsed contributes
// nothing; it never fails the scan. Cancelling ctx stops before the next
// group and returns what was found so far.
func (e *Engine) FindOpportunities(ctx context.Context, markets []domain.MarketSnapshot) []domain.Opportunity {
	ranks := volumeRanks(markets)
	results := make([][]domain.Opportunity, len(markets))
	strategies := e.registry.Strategies()

	for start := 0; start < len(markets); start += e.cfg.BatchSize {
		end := min(start+e.cfg.BatchSize, len(markets))

		var g errgroup.Group
		for i := start; i < end; i++ {
			if markets[i].TokenID == "" {
				continue
			}
			g.Go(func() error {
				opps, err := e.evaluateMarket(ctx, strategies, Input{
					Market:      markets[i],
					VolumeRank:  ranks[i],
					MarketCount: len(markets),
				})
				if err != nil {
					e.logFailure(markets[i], err)
					return nil
				}
				results[i] = opps
				return nil
			})
		}
		_ = g.Wait()

		if end < len(markets) && !e.pause(ctx) {
			e.logger.Info("scan interrupted", slog.Int("evaluated", end), slog.Int("markets", len(markets)))
			break
		}
	}

	var out []domain.Opportunity
	for _, opps := range results {
		out = append(out, opps...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProfitPercent > out[j].ProfitPercent
	})
	return out
}

// pause waits between groups. It reports false when ctx ended first.
func (e *Engine) pause(ctx context.Context) bool {
	if e.cfg.BatchPause <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(e.cfg.BatchPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Engine) evaluateMarket(ctx context.Context, strategies []Strategy, in Input) ([]domain.Opportunity, error) {
	raw, err := e.books.FetchOrderBook(ctx, in.Market.TokenID)
	if err != nil {
		return nil, err
	}
	yes, ok := orderbook.Normalize(raw)
	if !ok {
		e.recordFailure(reasonUnparseable)
		e.logger.Debug("unusable order book", slog.String("market_id", in.Market.ID), slog.String("token_id", in.Market.TokenID))
		return nil, nil
	}
	in.Yes = yes
	in.No = e.noBook(ctx, in.Market, yes)

	var out []domain.Opportunity
	for _, s := range strategies {
		opp, ok := s.Evaluate(in)
		if !ok {
			continue
		}
		e.logger.Debug("opportunity detected",
			slog.String("strategy", string(s.Name())),
			slog.String("market_id", in.Market.ID),
			slog.Float64("profit_pct", opp.ProfitPercent),
		)
		out = append(out, opp)
	}
	return out, nil
}

// noBook fetches the real No book when the market lists a No token and
// falls back to deriving it from the Yes book.
func (e *Engine) noBook(ctx context.Context, m domain.MarketSnapshot, yes domain.OrderBookSnapshot) domain.OrderBookSnapshot {
	if m.NoTokenID == "" {
		return yes.DeriveNo()
	}
	raw, err := e.books.FetchOrderBook(ctx, m.NoTokenID)
	if err != nil {
		e.logger.Debug("no book unavailable, deriving from yes",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
		return yes.DeriveNo()
	}
	no, ok := orderbook.Normalize(raw)
	if !ok {
		return yes.DeriveNo()
	}
	return no
}

func (e *Engine) logFailure(m domain.MarketSnapshot, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		e.recordFailure(reasonNotFound)
		e.logger.Debug("no order book", slog.String("market_id", m.ID), slog.String("token_id", m.TokenID))
		return
	}
	e.recordFailure(reasonFetchError)
	e.logger.Warn("market evaluation failed",
		slog.String("market_id", m.ID),
		slog.String("error", err.Error()),
	)
}

func (e *Engine) recordFailure(reason string) {
	if e.failures != nil {
		e.failures.BookFetchFailed(reason)
	}
}
