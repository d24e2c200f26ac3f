package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/arbitrage"
	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/matcher"
	"github.com/alanyoungcy/arbscanner/internal/strategy"
)

// Scan kinds, used as cache keys, bus channel suffixes and metric labels.
const (
	KindCrossVenue  = "cross_venue"
	KindSingleVenue = "single_venue"
)

// ArbChannelPrefix prefixes the bus channel each scan result is published on.
const ArbChannelPrefix = "ch:arb:"

// CrossVenueResult is the outcome of one cross-venue scan.
type CrossVenueResult struct {
	Opportunities   []domain.CrossVenueOpportunity `json:"opportunities"`
	Timestamp       time.Time                      `json:"timestamp"`
	PolymarketCount int                            `json:"polymarketCount"`
	KalshiCount     int                            `json:"kalshiCount"`
	MatchedCount    int                            `json:"matchedCount"`
	ScanID          string                         `json:"scanId"`
}

// SingleVenueResult is the outcome of one single-venue strategy scan.
type SingleVenueResult struct {
	Opportunities    []domain.Opportunity `json:"opportunities"`
	Timestamp        time.Time            `json:"timestamp"`
	MarketCount      int                  `json:"marketCount"`
	OpportunityCount int                  `json:"opportunityCount"`
	ScanID           string               `json:"scanId"`
}

// Notifier receives scan alerts.
type Notifier interface {
	NotifyCrossVenue(ctx context.Context, scanID string, opps []domain.CrossVenueOpportunity) error
	NotifySingleVenue(ctx context.Context, scanID string, opps []domain.Opportunity) error
	NotifyScanFailed(ctx context.Context, kind string, err error) error
}

// Metrics records scan outcomes.
type Metrics interface {
	RecordScan(kind string, err error, elapsed time.Duration)
	RecordOpportunities(kind, strategy string, n int)
	SetMarketsFetched(venue string, n int)
}

// ScanOption configures optional ScanService collaborators.
type ScanOption func(*ScanService)

// WithResultCache stores every successful result as the latest of its kind.
func WithResultCache(c domain.ResultCache) ScanOption {
	return func(s *ScanService) { s.cache = c }
}

// WithSignalBus publishes every successful result on ch:arb:{kind}.
func WithSignalBus(b domain.SignalBus) ScanOption {
	return func(s *ScanService) { s.bus = b }
}

// WithSink forwards every opportunity to an OpportunitySink.
func WithSink(sink domain.OpportunitySink) ScanOption {
	return func(s *ScanService) { s.sink = sink }
}

// WithNotifier sends alerts for results and failures.
func WithNotifier(n Notifier) ScanOption {
	return func(s *ScanService) { s.notifier = n }
}

// WithMetrics records scan metrics.
func WithMetrics(m Metrics) ScanOption {
	return func(s *ScanService) { s.metrics = m }
}

// ScanService runs cross-venue and single-venue scans over live venue data.
// Fan-out to caches, buses, sinks and notifiers is best-effort: failures are
// logged and never fail the scan.
type ScanService struct {
	venueA  domain.MarketSource
	venueB  domain.MarketSource
	matcher *matcher.Matcher
	calc    *arbitrage.Calculator
	engine  *strategy.Engine

	cache    domain.ResultCache
	bus      domain.SignalBus
	sink     domain.OpportunitySink
	notifier Notifier
	metrics  Metrics

	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// NewScanService creates a ScanService. venueA is Polymarket and venueB is
// Kalshi.
func NewScanService(
	venueA, venueB domain.MarketSource,
	m *matcher.Matcher,
	calc *arbitrage.Calculator,
	engine *strategy.Engine,
	logger *slog.Logger,
	opts ...ScanOption,
) *ScanService {
	s := &ScanService{
		venueA:  venueA,
		venueB:  venueB,
		matcher: m,
		calc:    calc,
		engine:  engine,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger.With(slog.String("component", "scan_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanCrossVenue fetches both venues in parallel, matches their markets and
// returns the profitable pairs sorted by profit after fees, highest first.
func (s *ScanService) ScanCrossVenue(ctx context.Context) (CrossVenueResult, error) {
	start := time.Now()

	var marketsA, marketsB []domain.MarketSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		marketsA, err = s.venueA.FetchMarkets(gctx)
		if err != nil {
			return fmt.Errorf("fetch %s markets: %w: %w", s.venueA.Venue(), domain.ErrVenueUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		marketsB, err = s.venueB.FetchMarkets(gctx)
		if err != nil {
			return fmt.Errorf("fetch %s markets: %w: %w", s.venueB.Venue(), domain.ErrVenueUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.failed(ctx, KindCrossVenue, err, start)
		return CrossVenueResult{}, fmt.Errorf("service: cross-venue scan: %w", err)
	}

	matched := s.matcher.Match(marketsA, marketsB)
	opps := s.calc.CalculateAll(matched)
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].ProfitAfterFees > opps[j].ProfitAfterFees
	})
	if opps == nil {
		opps = []domain.CrossVenueOpportunity{}
	}

	res := CrossVenueResult{
		Opportunities:   opps,
		Timestamp:       s.now().UTC(),
		PolymarketCount: len(marketsA),
		KalshiCount:     len(marketsB),
		MatchedCount:    len(matched),
		ScanID:          s.newID(),
	}

	s.logger.InfoContext(ctx, "cross-venue scan complete",
		slog.String("scan_id", res.ScanID),
		slog.Int("polymarket_markets", res.PolymarketCount),
		slog.Int("kalshi_markets", res.KalshiCount),
		slog.Int("matched", res.MatchedCount),
		slog.Int("opportunities", len(opps)),
		slog.Duration("elapsed", time.Since(start)),
	)

	if s.metrics != nil {
		s.metrics.RecordScan(KindCrossVenue, nil, time.Since(start))
		s.metrics.SetMarketsFetched(string(s.venueA.Venue()), len(marketsA))
		s.metrics.SetMarketsFetched(string(s.venueB.Venue()), len(marketsB))
		s.metrics.RecordOpportunities(KindCrossVenue, "cross_venue_arbitrage", len(opps))
	}

	items := make([]any, len(opps))
	for i, o := range opps {
		items[i] = o
	}
	s.fanOut(ctx, KindCrossVenue, res.ScanID, res, items)
	if s.notifier != nil {
		if err := s.notifier.NotifyCrossVenue(ctx, res.ScanID, opps); err != nil {
			s.warn(ctx, "notify cross-venue failed", res.ScanID, err)
		}
	}
	return res, nil
}

// ScanSingleVenue fetches venue A and runs the strategy engine over it.
func (s *ScanService) ScanSingleVenue(ctx context.Context) (SingleVenueResult, error) {
	start := time.Now()

	markets, err := s.venueA.FetchMarkets(ctx)
	if err != nil {
		err = fmt.Errorf("fetch %s markets: %w: %w", s.venueA.Venue(), domain.ErrVenueUnavailable, err)
		s.failed(ctx, KindSingleVenue, err, start)
		return SingleVenueResult{}, fmt.Errorf("service: single-venue scan: %w", err)
	}

	opps := s.engine.FindOpportunities(ctx, markets)
	if opps == nil {
		opps = []domain.Opportunity{}
	}

	res := SingleVenueResult{
		Opportunities:    opps,
		Timestamp:        s.now().UTC(),
		MarketCount:      len(markets),
		OpportunityCount: len(opps),
		ScanID:           s.newID(),
	}

	s.logger.InfoContext(ctx, "single-venue scan complete",
		slog.String("scan_id", res.ScanID),
		slog.Int("markets", res.MarketCount),
		slog.Int("opportunities", res.OpportunityCount),
		slog.Duration("elapsed", time.Since(start)),
	)

	if s.metrics != nil {
		s.metrics.RecordScan(KindSingleVenue, nil, time.Since(start))
		s.metrics.SetMarketsFetched(string(s.venueA.Venue()), len(markets))
		perStrategy := make(map[domain.Strategy]int)
		for _, o := range opps {
			perStrategy[o.Strategy]++
		}
		for name, n := range perStrategy {
			s.metrics.RecordOpportunities(KindSingleVenue, string(name), n)
		}
	}

	items := make([]any, len(opps))
	for i, o := range opps {
		items[i] = o
	}
	s.fanOut(ctx, KindSingleVenue, res.ScanID, res, items)
	if s.notifier != nil {
		if err := s.notifier.NotifySingleVenue(ctx, res.ScanID, opps); err != nil {
			s.warn(ctx, "notify single-venue failed", res.ScanID, err)
		}
	}
	return res, nil
}

// Latest returns the cached JSON of the last result of kind, or
// domain.ErrNotFound when there is none.
func (s *ScanService) Latest(ctx context.Context, kind string) ([]byte, error) {
	if s.cache == nil {
		return nil, domain.ErrNotFound
	}
	return s.cache.GetLatest(ctx, kind)
}

// Run scans both kinds every interval until ctx is cancelled. A failed scan
// is logged and the loop carries on.
func (s *ScanService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("service: scan interval must be positive, got %s", interval)
	}
	s.logger.InfoContext(ctx, "periodic scanner started", slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.scanOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *ScanService) scanOnce(ctx context.Context) {
	if _, err := s.ScanCrossVenue(ctx); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "cross-venue scan failed", slog.String("error", err.Error()))
	}
	if _, err := s.ScanSingleVenue(ctx); err != nil && ctx.Err() == nil {
		s.logger.ErrorContext(ctx, "single-venue scan failed", slog.String("error", err.Error()))
	}
}

// fanOut caches, publishes and sinks a successful result.
func (s *ScanService) fanOut(ctx context.Context, kind, scanID string, result any, items []any) {
	if s.cache == nil && s.bus == nil && s.sink == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		s.warn(ctx, "marshal scan result failed", scanID, err)
		return
	}
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, kind, payload); err != nil {
			s.warn(ctx, "cache scan result failed", scanID, err)
		}
	}
	if s.bus != nil {
		if err := s.bus.Publish(ctx, ArbChannelPrefix+kind, payload); err != nil {
			s.warn(ctx, "publish scan result failed", scanID, err)
		}
	}
	if s.sink != nil {
		if err := s.sink.PublishOpportunities(ctx, scanID, kind, items); err != nil {
			s.warn(ctx, "sink opportunities failed", scanID, err)
		}
	}
}

func (s *ScanService) failed(ctx context.Context, kind string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordScan(kind, err, time.Since(start))
	}
	if s.notifier != nil && ctx.Err() == nil {
		if nerr := s.notifier.NotifyScanFailed(ctx, kind, err); nerr != nil {
			s.warn(ctx, "notify scan failure failed", "", nerr)
		}
	}
}

func (s *ScanService) warn(ctx context.Context, msg, scanID string, err error) {
	s.logger.WarnContext(ctx, msg,
		slog.String("scan_id", scanID),
		slog.String("error", err.Error()),
	)
}
