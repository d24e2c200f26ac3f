package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/arbitrage"
	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/matcher"
	"github.com/alanyoungcy/arbscanner/internal/strategy"
)

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

type fakeSource struct {
	venue   domain.Venue
	markets []domain.MarketSnapshot
	err     error
}

func (f *fakeSource) Venue() domain.Venue { return f.venue }

func (f *fakeSource) FetchMarkets(context.Context) ([]domain.MarketSnapshot, error) {
	return f.markets, f.err
}

type fakeBooks map[string]string

func (f fakeBooks) FetchOrderBook(_ context.Context, tokenID string) ([]byte, error) {
	raw, ok := f[tokenID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return []byte(raw), nil
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *memCache) SetLatest(_ context.Context, kind string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[kind] = payload
	return nil
}

func (c *memCache) GetLatest(_ context.Context, kind string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.data[kind]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

type recordingBus struct {
	mu       sync.Mutex
	channels []string
	err      error
}

func (b *recordingBus) Publish(_ context.Context, channel string, _ []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.channels = append(b.channels, channel)
	return b.err
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan domain.BusMessage, error) {
	return nil, errors.New("not supported")
}

type recordingSink struct {
	kinds []string
	items int
}

func (s *recordingSink) PublishOpportunities(_ context.Context, _ string, kind string, items []any) error {
	s.kinds = append(s.kinds, kind)
	s.items += len(items)
	return nil
}

type recordingNotifier struct {
	cross, single int
	failures      []string
}

func (n *recordingNotifier) NotifyCrossVenue(context.Context, string, []domain.CrossVenueOpportunity) error {
	n.cross++
	return nil
}

func (n *recordingNotifier) NotifySingleVenue(context.Context, string, []domain.Opportunity) error {
	n.single++
	return nil
}

func (n *recordingNotifier) NotifyScanFailed(_ context.Context, kind string, _ error) error {
	n.failures = append(n.failures, kind)
	return nil
}

type recordingMetrics struct {
	scans   map[string]int
	errors  map[string]int
	markets map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{scans: map[string]int{}, errors: map[string]int{}, markets: map[string]int{}}
}

func (m *recordingMetrics) RecordScan(kind string, err error, _ time.Duration) {
	m.scans[kind]++
	if err != nil {
		m.errors[kind]++
	}
}

func (m *recordingMetrics) RecordOpportunities(string, string, int) {}

func (m *recordingMetrics) SetMarketsFetched(venue string, n int) { m.markets[venue] = n }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newService(t *testing.T, a, b domain.MarketSource, books strategy.BookSource, opts ...ScanOption) *ScanService {
	t.Helper()
	reg, err := strategy.NewDefaultRegistry(strategy.DefaultThresholds(), nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	engine := strategy.NewEngine(reg, books, strategy.EngineConfig{BatchSize: 10}, quietLogger())
	svc := NewScanService(a, b, matcher.New(nil), arbitrage.NewCalculator(arbitrage.DefaultFees()), engine, quietLogger(), opts...)
	svc.newID = func() string { return "scan-fixed" }
	return svc
}

func crossVenueSources() (*fakeSource, *fakeSource) {
	a := &fakeSource{venue: domain.VenuePolymarket, markets: []domain.MarketSnapshot{
		{ID: "fed-decision-december-2024", Question: "Fed cuts in December?", YesPrice: 0.40, NoPrice: 0.60, Venue: domain.VenuePolymarket},
		{ID: "bitcoin-price-2025", Question: "Bitcoin above 100k?", YesPrice: 0.55, NoPrice: 0.45, Venue: domain.VenuePolymarket},
		{ID: "other", Question: "Unrelated polymarket question", YesPrice: 0.5, NoPrice: 0.5, Venue: domain.VenuePolymarket},
	}}
	b := &fakeSource{venue: domain.VenueKalshi, markets: []domain.MarketSnapshot{
		{ID: "FED-DEC-2024", Question: "zzz one", YesPrice: 0.55, NoPrice: 0.45, Venue: domain.VenueKalshi},
		{ID: "BTC-2025", Question: "zzz two", YesPrice: 0.40, NoPrice: 0.60, Venue: domain.VenueKalshi},
	}}
	return a, b
}

func TestScanCrossVenue(t *testing.T) {
	a, b := crossVenueSources()
	cache := &memCache{}
	bus := &recordingBus{}
	sink := &recordingSink{}
	notifier := &recordingNotifier{}
	metrics := newRecordingMetrics()
	svc := newService(t, a, b, fakeBooks{},
		WithResultCache(cache), WithSignalBus(bus), WithSink(sink), WithNotifier(notifier), WithMetrics(metrics))

	res, err := svc.ScanCrossVenue(context.Background())
	if err != nil {
		t.Fatalf("ScanCrossVenue failed: %v", err)
	}
	if res.PolymarketCount != 3 || res.KalshiCount != 2 || res.MatchedCount != 2 {
		t.Errorf("Unexpected counts %+v", res)
	}
	if res.ScanID != "scan-fixed" {
		t.Errorf("Expected scan id, got %q", res.ScanID)
	}
	if len(res.Opportunities) != 2 {
		t.Fatalf("Expected 2 opportunities, got %+v", res.Opportunities)
	}
	if !approx(res.Opportunities[0].ProfitAfterFees, 3.48, 1e-9) || !approx(res.Opportunities[1].ProfitAfterFees, 3.415, 1e-9) {
		t.Errorf("Expected opportunities sorted by profit, got %v then %v",
			res.Opportunities[0].ProfitAfterFees, res.Opportunities[1].ProfitAfterFees)
	}

	cached, err := svc.Latest(context.Background(), KindCrossVenue)
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	var decoded CrossVenueResult
	if err := json.Unmarshal(cached, &decoded); err != nil {
		t.Fatalf("cached payload not JSON: %v", err)
	}
	if decoded.ScanID != "scan-fixed" || len(decoded.Opportunities) != 2 {
		t.Errorf("Unexpected cached result %+v", decoded)
	}
	if len(bus.channels) != 1 || bus.channels[0] != "ch:arb:cross_venue" {
		t.Errorf("Expected publish on ch:arb:cross_venue, got %v", bus.channels)
	}
	if sink.items != 2 || sink.kinds[0] != KindCrossVenue {
		t.Errorf("Expected 2 sunk items, got %+v", sink)
	}
	if notifier.cross != 1 {
		t.Errorf("Expected one cross-venue notification, got %d", notifier.cross)
	}
	if metrics.scans[KindCrossVenue] != 1 || metrics.markets["polymarket"] != 3 || metrics.markets["kalshi"] != 2 {
		t.Errorf("Unexpected metrics %+v", metrics)
	}
}

func TestScanCrossVenueEmptyListIsNotNull(t *testing.T) {
	a := &fakeSource{venue: domain.VenuePolymarket}
	b := &fakeSource{venue: domain.VenueKalshi}
	svc := newService(t, a, b, fakeBooks{})

	res, err := svc.ScanCrossVenue(context.Background())
	if err != nil {
		t.Fatalf("ScanCrossVenue failed: %v", err)
	}
	body, _ := json.Marshal(res)
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if string(raw["opportunities"]) != "[]" {
		t.Errorf("Expected empty array, got %s", raw["opportunities"])
	}
}

func TestScanCrossVenueFetchFailure(t *testing.T) {
	a, b := crossVenueSources()
	b.err = domain.ErrRateLimited
	notifier := &recordingNotifier{}
	metrics := newRecordingMetrics()
	svc := newService(t, a, b, fakeBooks{}, WithNotifier(notifier), WithMetrics(metrics))

	_, err := svc.ScanCrossVenue(context.Background())
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("Expected wrapped venue error, got %v", err)
	}
	if !errors.Is(err, domain.ErrVenueUnavailable) {
		t.Errorf("Expected ErrVenueUnavailable, got %v", err)
	}
	if len(notifier.failures) != 1 || notifier.failures[0] != KindCrossVenue {
		t.Errorf("Expected scan_failed notification, got %v", notifier.failures)
	}
	if metrics.errors[KindCrossVenue] != 1 {
		t.Errorf("Expected failed scan metric, got %+v", metrics.errors)
	}
}

func TestScanCrossVenueSideEffectFailureDoesNotFail(t *testing.T) {
	a, b := crossVenueSources()
	bus := &recordingBus{err: errors.New("redis down")}
	svc := newService(t, a, b, fakeBooks{}, WithSignalBus(bus))

	if _, err := svc.ScanCrossVenue(context.Background()); err != nil {
		t.Errorf("Expected bus failure to be tolerated, got %v", err)
	}
}

func TestScanSingleVenue(t *testing.T) {
	a := &fakeSource{venue: domain.VenuePolymarket, markets: []domain.MarketSnapshot{
		{ID: "v", Question: "Volatile", TokenID: "volatile", Volume: 10000, Liquidity: 2000},
		{ID: "x", Question: "No book", TokenID: "missing", Volume: 10000, Liquidity: 2000},
	}}
	books := fakeBooks{"volatile": `{"bids":[["0.10","100"]],"asks":[["0.14","200"]]}`}
	bus := &recordingBus{}
	notifier := &recordingNotifier{}
	svc := newService(t, a, &fakeSource{venue: domain.VenueKalshi}, books, WithSignalBus(bus), WithNotifier(notifier))

	res, err := svc.ScanSingleVenue(context.Background())
	if err != nil {
		t.Fatalf("ScanSingleVenue failed: %v", err)
	}
	if res.MarketCount != 2 {
		t.Errorf("Expected 2 markets, got %d", res.MarketCount)
	}
	if res.OpportunityCount != len(res.Opportunities) || res.OpportunityCount == 0 {
		t.Errorf("Expected matching non-zero count, got %d for %d", res.OpportunityCount, len(res.Opportunities))
	}
	for i := 1; i < len(res.Opportunities); i++ {
		if res.Opportunities[i-1].ProfitPercent < res.Opportunities[i].ProfitPercent {
			t.Errorf("not sorted at %d", i)
		}
	}
	if len(bus.channels) != 1 || bus.channels[0] != "ch:arb:single_venue" {
		t.Errorf("Expected publish on ch:arb:single_venue, got %v", bus.channels)
	}
	if notifier.single != 1 {
		t.Errorf("Expected one single-venue notification, got %d", notifier.single)
	}
}

func TestLatestWithoutCache(t *testing.T) {
	a, b := crossVenueSources()
	svc := newService(t, a, b, fakeBooks{})
	if _, err := svc.Latest(context.Background(), KindCrossVenue); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, b := crossVenueSources()
	metrics := newRecordingMetrics()
	svc := newService(t, a, b, fakeBooks{}, WithMetrics(metrics))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if err := svc.Run(context.Background(), 0); err == nil {
		t.Error("Expected error for non-positive interval")
	}
}
