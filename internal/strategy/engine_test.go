package strategy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

type fakeBooks struct {
	mu    sync.Mutex
	books map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeBooks) FetchOrderBook(_ context.Context, tokenID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, tokenID)
	if err, ok := f.errs[tokenID]; ok {
		return nil, err
	}
	raw, ok := f.books[tokenID]
	if !ok {
		return nil, fmt.Errorf("fake: %s: %w", tokenID, domain.ErrNotFound)
	}
	return []byte(raw), nil
}

type countingRecorder struct {
	mu      sync.Mutex
	reasons map[string]int
}

func (c *countingRecorder) BookFetchFailed(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reasons == nil {
		c.reasons = make(map[string]int)
	}
	c.reasons[reason]++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, books BookSource, opts ...EngineOption) *Engine {
	t.Helper()
	reg, err := NewDefaultRegistry(DefaultThresholds(), nil)
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	return NewEngine(reg, books, EngineConfig{BatchSize: 2}, discardLogger(), opts...)
}

func TestFindOpportunitiesRanksAndSkips(t *testing.T) {
	books := &fakeBooks{
		books: map[string]string{
			"volatile": `{"bids":[["0.10","100"]],"asks":[["0.14","200"]]}`,
			"thin":     `{"bids":[["0.40","100"]],"asks":[["0.50","200"]]}`,
			"garbage":  `{"bids":"nope"}`,
		},
		errs: map[string]error{"broken": errors.New("connection reset")},
	}
	rec := &countingRecorder{}
	engine := newTestEngine(t, books, WithFailureRecorder(rec))

	markets := []domain.MarketSnapshot{
		{ID: "v", Question: "Volatile", TokenID: "volatile", Volume: 10000, Liquidity: 2000},
		{ID: "t", Question: "Thin", TokenID: "thin", Volume: 10000, Liquidity: 10},
		{ID: "n", Question: "No token", Volume: 1e6, Liquidity: 1e6},
		{ID: "b", Question: "Broken", TokenID: "broken", Volume: 10000, Liquidity: 2000},
		{ID: "g", Question: "Garbage", TokenID: "garbage", Volume: 10000, Liquidity: 2000},
		{ID: "m", Question: "Missing", TokenID: "missing", Volume: 10000, Liquidity: 2000},
	}

	got := engine.FindOpportunities(context.Background(), markets)

	wantIDs := []string{"volatility-breakout-v", "spread-v", "market-making-v", "volatility-expansion-v"}
	if len(got) != len(wantIDs) {
		t.Fatalf("got %d opportunities, want %d: %+v", len(got), len(wantIDs), got)
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, got[i].ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].ProfitPercent < got[i].ProfitPercent {
			t.Errorf("not sorted at %d: %v < %v", i, got[i-1].ProfitPercent, got[i].ProfitPercent)
		}
	}
	for _, opp := range got {
		if !opp.DerivedNoBook {
			t.Errorf("%s should use a derived no book", opp.ID)
		}
	}

	for _, call := range books.calls {
		if call == "" {
			t.Error("market without token id was fetched")
		}
	}
	if rec.reasons[reasonFetchError] != 1 || rec.reasons[reasonNotFound] != 1 || rec.reasons[reasonUnparseable] != 1 {
		t.Errorf("failure reasons = %v", rec.reasons)
	}
}

func TestFindOpportunitiesUsesRealNoBook(t *testing.T) {
	books := &fakeBooks{books: map[string]string{
		"yes": `{"bids":[{"price":"0.40","size":"100"}],"asks":[{"price":"0.42","size":"80"}]}`,
		"no":  `{"bids":[{"price":"0.50","size":"30"}],"asks":[{"price":"0.52","size":"60"}]}`,
	}}
	engine := newTestEngine(t, books)

	got := engine.FindOpportunities(context.Background(), []domain.MarketSnapshot{
		{ID: "pair", TokenID: "yes", NoTokenID: "no", Liquidity: 5000},
	})
	var arb *domain.Opportunity
	for i := range got {
		if got[i].Strategy == domain.StrategyYesNoArbitrage {
			arb = &got[i]
		}
	}
	if arb == nil {
		t.Fatalf("expected a yes/no arbitrage, got %+v", got)
	}
	if arb.DerivedNoBook {
		t.Error("real no book reported as derived")
	}
	if arb.NoBid != 0.50 || arb.NoAsk != 0.52 {
		t.Errorf("no book = %v/%v", arb.NoBid, arb.NoAsk)
	}
}

func TestFindOpportunitiesFallsBackToDerivedNoBook(t *testing.T) {
	books := &fakeBooks{books: map[string]string{
		"yes": `{"bids":[["0.40","100"]],"asks":[["0.50","200"]]}`,
	}}
	engine := newTestEngine(t, books)

	got := engine.FindOpportunities(context.Background(), []domain.MarketSnapshot{
		{ID: "x", TokenID: "yes", NoTokenID: "gone", Liquidity: 5000},
	})
	if len(got) == 0 {
		t.Fatal("expected opportunities from the yes book alone")
	}
	if !got[0].DerivedNoBook {
		t.Error("expected a derived no book")
	}
}

func TestFindOpportunitiesCancelled(t *testing.T) {
	books := &fakeBooks{books: map[string]string{}}
	engine := NewEngine(NewRegistry(), books, EngineConfig{BatchSize: 1, BatchPause: 0}, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	markets := []domain.MarketSnapshot{{ID: "a", TokenID: "a"}, {ID: "b", TokenID: "b"}, {ID: "c", TokenID: "c"}}
	if got := engine.FindOpportunities(ctx, markets); len(got) != 0 {
		t.Errorf("got %d opportunities, want none", len(got))
	}
	if len(books.calls) != 1 {
		t.Errorf("fetched %d books after cancel, want only the first group", len(books.calls))
	}
}

func TestFindOpportunitiesEmpty(t *testing.T) {
	engine := newTestEngine(t, &fakeBooks{})
	if got := engine.FindOpportunities(context.Background(), nil); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}
