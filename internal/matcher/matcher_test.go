package matcher

import (
	"testing"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

func snap(id, q string, venue domain.Venue) domain.MarketSnapshot {
	return domain.MarketSnapshot{ID: id, Question: q, YesPrice: 0.5, NoPrice: 0.5, Venue: venue}
}

func TestMatchTablePairs(t *testing.T) {
	m := New([]domain.EventPair{
		{EventName: "Both", VenueAID: "a1", VenueBID: "B1"},
		{EventName: "Only A", VenueAID: "a2", VenueBID: "B-missing"},
		{EventName: "Neither", VenueAID: "a-missing", VenueBID: "B-missing"},
	})
	a := []domain.MarketSnapshot{snap("a1", "first", domain.VenuePolymarket), snap("a2", "second", domain.VenuePolymarket)}
	b := []domain.MarketSnapshot{snap("B1", "uno", domain.VenueKalshi)}

	got := m.Match(a, b)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].ID != "a1-B1" || got[0].EventName != "Both" || got[0].VenueA == nil || got[0].VenueB == nil {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1].ID != "a2-B-missing" || got[1].VenueA == nil || got[1].VenueB != nil {
		t.Errorf("one-sided event should keep venue A only, got %+v", got[1])
	}
}

func TestMatchFuzzy(t *testing.T) {
	m := New([]domain.EventPair{})
	a := []domain.MarketSnapshot{
		snap("pm-1", "  Will the Lakers win the 2026 NBA Finals?", domain.VenuePolymarket),
		snap("pm-2", "Completely unrelated market", domain.VenuePolymarket),
	}
	b := []domain.MarketSnapshot{
		snap("K-1", "will the lakers win the 2026 nba finals", domain.VenueKalshi),
	}
	got := m.Match(a, b)
	if len(got) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(got), got)
	}
	ev := got[0]
	if ev.ID != "pm-1-K-1" {
		t.Errorf("id = %q, want pm-1-K-1", ev.ID)
	}
	if ev.EventName != a[0].Question {
		t.Errorf("event name = %q, want venue A question", ev.EventName)
	}
}

func TestMatchSkipsTableConsumedSnapshots(t *testing.T) {
	m := New([]domain.EventPair{{EventName: "Fed", VenueAID: "fed-a", VenueBID: "FED-B"}})
	a := []domain.MarketSnapshot{
		snap("fed-a", "Fed decision in December", domain.VenuePolymarket),
		snap("btc-a", "Bitcoin above 100k by year end", domain.VenuePolymarket),
	}
	b := []domain.MarketSnapshot{
		snap("FED-B", "Fed decision in December", domain.VenueKalshi),
		snap("BTC-B", "bitcoin above 100k by year end?", domain.VenueKalshi),
	}
	got := m.Match(a, b)
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2: %+v", len(got), got)
	}
	if got[0].ID != "fed-a-FED-B" {
		t.Errorf("table match should come first, got %q", got[0].ID)
	}
	if got[1].ID != "btc-a-BTC-B" {
		t.Errorf("fuzzy match = %q, want btc-a-BTC-B", got[1].ID)
	}
}

func TestMatchFirstFuzzyCandidateWins(t *testing.T) {
	m := New([]domain.EventPair{})
	a := []domain.MarketSnapshot{snap("a", "Will it rain in London tomorrow", domain.VenuePolymarket)}
	b := []domain.MarketSnapshot{
		snap("b1", "will it rain in london tomorrow morning", domain.VenueKalshi),
		snap("b2", "will it rain in london tomorrow", domain.VenueKalshi),
	}
	got := m.Match(a, b)
	if len(got) != 1 || got[0].ID != "a-b1" {
		t.Fatalf("want single match a-b1, got %+v", got)
	}
}

func TestMatchIgnoresEmptyQuestions(t *testing.T) {
	m := New([]domain.EventPair{})
	a := []domain.MarketSnapshot{snap("a", "   ", domain.VenuePolymarket)}
	b := []domain.MarketSnapshot{snap("b", "anything", domain.VenueKalshi)}
	if got := m.Match(a, b); len(got) != 0 {
		t.Errorf("empty question should not match, got %+v", got)
	}
}

func TestNewDefaultsTable(t *testing.T) {
	if got := len(New(nil).Pairs()); got != 4 {
		t.Errorf("default table has %d pairs, want 4", got)
	}
}

func TestSimilarPrefixRule(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"same", "same", true},
		{"abcdefghijklmnopqrstuvwxyz", "xx abcdefghijklmnopqrst yy", true},
		{"short", "a much longer question containing short", true},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrsX", false},
	}
	for _, tt := range tests {
		if got := similar(tt.a, tt.b); got != tt.want {
			t.Errorf("similar(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
