package domain

import (
	"math"
	"testing"
)

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestNewOrderBookSnapshot(t *testing.T) {
	s := NewOrderBookSnapshot(0.40, 0.42, 100, 50)
	if !approx(s.MidPrice, 0.41, 1e-12) {
		t.Errorf("mid = %v, want 0.41", s.MidPrice)
	}
	if !approx(s.Spread, 0.02, 1e-12) {
		t.Errorf("spread = %v, want 0.02", s.Spread)
	}
	if !approx(s.SpreadPercent, 4.878048780, 1e-6) {
		t.Errorf("spreadPercent = %v, want ~4.878", s.SpreadPercent)
	}
	if s.Derived {
		t.Error("fresh snapshot must not be derived")
	}
}

func TestDeriveNo(t *testing.T) {
	yes := NewOrderBookSnapshot(0.40, 0.42, 100, 50)
	no := yes.DeriveNo()

	if !approx(no.BestBid, 0.58, 1e-12) || !approx(no.BestAsk, 0.60, 1e-12) {
		t.Errorf("no book bid/ask = %v/%v, want 0.58/0.60", no.BestBid, no.BestAsk)
	}
	if no.BidSize != 50 || no.AskSize != 100 {
		t.Errorf("no book sizes = %v/%v, want 50/100", no.BidSize, no.AskSize)
	}
	if !approx(no.MidPrice, 0.59, 1e-12) {
		t.Errorf("no mid = %v, want 0.59", no.MidPrice)
	}
	if no.Spread != yes.Spread || no.SpreadPercent != yes.SpreadPercent {
		t.Error("derived book must keep the yes spread figures")
	}
	if !no.Derived {
		t.Error("derived flag not set")
	}
}

func TestStrategyValid(t *testing.T) {
	for _, s := range AllStrategies() {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Strategy("martingale").Valid() {
		t.Error("unknown strategy reported valid")
	}
	if len(AllStrategies()) != 8 {
		t.Errorf("got %d strategies, want 8", len(AllStrategies()))
	}
}
