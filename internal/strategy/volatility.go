package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// The volatility evaluators use the Yes book's relative spread as a stand-in
// for realised volatility.

// minExpansionVolatility gates VolatilityExpansion.
const minExpansionVolatility = 0.08

// breakoutDeviation is how far from 0.5 the Yes mid must sit for a breakout.
const breakoutDeviation = 0.3

// VolatilityBreakout bets on a volatile market near an extreme breaking back
// toward the middle.
type VolatilityBreakout struct {
	th Thresholds
}

// NewVolatilityBreakout returns the volatility_breakout evaluator.
func NewVolatilityBreakout(th Thresholds) *VolatilityBreakout {
	return &VolatilityBreakout{th: th}
}

// Name returns the strategy identifier.
func (s *VolatilityBreakout) Name() domain.Strategy { return domain.StrategyVolatilityBreakout }

// Evaluate buys Yes below 0.5 and No above it.
func (s *VolatilityBreakout) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Volume < s.th.MinVolume || in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	vol := in.Yes.SpreadPercent / 100
	if vol < s.th.MinVolatility {
		return domain.Opportunity{}, false
	}
	dev := math.Abs(in.Yes.MidPrice - 0.5)
	if !(dev > breakoutDeviation && vol > s.th.BreakoutVolatility) {
		return domain.Opportunity{}, false
	}

	d := directional{buyYes: in.Yes.MidPrice < 0.5, move: vol * 0.5, sizeRatio: 0.1}
	opp, ok := d.price(baseOpportunity(in, s.th, s.Name(), "volatility-breakout"), in, s.th)
	if !ok {
		return domain.Opportunity{}, false
	}
	opp.Volatility = ptr(vol)
	opp.PriceChange = ptr(dev)
	opp.Momentum = ptr(momentumSign(d.buyYes))
	return opp, true
}

// VolatilityExpansion trades in the direction of the outcome whose spread is
// widening.
type VolatilityExpansion struct {
	th Thresholds
}

// NewVolatilityExpansion returns the volatility_expansion evaluator.
func NewVolatilityExpansion(th Thresholds) *VolatilityExpansion {
	return &VolatilityExpansion{th: th}
}

// Name returns the strategy identifier.
func (s *VolatilityExpansion) Name() domain.Strategy { return domain.StrategyVolatilityExpansion }

// Evaluate buys the outcome with the wider absolute spread; ties go to No.
func (s *VolatilityExpansion) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Volume < s.th.MinVolume || in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	vol := in.Yes.SpreadPercent / 100
	if vol < minExpansionVolatility {
		return domain.Opportunity{}, false
	}

	d := directional{buyYes: in.Yes.Spread > in.No.Spread, move: vol * 0.3, sizeRatio: 0.1}
	opp, ok := d.price(baseOpportunity(in, s.th, s.Name(), "volatility-expansion"), in, s.th)
	if !ok {
		return domain.Opportunity{}, false
	}
	opp.Volatility = ptr(vol)
	opp.PriceChange = ptr(vol)
	opp.Momentum = ptr(momentumSign(d.buyYes))
	return opp, true
}
