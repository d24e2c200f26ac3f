package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const minReversionDeviation = 0.15

// MeanReversion bets that a heavily traded market far from 0.5 drifts back
// toward it.
type MeanReversion struct {
	th Thresholds
}

// NewMeanReversion returns the mean_reversion evaluator.
func NewMeanReversion(th Thresholds) *MeanReversion {
	return &MeanReversion{th: th}
}

// Name returns the strategy identifier.
func (s *MeanReversion) Name() domain.Strategy { return domain.StrategyMeanReversion }

// Evaluate buys Yes below 0.5 and No above it, expecting 40% of the
// deviation to revert.
func (s *MeanReversion) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Volume < s.th.HighVolume || in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	dev := math.Abs(in.Yes.MidPrice - 0.5)
	if dev < minReversionDeviation {
		return domain.Opportunity{}, false
	}

	d := directional{buyYes: in.Yes.MidPrice < 0.5, move: dev * 0.4, sizeRatio: 0.12}
	opp, ok := d.price(baseOpportunity(in, s.th, s.Name(), "mean-reversion"), in, s.th)
	if !ok {
		return domain.Opportunity{}, false
	}
	opp.PriceChange = ptr(-dev)
	opp.Momentum = ptr(momentumSign(d.buyYes))
	return opp, true
}
