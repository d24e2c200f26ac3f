package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const (
	minMomentum          = 0.3
	maxMomentumSpreadPct = 5.0
)

// VolumeMomentum follows strong price conviction in heavily traded, tightly
// quoted markets.
type VolumeMomentum struct {
	th Thresholds
}

// NewVolumeMomentum returns the volume_momentum evaluator.
func NewVolumeMomentum(th Thresholds) *VolumeMomentum {
	return &VolumeMomentum{th: th}
}

// Name returns the strategy identifier.
func (s *VolumeMomentum) Name() domain.Strategy { return domain.StrategyVolumeMomentum }

// Evaluate buys Yes above 0.5 and No below it.
func (s *VolumeMomentum) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Volume < s.th.HighVolume || in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	m := math.Abs(in.Yes.MidPrice-0.5) * 2
	if m < minMomentum || in.Yes.SpreadPercent > maxMomentumSpreadPct {
		return domain.Opportunity{}, false
	}

	d := directional{buyYes: in.Yes.MidPrice > 0.5, move: m * 0.3, sizeRatio: 0.15}
	opp, ok := d.price(baseOpportunity(in, s.th, s.Name(), "volume-momentum"), in, s.th)
	if !ok {
		return domain.Opportunity{}, false
	}
	opp.PriceChange = ptr(m)
	opp.Momentum = ptr(momentumSign(d.buyYes) * m)
	return opp, true
}
