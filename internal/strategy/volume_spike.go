package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const (
	spikeTopFraction  = 0.1
	maxSpikeSpreadPct = 10.0
)

// VolumeSpike follows price direction in the markets with the most volume in
// the scanned batch.
type VolumeSpike struct {
	th Thresholds
}

// NewVolumeSpike returns the volume_spike evaluator.
func NewVolumeSpike(th Thresholds) *VolumeSpike {
	return &VolumeSpike{th: th}
}

// Name returns the strategy identifier.
func (s *VolumeSpike) Name() domain.Strategy { return domain.StrategyVolumeSpike }

// Evaluate only considers the top tenth of the batch by volume, and at least
// the single busiest market.
func (s *VolumeSpike) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Volume < s.th.MinVolume || in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	top := int(math.Floor(float64(in.MarketCount) * spikeTopFraction))
	if top < 1 {
		top = 1
	}
	if in.VolumeRank < 1 || in.VolumeRank > top || in.Yes.SpreadPercent > maxSpikeSpreadPct {
		return domain.Opportunity{}, false
	}

	pm := math.Abs(in.Yes.MidPrice-0.5) * 2
	d := directional{buyYes: in.Yes.MidPrice > 0.5, move: pm * 0.25, sizeRatio: 0.2}
	opp, ok := d.price(baseOpportunity(in, s.th, s.Name(), "volume-spike"), in, s.th)
	if !ok {
		return domain.Opportunity{}, false
	}
	opp.PriceChange = ptr(pm)
	opp.Momentum = ptr(momentumSign(d.buyYes) * pm)
	return opp, true
}
