package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// baseOpportunity fills the fields every evaluator reports identically.
func baseOpportunity(in Input, th Thresholds, name domain.Strategy, idPrefix string) domain.Opportunity {
	sum := in.Yes.MidPrice + in.No.MidPrice
	return domain.Opportunity{
		ID:            idPrefix + "-" + in.Market.ID,
		Strategy:      name,
		EventName:     in.Market.Question,
		MarketID:      in.Market.ID,
		TokenID:       in.Market.TokenID,
		URL:           in.Market.URL,
		YesBid:        in.Yes.BestBid,
		YesAsk:        in.Yes.BestAsk,
		NoBid:         in.No.BestBid,
		NoAsk:         in.No.BestAsk,
		YesMidPrice:   in.Yes.MidPrice,
		NoMidPrice:    in.No.MidPrice,
		Spread:        in.Yes.Spread,
		SpreadPercent: in.Yes.SpreadPercent,
		YesNoSum:      sum,
		ArbitrageGap:  math.Abs(1 - sum),
		Liquidity:     in.Market.Liquidity,
		Volume:        in.Market.Volume,
		MinLiquidity:  in.Market.Liquidity >= th.MinLiquidity,
		DerivedNoBook: in.No.Derived,
	}
}

// directional is a one-sided bet on an expected price move.
type directional struct {
	buyYes    bool
	move      float64
	sizeRatio float64
}

// price fills the trade legs and fee-adjusted profit of a directional bet.
// The second return is false when profit misses the minimum.
func (d directional) price(opp domain.Opportunity, in Input, th Thresholds) (domain.Opportunity, bool) {
	if d.buyYes {
		opp.BuySide, opp.SellSide = domain.SideYes, domain.SideNo
		opp.BuyPrice, opp.SellPrice = in.Yes.BestAsk, in.No.BestBid
	} else {
		opp.BuySide, opp.SellSide = domain.SideNo, domain.SideYes
		opp.BuyPrice, opp.SellPrice = in.No.BestAsk, in.Yes.BestBid
	}
	if !(opp.BuyPrice > 0) {
		return domain.Opportunity{}, false
	}

	fee := (1 + d.move) * th.VenueFee
	net := d.move - fee
	pct := net / opp.BuyPrice * 100
	if !(pct >= th.MinProfitPercent) {
		return domain.Opportunity{}, false
	}

	opp.EstimatedProfit = d.move
	opp.ProfitAfterFees = net
	opp.ProfitPercent = pct
	opp.RecommendedSize = math.Min(in.Yes.AskSize, in.No.AskSize) * d.sizeRatio

	volume := in.Market.Volume
	rank := in.VolumeRank
	opp.Volume24h = &volume
	opp.VolumeRank = &rank
	return opp, true
}

// momentumSign maps a direction to +1 for Yes and -1 for No.
func momentumSign(buyYes bool) float64 {
	if buyYes {
		return 1
	}
	return -1
}

func ptr(v float64) *float64 { return &v }
