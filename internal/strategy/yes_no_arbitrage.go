package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// minPairGap is the smallest |1 - (yesMid + noMid)| worth pricing.
const minPairGap = 0.005

// YesNoArbitrage trades both outcomes when their mids do not sum to one:
// buy both asks when the pair is cheap, sell both bids when it is rich.
type YesNoArbitrage struct {
	th Thresholds
}

// NewYesNoArbitrage returns the yes_no_arbitrage evaluator.
func NewYesNoArbitrage(th Thresholds) *YesNoArbitrage {
	return &YesNoArbitrage{th: th}
}

// Name returns the strategy identifier.
func (s *YesNoArbitrage) Name() domain.Strategy { return domain.StrategyYesNoArbitrage }

// Evaluate prices the pair trade.
func (s *YesNoArbitrage) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}
	sum := in.Yes.MidPrice + in.No.MidPrice
	if math.Abs(1-sum) < minPairGap {
		return domain.Opportunity{}, false
	}

	var gross, net, pct, buy, sell float64
	if sum < 1 {
		cost := in.Yes.BestAsk + in.No.BestAsk
		if !(cost > 0) {
			return domain.Opportunity{}, false
		}
		gross = 1 - cost
		net = gross - s.th.VenueFee
		pct = net / cost * 100
		buy, sell = in.Yes.BestAsk, in.No.BestAsk
	} else {
		receive := in.Yes.BestBid + in.No.BestBid
		gross = receive - 1
		net = gross - receive*s.th.VenueFee
		pct = net * 100
		buy, sell = in.Yes.BestBid, in.No.BestBid
	}
	if !(pct >= s.th.MinProfitPercent) {
		return domain.Opportunity{}, false
	}

	opp := baseOpportunity(in, s.th, s.Name(), "arbitrage")
	opp.Spread = in.Yes.Spread + in.No.Spread
	opp.SpreadPercent = opp.Spread / sum * 100
	opp.EstimatedProfit = gross
	opp.ProfitAfterFees = net
	opp.ProfitPercent = pct
	opp.BuySide, opp.SellSide = domain.SideYes, domain.SideNo
	opp.BuyPrice, opp.SellPrice = buy, sell
	opp.RecommendedSize = math.Min(
		math.Min(in.Yes.BidSize, in.Yes.AskSize),
		math.Min(in.No.BidSize, in.No.AskSize),
	) * 0.1
	return opp, true
}
