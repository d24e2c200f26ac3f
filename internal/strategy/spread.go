package strategy

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Spread captures the bid-ask spread of whichever outcome quotes the wider
// relative spread. The same evaluator backs market making.
type Spread struct {
	th       Thresholds
	name     domain.Strategy
	idPrefix string
}

// NewSpreadTrading returns the spread_trading evaluator.
func NewSpreadTrading(th Thresholds) *Spread {
	return &Spread{th: th, name: domain.StrategySpreadTrading, idPrefix: "spread"}
}

// NewMarketMaking returns the market_making evaluator. It prices quotes on
// both sides of a book exactly like spread trading.
func NewMarketMaking(th Thresholds) *Spread {
	return &Spread{th: th, name: domain.StrategyMarketMaking, idPrefix: "market-making"}
}

// Name returns the strategy identifier.
func (s *Spread) Name() domain.Strategy { return s.name }

// Evaluate buys at the chosen side's bid and sells at its ask.
func (s *Spread) Evaluate(in Input) (domain.Opportunity, bool) {
	if in.Market.Liquidity < s.th.MinLiquidity {
		return domain.Opportunity{}, false
	}

	useYes := in.Yes.SpreadPercent >= in.No.SpreadPercent
	book, side := in.No, domain.SideNo
	if useYes {
		book, side = in.Yes, domain.SideYes
	}
	if book.SpreadPercent < s.th.MinSpreadPercent || !(book.BestBid > 0) {
		return domain.Opportunity{}, false
	}

	gross := book.Spread
	net := gross - book.BestBid*s.th.VenueFee - book.BestAsk*s.th.VenueFee
	pct := net / book.BestBid * 100
	if !(pct >= s.th.MinProfitPercent) {
		return domain.Opportunity{}, false
	}

	opp := baseOpportunity(in, s.th, s.name, s.idPrefix)
	opp.Spread = book.Spread
	opp.SpreadPercent = book.SpreadPercent
	opp.EstimatedProfit = gross
	opp.ProfitAfterFees = net
	opp.ProfitPercent = pct
	opp.BuySide, opp.SellSide = side, side
	opp.BuyPrice, opp.SellPrice = book.BestBid, book.BestAsk
	opp.RecommendedSize = math.Min(book.BidSize, book.AskSize) * 0.1
	return opp, true
}
