package domain

// Strategy names a single-venue detection heuristic.
type Strategy string

const (
	StrategySpreadTrading       Strategy = "spread_trading"
	StrategyYesNoArbitrage      Strategy = "yes_no_arbitrage"
	StrategyMarketMaking        Strategy = "market_making"
	StrategyVolatilityBreakout  Strategy = "volatility_breakout"
	StrategyVolumeMomentum      Strategy = "volume_momentum"
	StrategyMeanReversion       Strategy = "mean_reversion"
	StrategyVolatilityExpansion Strategy = "volatility_expansion"
	StrategyVolumeSpike         Strategy = "volume_spike"
)

// AllStrategies returns every strategy in evaluation order.
func AllStrategies() []Strategy {
	return []Strategy{
		StrategySpreadTrading,
		StrategyYesNoArbitrage,
		StrategyMarketMaking,
		StrategyVolatilityBreakout,
		StrategyVolumeMomentum,
		StrategyMeanReversion,
		StrategyVolatilityExpansion,
		StrategyVolumeSpike,
	}
}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	for _, k := range AllStrategies() {
		if s == k {
			return true
		}
	}
	return false
}

// Side is the outcome leg of a binary market.
type Side string

const (
	SideYes Side = "yes"
	SideNo  Side = "no"
)

// Opposite returns the other outcome.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Opportunity is a candidate trade found on a single venue. MinLiquidity
// records whether the market cleared the liquidity floor.
// The pointer fields are only set by the volume and volatility strategies.
type Opportunity struct {
	ID              string   `json:"id"`
	Strategy        Strategy `json:"strategy"`
	EventName       string   `json:"eventName"`
	MarketID        string   `json:"marketId"`
	TokenID         string   `json:"tokenId,omitempty"`
	URL             string   `json:"url"`
	YesBid          float64  `json:"yesBid"`
	YesAsk          float64  `json:"yesAsk"`
	NoBid           float64  `json:"noBid"`
	NoAsk           float64  `json:"noAsk"`
	YesMidPrice     float64  `json:"yesMidPrice"`
	NoMidPrice      float64  `json:"noMidPrice"`
	Spread          float64  `json:"spread"`
	SpreadPercent   float64  `json:"spreadPercent"`
	YesNoSum        float64  `json:"yesNoSum"`
	ArbitrageGap    float64  `json:"arbitrageGap"`
	EstimatedProfit float64  `json:"estimatedProfit"`
	ProfitAfterFees float64  `json:"profitAfterFees"`
	ProfitPercent   float64  `json:"profitPercent"`
	Liquidity       float64  `json:"liquidity"`
	Volume          float64  `json:"volume"`
	MinLiquidity    bool     `json:"minLiquidity"`
	BuySide         Side     `json:"buySide"`
	SellSide        Side     `json:"sellSide"`
	BuyPrice        float64  `json:"buyPrice"`
	SellPrice       float64  `json:"sellPrice"`
	RecommendedSize float64  `json:"recommendedSize"`
	DerivedNoBook   bool     `json:"derivedNoBook,omitempty"`
	Volatility      *float64 `json:"volatility,omitempty"`
	Volume24h       *float64 `json:"volume24h,omitempty"`
	VolumeRank      *int     `json:"volumeRank,omitempty"`
	PriceChange     *float64 `json:"priceChange,omitempty"`
	Momentum        *float64 `json:"momentum,omitempty"`
}

// CrossVenueOpportunity is a fee-adjusted arbitrage between the two venues.
// Spread and ProfitAfterFees are expressed in percent.
type CrossVenueOpportunity struct {
	EventName       string  `json:"eventName"`
	VenueAYesPrice  float64 `json:"polymarketYesPrice"`
	VenueBYesPrice  float64 `json:"kalshiYesPrice"`
	Spread          float64 `json:"spread"`
	ProfitAfterFees float64 `json:"profitAfterFees"`
	VenueAURL       string  `json:"polymarketUrl"`
	VenueBURL       string  `json:"kalshiUrl"`
	VenueAID        string  `json:"polymarketId"`
	VenueBID        string  `json:"kalshiId"`
}

// StakeAllocation splits a bankroll across the two legs of a cross-venue trade.
type StakeAllocation struct {
	VenueAStake float64 `json:"polymarketStake"`
	VenueBStake float64 `json:"kalshiStake"`
	TotalProfit float64 `json:"totalProfit"`
}
