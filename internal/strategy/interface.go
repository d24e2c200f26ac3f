package strategy

import (
	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Input is everything an evaluator sees for one market.
type Input struct {
	Market domain.MarketSnapshot
	Yes    domain.OrderBookSnapshot
	No     domain.OrderBookSnapshot
	// VolumeRank is the 1-based position of Market in the scanned batch when
	// ordered by volume, highest first.
	VolumeRank int
	// MarketCount is the size of the scanned batch.
	MarketCount int
}

// Strategy is a pure single-venue evaluator. Evaluate must not block and
// must be safe for concurrent use.
type Strategy interface {
	Name() domain.Strategy
	Evaluate(in Input) (domain.Opportunity, bool)
}

// Thresholds are the gates shared by all evaluators.
type Thresholds struct {
	VenueFee           float64
	MinLiquidity       float64
	MinSpreadPercent   float64
	MinProfitPercent   float64
	MinVolume          float64
	MinVolatility      float64
	HighVolume         float64
	BreakoutVolatility float64
}

// DefaultThresholds returns the stock gate values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VenueFee:           0.02,
		MinLiquidity:       1000,
		MinSpreadPercent:   0.5,
		MinProfitPercent:   0.3,
		MinVolume:          5000,
		MinVolatility:      0.05,
		HighVolume:         50000,
		BreakoutVolatility: 0.10,
	}
}
