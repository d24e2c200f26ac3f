// Package arbitrage prices cross-venue arbitrage between Polymarket and
// Kalshi and sizes the two legs of a trade.
package arbitrage

import (
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Fees holds the per-venue fee rates as fractions.
type Fees struct {
	// VenueA is charged on winnings (Polymarket).
	VenueA float64
	// VenueB is charged on the position cost (Kalshi).
	VenueB float64
}

// DefaultFees returns the 2% winnings fee and 0.7% position fee.
func DefaultFees() Fees {
	return Fees{VenueA: 0.02, VenueB: 0.007}
}

// Calculator turns matched events into fee-adjusted opportunities.
type Calculator struct {
	fees Fees
}

// NewCalculator returns a Calculator using the given fee schedule.
func NewCalculator(fees Fees) *Calculator {
	return &Calculator{fees: fees}
}

// Calculate prices the trade implied by ev: buy Yes on the cheaper venue and
// No on the other. It returns false when either side is missing or the
// net profit after fees is not positive.
func (c *Calculator) Calculate(ev domain.MatchedEvent) (domain.CrossVenueOpportunity, bool) {
	if ev.VenueA == nil || ev.VenueB == nil {
		return domain.CrossVenueOpportunity{}, false
	}
	a := ev.VenueA.YesPrice
	b := ev.VenueB.YesPrice

	var net float64
	if a < b {
		// Yes on A, No on B.
		gross := (1 - a) - b
		net = gross - c.fees.VenueA*(1-a) - c.fees.VenueB*b
	} else {
		// Yes on B, No on A.
		gross := (1 - b) - a
		net = gross - c.fees.VenueB*(1-b) - c.fees.VenueA*a
	}
	if !(net > 0) {
		return domain.CrossVenueOpportunity{}, false
	}

	return domain.CrossVenueOpportunity{
		EventName:       ev.EventName,
		VenueAYesPrice:  a,
		VenueBYesPrice:  b,
		Spread:          math.Abs(a-b) * 100,
		ProfitAfterFees: net * 100,
		VenueAURL:       ev.VenueA.URL,
		VenueBURL:       ev.VenueB.URL,
		VenueAID:        ev.VenueA.ID,
		VenueBID:        ev.VenueB.ID,
	}, true
}

// CalculateAll prices every event and drops the unprofitable ones. Input
// order is preserved.
func (c *Calculator) CalculateAll(events []domain.MatchedEvent) []domain.CrossVenueOpportunity {
	var out []domain.CrossVenueOpportunity
	for _, ev := range events {
		if opp, ok := c.Calculate(ev); ok {
			out = append(out, opp)
		}
	}
	return out
}
