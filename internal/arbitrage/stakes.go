package arbitrage

import (
	"fmt"
	"math"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// AllocateStakes splits bankroll across the two legs of opp so both legs
// carry equal exposure. The stakes sum to bankroll.
func AllocateStakes(bankroll float64, opp domain.CrossVenueOpportunity) (domain.StakeAllocation, error) {
	if !(bankroll > 0) || math.IsInf(bankroll, 0) {
		return domain.StakeAllocation{}, fmt.Errorf("arbitrage: allocate stakes: %w: %v", domain.ErrInvalidBankroll, bankroll)
	}
	a := opp.VenueAYesPrice
	b := opp.VenueBYesPrice
	if !validPrice(a) || !validPrice(b) {
		return domain.StakeAllocation{}, fmt.Errorf("arbitrage: allocate stakes: %w: %v/%v", domain.ErrInvalidPrice, a, b)
	}

	var stakeA, stakeB float64
	if a < b {
		ratio := b / (1 - a)
		stakeB = bankroll * ratio / (1 + ratio)
		stakeA = bankroll - stakeB
	} else {
		ratio := a / (1 - b)
		stakeA = bankroll * ratio / (1 + ratio)
		stakeB = bankroll - stakeA
	}

	return domain.StakeAllocation{
		VenueAStake: stakeA,
		VenueBStake: stakeB,
		TotalProfit: bankroll * opp.ProfitAfterFees / 100,
	}, nil
}

// validPrice reports whether p is a probability strictly below 1.
func validPrice(p float64) bool {
	return p >= 0 && p < 1 && !math.IsNaN(p)
}
