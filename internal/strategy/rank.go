package strategy

import (
	"sort"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// volumeRanks returns the 1-based position of each market after a stable
// sort by volume, highest first. Ranks are indexed like markets.
func volumeRanks(markets []domain.MarketSnapshot) []int {
	order := make([]int, len(markets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return markets[order[a]].Volume > markets[order[b]].Volume
	})
	ranks := make([]int, len(markets))
	for pos, idx := range order {
		ranks[idx] = pos + 1
	}
	return ranks
}
