package notify

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// FormatCrossVenue renders one cross-venue opportunity as plain text.
func FormatCrossVenue(o domain.CrossVenueOpportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", o.EventName)
	fmt.Fprintf(&b, "Polymarket YES %.3f | Kalshi YES %.3f\n", o.VenueAYesPrice, o.VenueBYesPrice)
	fmt.Fprintf(&b, "Spread %.2f%% | Profit after fees %.2f%%\n", o.Spread, o.ProfitAfterFees)
	fmt.Fprintf(&b, "%s\n%s", o.VenueAURL, o.VenueBURL)
	return b.String()
}

// FormatOpportunity renders one single-venue opportunity as plain text.
func FormatOpportunity(o domain.Opportunity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", o.Strategy, o.EventName)
	fmt.Fprintf(&b, "Buy %s at %.3f, sell %s at %.3f | Profit %.2f%%",
		strings.ToUpper(string(o.BuySide)), o.BuyPrice, strings.ToUpper(string(o.SellSide)), o.SellPrice, o.ProfitPercent)
	if o.URL != "" {
		fmt.Fprintf(&b, "\n%s", o.URL)
	}
	return b.String()
}
