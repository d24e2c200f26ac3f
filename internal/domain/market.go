package domain

// Venue identifies a prediction-market exchange.
type Venue string

const (
	VenuePolymarket Venue = "polymarket"
	VenueKalshi     Venue = "kalshi"
)

// MarketSnapshot is one venue's view of a binary market at fetch time.
// Prices are probabilities in [0,1]. Missing volume or liquidity reads as 0.
type MarketSnapshot struct {
	ID        string  `json:"id"`
	Question  string  `json:"question"`
	YesPrice  float64 `json:"yesPrice"`
	NoPrice   float64 `json:"noPrice"`
	Volume    float64 `json:"volume,omitempty"`
	Liquidity float64 `json:"liquidity,omitempty"`
	URL       string  `json:"url"`
	Venue     Venue   `json:"platform"`
	TokenID   string  `json:"tokenId,omitempty"`
	NoTokenID string  `json:"noTokenId,omitempty"`
	Spread    float64 `json:"spread,omitempty"`
}

// MatchedEvent pairs the snapshots of the same real-world event on the two
// venues. Either side may be nil when only one venue lists the event.
type MatchedEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"eventName"`
	VenueA    *MarketSnapshot `json:"polymarket,omitempty"`
	VenueB    *MarketSnapshot `json:"kalshi,omitempty"`
}

// EventPair is one entry of the curated cross-venue pairing table.
type EventPair struct {
	EventName string `toml:"event_name" json:"eventName"`
	VenueAID  string `toml:"venue_a_id" json:"venueAId,omitempty"`
	VenueBID  string `toml:"venue_b_id" json:"venueBId,omitempty"`
}

// DefaultEventPairs is the pairing table shipped when none is configured.
func DefaultEventPairs() []EventPair {
	return []EventPair{
		{EventName: "Fed decision in December", VenueAID: "fed-decision-december-2024", VenueBID: "FED-DEC-2024"},
		{EventName: "Super Bowl Champion 2026", VenueAID: "super-bowl-champion-2026", VenueBID: "SB-2026"},
		{EventName: "Bitcoin price in 2025", VenueAID: "bitcoin-price-2025", VenueBID: "BTC-2025"},
		{EventName: "US Election 2024", VenueAID: "us-election-2024", VenueBID: "US-PRES-2024"},
	}
}
