package kalshi

import (
	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const marketURLPrefix = "https://kalshi.com/markets/"

// --------------------------------------------------------------------------
// Kalshi API DTOs
// --------------------------------------------------------------------------

// KalshiMarket represents a market as returned by the Kalshi REST API.
// Quotes are in cents (1-99).
type KalshiMarket struct {
	Ticker       string  `json:"ticker"`
	EventTicker  string  `json:"event_ticker"`
	Title        string  `json:"title"`
	Subtitle     string  `json:"subtitle"`
	Status       string  `json:"status"` // "open", "closed", "settled"
	YesBid       float64 `json:"yes_bid"`
	YesAsk       float64 `json:"yes_ask"`
	NoBid        float64 `json:"no_bid"`
	NoAsk        float64 `json:"no_ask"`
	LastPrice    float64 `json:"last_price"`
	Volume       float64 `json:"volume"`
	Volume24H    float64 `json:"volume_24h"`
	OpenInterest float64 `json:"open_interest"`
	Category     string  `json:"category"`
	CloseTime    string  `json:"close_time"`
}

// KalshiErrorResponse represents a Kalshi API error response.
type KalshiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --------------------------------------------------------------------------
// Conversion helpers
// --------------------------------------------------------------------------

// ToSnapshot converts an open market into a MarketSnapshot. The Yes price is
// the bid/ask mid when both quotes are present, else the last trade, else
// 0.5; the No price is its own mid or the complement of Yes. Markets that are
// not open or price at zero are rejected.
func (m *KalshiMarket) ToSnapshot() (domain.MarketSnapshot, bool) {
	if m.Status != "open" && m.Status != "active" {
		return domain.MarketSnapshot{}, false
	}

	var yes float64
	switch {
	case m.YesBid > 0 && m.YesAsk > 0:
		yes = (m.YesBid + m.YesAsk) / 2 / 100
	case m.LastPrice > 0:
		yes = m.LastPrice / 100
	default:
		yes = 0.5
	}

	no := 1 - yes
	if m.NoBid > 0 && m.NoAsk > 0 {
		no = (m.NoBid + m.NoAsk) / 2 / 100
	}

	if yes <= 0 || no <= 0 {
		return domain.MarketSnapshot{}, false
	}

	question := m.Title
	if m.Subtitle != "" && question == "" {
		question = m.Subtitle
	}

	return domain.MarketSnapshot{
		ID:        m.Ticker,
		Question:  question,
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    m.Volume,
		Liquidity: m.OpenInterest,
		URL:       marketURLPrefix + m.Ticker,
		Venue:     domain.VenueKalshi,
	}, true
}
