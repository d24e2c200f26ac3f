package polymarket

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexFloat unmarshals from a JSON number or a numeric string. Empty and
// unparseable strings read as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, _ = strconv.ParseFloat(strings.TrimSpace(s), 64)
	*f = flexFloat(n)
	return nil
}

// stringList unmarshals from a JSON array or from a string holding a
// JSON-encoded array, e.g. "[\"0.5\",\"0.5\"]", which is how Gamma encodes
// outcomes, outcome prices and token ids.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		if strings.TrimSpace(inner) == "" {
			*l = nil
			return nil
		}
		data = []byte(inner)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		out = append(out, string(bytes.TrimSpace(r)))
	}
	*l = out
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEventRef is the parent event embedded in a Gamma market.
type APIEventRef struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID              string        `json:"id"`
	Question        string        `json:"question"`
	ConditionID     string        `json:"conditionId"`
	Slug            string        `json:"slug"`
	Active          flexBool      `json:"active"`
	Closed          flexBool      `json:"closed"`
	Outcomes        stringList    `json:"outcomes"`
	OutcomePrices   stringList    `json:"outcomePrices"`
	ClobTokenIDs    stringList    `json:"clobTokenIds"`
	Volume          flexFloat     `json:"volume"`
	Liquidity       flexFloat     `json:"liquidity"`
	Spread          flexFloat     `json:"spread"`
	EnableOrderBook flexBool      `json:"enableOrderBook"`
	Events          []APIEventRef `json:"events"`
}

// ToSnapshot converts a Gamma market into a MarketSnapshot. It reports false
// for closed markets and markets without two outcome prices.
func (m *APIMarket) ToSnapshot() (domain.MarketSnapshot, bool) {
	if bool(m.Closed) || len(m.OutcomePrices) < 2 {
		return domain.MarketSnapshot{}, false
	}
	yes, errYes := strconv.ParseFloat(m.OutcomePrices[0], 64)
	no, errNo := strconv.ParseFloat(m.OutcomePrices[1], 64)
	if errYes != nil || errNo != nil {
		return domain.MarketSnapshot{}, false
	}

	slug := m.Slug
	if len(m.Events) > 0 && m.Events[0].Slug != "" {
		slug = m.Events[0].Slug
	}
	question := m.Question
	if question == "" && len(m.Events) > 0 {
		question = m.Events[0].Title
	}

	snap := domain.MarketSnapshot{
		ID:        m.ID,
		Question:  question,
		YesPrice:  yes,
		NoPrice:   no,
		Volume:    float64(m.Volume),
		Liquidity: float64(m.Liquidity),
		URL:       eventURLPrefix + slug,
		Venue:     domain.VenuePolymarket,
		Spread:    float64(m.Spread),
	}
	if len(m.ClobTokenIDs) > 0 {
		snap.TokenID = m.ClobTokenIDs[0]
	}
	if len(m.ClobTokenIDs) > 1 {
		snap.NoTokenID = m.ClobTokenIDs[1]
	}
	return snap, true
}

// --------------------------------------------------------------------------
// WebSocket DTOs
// --------------------------------------------------------------------------

// WSPriceLevel is a single bid/ask level in the WebSocket orderbook data.
type WSPriceLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// WSEvent is any message received on the market channel. Fields not used by
// the event type are left empty.
type WSEvent struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Price     string `json:"price"`
	Timestamp string `json:"timestamp"`

	// book
	Bids []WSPriceLevel `json:"bids"`
	Asks []WSPriceLevel `json:"asks"`

	// price_change, batched form
	PriceChanges []WSPriceChange `json:"price_changes"`
}

// WSPriceChange is one entry of a batched price_change event.
type WSPriceChange struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	BestBid string `json:"best_bid"`
	BestAsk string `json:"best_ask"`
}

// WSCommand is the JSON payload sent to subscribe to the market channel.
type WSCommand struct {
	Type      string   `json:"type"`
	Operation string   `json:"operation,omitempty"`
	AssetIDs  []string `json:"assets_ids"`
}

// --------------------------------------------------------------------------
// Conversion helpers: WebSocket events -> domain types
// --------------------------------------------------------------------------

// DecodeWSMessage parses a market-channel frame, which is either one event or
// an array of events.
func DecodeWSMessage(raw []byte) ([]WSEvent, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var events []WSEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}
	var ev WSEvent
	if err := json.Unmarshal(trimmed, &ev); err != nil {
		return nil, err
	}
	return []WSEvent{ev}, nil
}

// PriceUpdates converts an event into zero or more price ticks. Book events
// report the mid of the best levels, trades report the trade price and
// price changes report the mid of the new top of book when present.
func (e *WSEvent) PriceUpdates(now time.Time) []domain.PriceUpdate {
	ts := parseTimestamp(e.Timestamp, now)
	mk := func(assetID string, price float64) domain.PriceUpdate {
		return domain.PriceUpdate{
			MarketID:  e.Market,
			TokenID:   assetID,
			Price:     price,
			Timestamp: ts,
			Venue:     domain.VenuePolymarket,
		}
	}

	switch e.EventType {
	case "book":
		bid, okBid := bestLevel(e.Bids, func(a, b float64) bool { return a > b })
		ask, okAsk := bestLevel(e.Asks, func(a, b float64) bool { return a < b })
		if !okBid || !okAsk {
			return nil
		}
		return []domain.PriceUpdate{mk(e.AssetID, (bid+ask)/2)}

	case "last_trade_price":
		p, err := strconv.ParseFloat(e.Price, 64)
		if err != nil {
			return nil
		}
		return []domain.PriceUpdate{mk(e.AssetID, p)}

	case "price_change":
		if len(e.PriceChanges) == 0 {
			p, err := strconv.ParseFloat(e.Price, 64)
			if err != nil {
				return nil
			}
			return []domain.PriceUpdate{mk(e.AssetID, p)}
		}
		out := make([]domain.PriceUpdate, 0, len(e.PriceChanges))
		for _, c := range e.PriceChanges {
			bid, errBid := strconv.ParseFloat(c.BestBid, 64)
			ask, errAsk := strconv.ParseFloat(c.BestAsk, 64)
			if errBid == nil && errAsk == nil && bid > 0 && ask > 0 {
				out = append(out, mk(c.AssetID, (bid+ask)/2))
				continue
			}
			if p, err := strconv.ParseFloat(c.Price, 64); err == nil {
				out = append(out, mk(c.AssetID, p))
			}
		}
		return out
	}
	return nil
}

func bestLevel(levels []WSPriceLevel, better func(a, b float64) bool) (float64, bool) {
	var best float64
	found := false
	for _, lvl := range levels {
		p, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		if !found || better(p, best) {
			best, found = p, true
		}
	}
	return best, found
}

// parseTimestamp returns epoch milliseconds. Polymarket sends milliseconds
// as a string; second-resolution values are scaled up.
func parseTimestamp(s string, now time.Time) int64 {
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ts <= 0 {
		return now.UnixMilli()
	}
	if ts < 1e12 {
		return ts * 1000
	}
	return ts
}
