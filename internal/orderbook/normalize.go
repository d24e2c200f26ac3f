// Package orderbook turns venue order-book payloads into canonical
// top-of-book snapshots.
package orderbook

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// levelShape tags the encoding of a single book entry.
type levelShape int

const (
	shapeUnknown levelShape = iota
	// ["0.40","100"] or [0.40,100]
	shapeTuple
	// {"price":"0.40","size":"100"}, size may be spelled quantity
	shapeObject
)

type rawBook struct {
	Bids []json.RawMessage `json:"bids"`
	Asks []json.RawMessage `json:"asks"`
}

type rawObjectLevel struct {
	Price    json.RawMessage `json:"price"`
	Size     json.RawMessage `json:"size"`
	Quantity json.RawMessage `json:"quantity"`
}

// level is a parsed book entry.
type level struct {
	price float64
	size  float64
}

// Normalize parses a raw order-book payload and returns its top-of-book
// snapshot. Only the first entry of each side is used. The second return is
// false when the payload is malformed, a side is empty, the entry shape is
// unrecognised, a number cannot be parsed or is not finite, a price falls
// outside [0,1], a size is negative, the book is crossed, or the mid price is
// not positive.
func Normalize(raw []byte) (domain.OrderBookSnapshot, bool) {
	var book rawBook
	if err := json.Unmarshal(raw, &book); err != nil {
		return domain.OrderBookSnapshot{}, false
	}
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		return domain.OrderBookSnapshot{}, false
	}

	bid, ok := parseLevel(book.Bids[0])
	if !ok {
		return domain.OrderBookSnapshot{}, false
	}
	ask, ok := parseLevel(book.Asks[0])
	if !ok {
		return domain.OrderBookSnapshot{}, false
	}
	if !bid.valid() || !ask.valid() {
		return domain.OrderBookSnapshot{}, false
	}
	if bid.price > ask.price || bid.price+ask.price <= 0 {
		return domain.OrderBookSnapshot{}, false
	}
	return domain.NewOrderBookSnapshot(bid.price, ask.price, bid.size, ask.size), true
}

// valid reports whether the level is a probability price with a
// non-negative size.
func (l level) valid() bool {
	return l.price >= 0 && l.price <= 1 && l.size >= 0
}

func shapeOf(raw json.RawMessage) levelShape {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return shapeUnknown
	}
	switch trimmed[0] {
	case '[':
		return shapeTuple
	case '{':
		return shapeObject
	default:
		return shapeUnknown
	}
}

func parseLevel(raw json.RawMessage) (level, bool) {
	switch shapeOf(raw) {
	case shapeTuple:
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return level{}, false
		}
		price, ok := parseNumber(pair[0])
		if !ok {
			return level{}, false
		}
		size, ok := parseNumber(pair[1])
		if !ok {
			return level{}, false
		}
		return level{price: price, size: size}, true

	case shapeObject:
		var obj rawObjectLevel
		if err := json.Unmarshal(raw, &obj); err != nil {
			return level{}, false
		}
		price, ok := parseNumber(obj.Price)
		if !ok {
			return level{}, false
		}
		sizeRaw := obj.Size
		if isAbsent(sizeRaw) {
			sizeRaw = obj.Quantity
		}
		if isAbsent(sizeRaw) {
			return level{price: price}, true
		}
		size, ok := parseNumber(sizeRaw)
		if !ok {
			return level{}, false
		}
		return level{price: price, size: size}, true
	}
	return level{}, false
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// parseNumber accepts a JSON number or a JSON string holding a number.
func parseNumber(raw json.RawMessage) (float64, bool) {
	if isAbsent(raw) {
		return 0, false
	}
	text := string(bytes.TrimSpace(raw))
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		text = s
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
