package domain

// OrderBookSnapshot is the canonical top-of-book view of one outcome token.
// Derived is set when the book was synthesized from the complementary outcome.
type OrderBookSnapshot struct {
	BestBid       float64 `json:"bestBid"`
	BestAsk       float64 `json:"bestAsk"`
	BidSize       float64 `json:"bidSize"`
	AskSize       float64 `json:"askSize"`
	MidPrice      float64 `json:"midPrice"`
	Spread        float64 `json:"spread"`
	SpreadPercent float64 `json:"spreadPercent"`
	Derived       bool    `json:"derived,omitempty"`
}

// NewOrderBookSnapshot computes mid, spread and spread percent from the best
// bid and ask. Callers must ensure mid is positive.
func NewOrderBookSnapshot(bid, ask, bidSize, askSize float64) OrderBookSnapshot {
	mid := (bid + ask) / 2
	spread := ask - bid
	return OrderBookSnapshot{
		BestBid:       bid,
		BestAsk:       ask,
		BidSize:       bidSize,
		AskSize:       askSize,
		MidPrice:      mid,
		Spread:        spread,
		SpreadPercent: spread / mid * 100,
	}
}

// DeriveNo synthesizes the No book of a binary market from its Yes book:
// a No bid is a Yes ask seen from the other side and vice versa.
func (s OrderBookSnapshot) DeriveNo() OrderBookSnapshot {
	return OrderBookSnapshot{
		BestBid:       1 - s.BestAsk,
		BestAsk:       1 - s.BestBid,
		BidSize:       s.AskSize,
		AskSize:       s.BidSize,
		MidPrice:      1 - s.MidPrice,
		Spread:        s.Spread,
		SpreadPercent: s.SpreadPercent,
		Derived:       true,
	}
}

// PriceUpdate is a realtime price tick pushed by a venue feed.
type PriceUpdate struct {
	MarketID  string  `json:"marketId"`
	TokenID   string  `json:"tokenId,omitempty"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"`
	Venue     Venue   `json:"platform"`
}
