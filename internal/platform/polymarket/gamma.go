package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

const eventURLPrefix = "https://polymarket.com/event/"

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	rest       restClient
	pageSize   int
	maxMarkets int
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// pageSize is the page length requested per call and maxMarkets caps the
// total returned by FetchMarkets; zero means no cap.
func NewGammaClient(baseURL string, pageSize, maxMarkets int, opts ...Option) *GammaClient {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &GammaClient{
		rest:       newRestClient(baseURL, opts...),
		pageSize:   pageSize,
		maxMarkets: maxMarkets,
	}
}

// Venue identifies the venue served by this client.
func (g *GammaClient) Venue() domain.Venue { return domain.VenuePolymarket }

// GetMarkets returns one page of active, open markets.
func (g *GammaClient) GetMarkets(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("active", "true")
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, err := g.rest.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets: %w", err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}
	return apiMarkets, nil
}

// FetchMarkets pages through the active markets and converts every binary
// market with prices into a snapshot.
func (g *GammaClient) FetchMarkets(ctx context.Context) ([]domain.MarketSnapshot, error) {
	var out []domain.MarketSnapshot
	for offset := 0; ; offset += g.pageSize {
		page, err := g.GetMarkets(ctx, g.pageSize, offset)
		if err != nil {
			return nil, err
		}
		for i := range page {
			snap, ok := page[i].ToSnapshot()
			if !ok {
				continue
			}
			out = append(out, snap)
			if g.maxMarkets > 0 && len(out) >= g.maxMarkets {
				return out, nil
			}
		}
		if len(page) < g.pageSize {
			return out, nil
		}
	}
}
