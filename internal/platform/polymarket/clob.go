package polymarket

import (
	"context"
	"fmt"
	"net/url"
)

// ClobClient reads order books from the Polymarket CLOB (Central Limit
// Order Book) API.
type ClobClient struct {
	rest restClient
}

// NewClobClient creates a new CLOB REST client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string, opts ...Option) *ClobClient {
	return &ClobClient{rest: newRestClient(baseURL, opts...)}
}

// FetchOrderBook returns the raw order-book payload for tokenID. A token
// with no book yields an error wrapping domain.ErrNotFound.
func (c *ClobClient) FetchOrderBook(ctx context.Context, tokenID string) ([]byte, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.rest.doGet(ctx, "/book?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}
	return body, nil
}
