package kalshi

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Client is the REST client for the Kalshi exchange API. Requests are signed
// when an API key and RSA private key are configured and sent anonymously
// otherwise; market data endpoints accept both.
type Client struct {
	baseURL    string
	apiKeyID   string
	privateKey *rsa.PrivateKey
	httpClient *http.Client
	limiter    *rate.Limiter
	pageSize   int
	maxMarkets int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

// WithRateLimit sets the request rate. A non-positive rps disables waiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithPaging sets the page length and total cap used by FetchMarkets. A
// zero maxMarkets means no cap.
func WithPaging(pageSize, maxMarkets int) Option {
	return func(c *Client) {
		if pageSize > 0 {
			c.pageSize = pageSize
		}
		c.maxMarkets = maxMarkets
	}
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
// apiKeyID is the Kalshi API key identifier and may be empty.
func NewClient(baseURL, apiKeyID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKeyID: apiKeyID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter:  rate.NewLimiter(rate.Limit(10), 5),
		pageSize: 200,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetRSAPrivateKey loads an RSA private key from PEM-encoded bytes and
// configures the client for RSA-signed authentication.
func (c *Client) SetRSAPrivateKey(pemBytes []byte) error {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return fmt.Errorf("kalshi: no PEM block found in private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Try PKCS1 as fallback.
		pkcs1Key, pkcs1Err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if pkcs1Err != nil {
			return fmt.Errorf("kalshi: parse private key: %w (pkcs1: %v)", err, pkcs1Err)
		}
		c.privateKey = pkcs1Key
		return nil
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return fmt.Errorf("kalshi: expected RSA private key, got %T", key)
	}
	c.privateKey = rsaKey
	return nil
}

// Signed reports whether requests carry RSA authentication headers.
func (c *Client) Signed() bool {
	return c.apiKeyID != "" && c.privateKey != nil
}

// Venue identifies the venue served by this client.
func (c *Client) Venue() domain.Venue { return domain.VenueKalshi }

// GetMarkets returns one page of open Kalshi markets and the cursor of the
// next page, which is empty on the last page.
func (c *Client) GetMarkets(ctx context.Context, limit int, cursor string) ([]KalshiMarket, string, error) {
	params := url.Values{}
	params.Set("status", "open")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	body, err := c.doRequest(ctx, http.MethodGet, "/markets?"+params.Encode())
	if err != nil {
		return nil, "", fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp struct {
		Markets []KalshiMarket `json:"markets"`
		Cursor  string         `json:"cursor"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("kalshi: decode markets: %w", err)
	}
	return resp.Markets, resp.Cursor, nil
}

// FetchMarkets follows the cursor through every open market and converts
// each tradable one into a snapshot.
func (c *Client) FetchMarkets(ctx context.Context) ([]domain.MarketSnapshot, error) {
	var (
		out    []domain.MarketSnapshot
		cursor string
	)
	for {
		page, next, err := c.GetMarkets(ctx, c.pageSize, cursor)
		if err != nil {
			return nil, err
		}
		for i := range page {
			snap, ok := page[i].ToSnapshot()
			if !ok {
				continue
			}
			out = append(out, snap)
			if c.maxMarkets > 0 && len(out) >= c.maxMarkets {
				return out, nil
			}
		}
		if next == "" || next == cursor || len(page) == 0 {
			return out, nil
		}
		cursor = next
	}
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doRequest builds, optionally signs, sends, and reads an HTTP request
// against the Kalshi API.
func (c *Client) doRequest(ctx context.Context, method, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if c.Signed() {
		if err := c.signRequest(req, method); err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}
	return respBody, nil
}

// signRequest adds RSA authentication headers to the HTTP request.
// Kalshi uses RSA-PSS-SHA256 signatures over timestamp + method + path,
// where path is the full URL path without the query string.
func (c *Client) signRequest(req *http.Request, method string) error {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	message := ts + method + req.URL.Path

	hash := sha256.Sum256([]byte(message))
	signature, err := rsa.SignPSS(rand.Reader, c.privateKey, crypto.SHA256, hash[:], &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
	if err != nil {
		return fmt.Errorf("RSA sign: %w", err)
	}

	req.Header.Set("KALSHI-ACCESS-KEY", c.apiKeyID)
	req.Header.Set("KALSHI-ACCESS-SIGNATURE", base64.StdEncoding.EncodeToString(signature))
	req.Header.Set("KALSHI-ACCESS-TIMESTAMP", ts)
	return nil
}

// checkStatus maps non-2xx HTTP status codes to domain errors.
func checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr KalshiErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s (%s)", domain.ErrNotFound, apiErr.Message, apiErr.Code)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s (%s)", domain.ErrUnauthorized, apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s (%s)", domain.ErrRateLimited, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("HTTP %d: %s (%s)", statusCode, apiErr.Message, apiErr.Code)
	}
}
