package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/service"
)

func approx(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScanner struct {
	cross    service.CrossVenueResult
	single   service.SingleVenueResult
	err      error
	latest   map[string][]byte
	cacheErr error
}

func (f *fakeScanner) ScanCrossVenue(context.Context) (service.CrossVenueResult, error) {
	return f.cross, f.err
}

func (f *fakeScanner) ScanSingleVenue(context.Context) (service.SingleVenueResult, error) {
	return f.single, f.err
}

func (f *fakeScanner) Latest(_ context.Context, kind string) ([]byte, error) {
	if f.cacheErr != nil {
		return nil, f.cacheErr
	}
	if p, ok := f.latest[kind]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, rec.Body.String())
	}
	return body
}

func TestCrossVenue(t *testing.T) {
	scanner := &fakeScanner{cross: service.CrossVenueResult{
		Opportunities:   []domain.CrossVenueOpportunity{{EventName: "Fed", ProfitAfterFees: 3.4}},
		PolymarketCount: 10,
		KalshiCount:     8,
		MatchedCount:    1,
		ScanID:          "scan-1",
	}}
	h := NewOpportunityHandler(scanner, quietLogger())

	rec := httptest.NewRecorder()
	h.CrossVenue(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	for _, key := range []string{"opportunities", "timestamp", "polymarketCount", "kalshiCount", "matchedCount", "scanId"} {
		if _, ok := body[key]; !ok {
			t.Errorf("Expected key %q in response", key)
		}
	}
	if string(body["matchedCount"]) != "1" {
		t.Errorf("Expected matchedCount 1, got %s", body["matchedCount"])
	}
}

func TestSingleVenue(t *testing.T) {
	scanner := &fakeScanner{single: service.SingleVenueResult{
		Opportunities:    []domain.Opportunity{},
		MarketCount:      42,
		OpportunityCount: 0,
		ScanID:           "scan-2",
	}}
	h := NewOpportunityHandler(scanner, quietLogger())

	rec := httptest.NewRecorder()
	h.SingleVenue(rec, httptest.NewRequest(http.MethodGet, "/api/polymarket-opportunities", nil))
	body := decodeBody(t, rec)
	if string(body["marketCount"]) != "42" || string(body["opportunities"]) != "[]" {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestScanFailureShape(t *testing.T) {
	h := NewOpportunityHandler(&fakeScanner{err: errors.New("gamma down")}, quietLogger())

	for _, fn := range []http.HandlerFunc{h.CrossVenue, h.SingleVenue} {
		rec := httptest.NewRecorder()
		fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500, got %d", rec.Code)
		}
		body := decodeBody(t, rec)
		if string(body["error"]) != `"Failed to fetch opportunities"` || string(body["opportunities"]) != "[]" {
			t.Errorf("Unexpected error body %s", rec.Body.String())
		}
	}
}

func TestLatest(t *testing.T) {
	scanner := &fakeScanner{latest: map[string][]byte{
		service.KindCrossVenue: []byte(`{"opportunities":[],"scanId":"cached"}`),
	}}
	h := NewOpportunityHandler(scanner, quietLogger())

	rec := httptest.NewRecorder()
	h.LatestCrossVenue(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/latest", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"scanId":"cached"`) {
		t.Errorf("Expected cached payload, got %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.LatestSingleVenue(rec, httptest.NewRequest(http.MethodGet, "/api/polymarket-opportunities/latest", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without cached result, got %d", rec.Code)
	}

	scanner.cacheErr = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.LatestCrossVenue(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities/latest", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 on cache error, got %d", rec.Code)
	}
}

func TestAllocateStakes(t *testing.T) {
	h := NewStakesHandler(1000, quietLogger())

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantA      float64
		wantB      float64
	}{
		{
			name:       "default bankroll",
			body:       `{"opportunity":{"polymarketYesPrice":0.40,"kalshiYesPrice":0.55,"profitAfterFees":3.415}}`,
			wantStatus: http.StatusOK,
			wantA:      521.74,
			wantB:      478.26,
		},
		{
			name:       "explicit bankroll",
			body:       `{"bankroll":100,"opportunity":{"polymarketYesPrice":0.40,"kalshiYesPrice":0.55,"profitAfterFees":3.415}}`,
			wantStatus: http.StatusOK,
			wantA:      52.174,
			wantB:      47.826,
		},
		{name: "missing opportunity", body: `{"bankroll":100}`, wantStatus: http.StatusBadRequest},
		{name: "negative bankroll", body: `{"bankroll":-5,"opportunity":{"polymarketYesPrice":0.4,"kalshiYesPrice":0.5}}`, wantStatus: http.StatusBadRequest},
		{name: "price of one", body: `{"opportunity":{"polymarketYesPrice":1,"kalshiYesPrice":0.5}}`, wantStatus: http.StatusBadRequest},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "empty body", body: ``, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Allocate(rec, httptest.NewRequest(http.MethodPost, "/api/stakes", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var resp struct {
				PolymarketStake float64 `json:"polymarketStake"`
				KalshiStake     float64 `json:"kalshiStake"`
				TotalProfit     float64 `json:"totalProfit"`
				Timestamp       string  `json:"timestamp"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !approx(resp.PolymarketStake, tt.wantA, 0.01) || !approx(resp.KalshiStake, tt.wantB, 0.01) {
				t.Errorf("Expected %v/%v, got %v/%v", tt.wantA, tt.wantB, resp.PolymarketStake, resp.KalshiStake)
			}
			if resp.Timestamp == "" {
				t.Error("Expected timestamp")
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	h := NewHealthHandler(quietLogger(), map[string]Check{
		"redis": func(context.Context) error { return errors.New("down") },
	})
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	body := decodeBody(t, rec)
	if string(body["status"]) != `"ok"` {
		t.Errorf("Expected status ok, got %s", body["status"])
	}
	if !strings.Contains(string(body["checks"]), `"redis":"error"`) {
		t.Errorf("Expected failed redis check, got %s", body["checks"])
	}
}
