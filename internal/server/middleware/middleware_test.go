package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
})

func TestAuth(t *testing.T) {
	h := Auth("secret", "/api/health")(okHandler)

	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   int
	}{
		{"missing token", "/api/opportunities", nil, http.StatusUnauthorized},
		{"wrong token", "/api/opportunities", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"api key header", "/api/opportunities", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer", "/api/opportunities", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"query param", "/ws?api_key=secret", nil, http.StatusOK},
		{"public path", "/api/health", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	Auth("")(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/opportunities", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with auth disabled, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/opportunities", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("Expected allowed origin header, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected no CORS header for unknown origin")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected request to pass through, got %d", rec.Code)
	}
}

func TestLoggingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	var seen string
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health?x=1", nil))
	if seen == "" || rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("Expected generated request id echoed, got %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}
	out := buf.String()
	for _, want := range []string{`"status":418`, `"path":"/api/health"`, `"query":"x=1"`, `"request_id":"` + seen + `"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %s, got %s", want, out)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "given-id" {
		t.Errorf("Expected incoming request id kept, got %q", seen)
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	denied := &stubLimiter{allow: false}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/opportunities", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	RateLimit(denied, 60, time.Minute, logger)(okHandler).ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}
	if denied.keys[0] != "api:203.0.113.7" {
		t.Errorf("Expected key from forwarded IP, got %s", denied.keys[0])
	}

	broken := &stubLimiter{err: errors.New("redis down")}
	rec = httptest.NewRecorder()
	RateLimit(broken, 60, time.Minute, logger)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected fail-open 200, got %d", rec.Code)
	}
}
