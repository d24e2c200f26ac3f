package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// unreachable returns a client whose every command fails fast.
func unreachable(t *testing.T) *Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { rdb.Close() })
	return Wrap(rdb)
}

type fakeFetcher struct {
	calls   int
	payload []byte
	err     error
}

func (f *fakeFetcher) FetchOrderBook(context.Context, string) ([]byte, error) {
	f.calls++
	return f.payload, f.err
}

func TestKeySchema(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{resultKey("cross_venue"), "scan:latest:cross_venue"},
		{bookKey("tok-1"), "book:tok-1"},
		{rateLimitKey("1.2.3.4"), "ratelimit:1.2.3.4"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("Expected key %q, got %q", tt.want, tt.got)
		}
	}
}

func TestHasPattern(t *testing.T) {
	tests := map[string]bool{
		"ch:arb:*":           true,
		"ch:price:tok-?":     true,
		"ch:arb:cross_venue": false,
	}
	for channel, want := range tests {
		if got := hasPattern(channel); got != want {
			t.Errorf("hasPattern(%q) = %v, want %v", channel, got, want)
		}
	}
}

func TestBookCacheFallsThroughOnRedisFailure(t *testing.T) {
	source := &fakeFetcher{payload: []byte(`{"bids":[],"asks":[]}`)}
	cache := NewBookCache(unreachable(t), source, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))

	data, err := cache.FetchOrderBook(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchOrderBook failed: %v", err)
	}
	if string(data) != `{"bids":[],"asks":[]}` {
		t.Errorf("Unexpected payload %s", data)
	}
	if source.calls != 1 {
		t.Errorf("Expected 1 upstream call, got %d", source.calls)
	}
}

func TestBookCachePropagatesSourceError(t *testing.T) {
	want := errors.New("upstream down")
	cache := NewBookCache(unreachable(t), &fakeFetcher{err: want}, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := cache.FetchOrderBook(context.Background(), "tok-1"); !errors.Is(err, want) {
		t.Errorf("Expected upstream error, got %v", err)
	}
	if cache.ttl != DefaultBookTTL {
		t.Errorf("Expected default ttl, got %v", cache.ttl)
	}
}

func TestResultCacheReportsRedisErrors(t *testing.T) {
	cache := NewResultCache(unreachable(t), 0)
	if cache.ttl != DefaultResultTTL {
		t.Errorf("Expected default ttl, got %v", cache.ttl)
	}
	if err := cache.SetLatest(context.Background(), "cross_venue", []byte(`{}`)); err == nil {
		t.Error("Expected error from unreachable redis")
	}
	if _, err := cache.GetLatest(context.Background(), "cross_venue"); err == nil {
		t.Error("Expected error from unreachable redis")
	}
}

func TestNewFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := New(ctx, ClientConfig{Addr: "127.0.0.1:1", MaxRetries: -1}); err == nil {
		t.Error("Expected ping failure")
	}
}
