package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestPublishOpportunities(t *testing.T) {
	w := &fakeWriter{}
	p := newPublisher(w, "opps")
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	items := []any{
		domain.CrossVenueOpportunity{EventName: "Fed", VenueAID: "pm-1", VenueBID: "KX-1", ProfitAfterFees: 3.4},
		domain.Opportunity{ID: "spread-7", Strategy: domain.StrategySpreadTrading},
		map[string]string{"raw": "item"},
	}
	if err := p.PublishOpportunities(context.Background(), "scan-1", "cross_venue", items); err != nil {
		t.Fatalf("PublishOpportunities failed: %v", err)
	}
	if len(w.msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(w.msgs))
	}

	wantKeys := []string{"cross_venue-scan-1-pm-1:KX-1", "cross_venue-scan-1-spread-7", "cross_venue-scan-1-2"}
	for i, want := range wantKeys {
		if got := string(w.msgs[i].Key); got != want {
			t.Errorf("message %d: expected key %q, got %q", i, want, got)
		}
	}

	var env struct {
		ScanID      string                       `json:"scanId"`
		Kind        string                       `json:"kind"`
		CapturedAt  time.Time                    `json:"capturedAt"`
		Opportunity domain.CrossVenueOpportunity `json:"opportunity"`
	}
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatalf("envelope not JSON: %v", err)
	}
	if env.ScanID != "scan-1" || env.Kind != "cross_venue" || !env.CapturedAt.Equal(fixed) {
		t.Errorf("Unexpected envelope %+v", env)
	}
	if env.Opportunity.ProfitAfterFees != 3.4 {
		t.Errorf("Expected nested opportunity, got %+v", env.Opportunity)
	}
}

func TestPublishOpportunitiesEmpty(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := newPublisher(w, "opps")
	if err := p.PublishOpportunities(context.Background(), "scan-1", "single_venue", nil); err != nil {
		t.Errorf("Expected no-op for empty batch, got %v", err)
	}
}

func TestPublishOpportunitiesWriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := newPublisher(&fakeWriter{err: cause}, "opps")
	err := p.PublishOpportunities(context.Background(), "scan-1", "single_venue", []any{domain.Opportunity{ID: "x"}})
	if !errors.Is(err, cause) {
		t.Errorf("Expected wrapped broker error, got %v", err)
	}
}

func TestNewPublisherDefaultTopic(t *testing.T) {
	p := NewPublisher([]string{"localhost:9092"}, "")
	defer p.Close()
	if p.Topic() != DefaultTopic {
		t.Errorf("Expected default topic, got %s", p.Topic())
	}
}

func TestEnsureTopicRequiresBrokers(t *testing.T) {
	if err := EnsureTopic(context.Background(), nil, "t"); err == nil {
		t.Error("Expected error without brokers")
	}
}
