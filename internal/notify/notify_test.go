package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

type fakeSender struct {
	name   string
	err    error
	titles []string
	bodies []string
}

func (f *fakeSender) Send(_ context.Context, title, message string) error {
	f.titles = append(f.titles, title)
	f.bodies = append(f.bodies, message)
	return f.err
}

func (f *fakeSender) Name() string { return f.name }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyFiltersEvents(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, Config{Events: []string{EventScanFailed}}, quietLogger())

	if err := n.Notify(context.Background(), EventCrossVenueArb, "t", "m"); err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if len(s.titles) != 0 {
		t.Errorf("Expected filtered event, got %v", s.titles)
	}
	if err := n.NotifyScanFailed(context.Background(), "cross_venue", errors.New("boom")); err != nil {
		t.Fatalf("NotifyScanFailed failed: %v", err)
	}
	if len(s.titles) != 1 || s.bodies[0] != "boom" {
		t.Errorf("Expected scan failure alert, got %v %v", s.titles, s.bodies)
	}
}

func TestNotifyCrossVenueMinProfit(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, Config{MinProfitPercent: 2}, quietLogger())

	opps := []domain.CrossVenueOpportunity{
		{EventName: "Fed decision", ProfitAfterFees: 3.4, VenueAYesPrice: 0.45, VenueBYesPrice: 0.52},
		{EventName: "Too small", ProfitAfterFees: 1.2},
	}
	if err := n.NotifyCrossVenue(context.Background(), "scan-1", opps); err != nil {
		t.Fatalf("NotifyCrossVenue failed: %v", err)
	}
	if len(s.titles) != 1 {
		t.Fatalf("Expected one message, got %d", len(s.titles))
	}
	if s.titles[0] != "1 cross-venue arbitrage opportunity" {
		t.Errorf("Unexpected title %q", s.titles[0])
	}
	if !strings.Contains(s.bodies[0], "Fed decision") || strings.Contains(s.bodies[0], "Too small") {
		t.Errorf("Unexpected body %q", s.bodies[0])
	}
	if !strings.HasSuffix(s.bodies[0], "scan scan-1") {
		t.Errorf("Expected scan id footer, got %q", s.bodies[0])
	}

	s.titles = nil
	if err := n.NotifyCrossVenue(context.Background(), "scan-2", opps[1:]); err != nil {
		t.Fatalf("NotifyCrossVenue failed: %v", err)
	}
	if len(s.titles) != 0 {
		t.Error("Expected nothing sent when every item is below the minimum")
	}
}

func TestNotifySingleVenueCapsItems(t *testing.T) {
	s := &fakeSender{name: "fake"}
	n := NewNotifier([]Sender{s}, Config{MaxItems: 2}, quietLogger())

	opps := make([]domain.Opportunity, 4)
	for i := range opps {
		opps[i] = domain.Opportunity{Strategy: domain.StrategySpreadTrading, EventName: "m", BuySide: domain.SideYes, SellSide: domain.SideYes, ProfitPercent: 5}
	}
	if err := n.NotifySingleVenue(context.Background(), "scan-3", opps); err != nil {
		t.Fatalf("NotifySingleVenue failed: %v", err)
	}
	if s.titles[0] != "4 Polymarket opportunities" {
		t.Errorf("Unexpected title %q", s.titles[0])
	}
	if !strings.Contains(s.bodies[0], "...and 2 more") {
		t.Errorf("Expected overflow line, got %q", s.bodies[0])
	}
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	bad := &fakeSender{name: "bad", err: errors.New("down")}
	good := &fakeSender{name: "good"}
	n := NewNotifier([]Sender{bad, good}, Config{}, quietLogger())

	err := n.Notify(context.Background(), EventScanFailed, "t", "m")
	if err == nil || !strings.Contains(err.Error(), "bad: down") {
		t.Errorf("Expected combined error, got %v", err)
	}
	if len(good.titles) != 1 {
		t.Error("Expected delivery to remaining sender")
	}
}

func TestTelegramSender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode failed: %v", err)
		}
		if payload["chat_id"] != "42" || payload["text"] != "*Title*\nbody" {
			t.Errorf("Unexpected payload %v", payload)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	sender := NewTelegramSender("TOKEN", "42").WithAPIBase(server.URL)
	if err := sender.Send(context.Background(), "Title", "body"); err != nil {
		t.Errorf("Send failed: %v", err)
	}
}

func TestDiscordSenderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad webhook"))
	}))
	defer server.Close()

	err := NewDiscordSender(server.URL).Send(context.Background(), "Title", "body")
	if err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected status error, got %v", err)
	}
}
