// Package notify pushes scan alerts to chat channels. Alerts are filtered by
// event type and by a minimum profit before they reach any sender.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Event types understood by the Notifier.
const (
	EventCrossVenueArb          = "cross_venue_arb"
	EventSingleVenueOpportunity = "single_venue_opportunity"
	EventScanFailed             = "scan_failed"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Config selects which alerts are sent.
type Config struct {
	// Events lists the allowed event types. Empty allows all of them.
	Events []string
	// MinProfitPercent drops opportunities below this profit.
	MinProfitPercent float64
	// MaxItems caps the opportunities listed in a single message.
	MaxItems int
}

// Notifier dispatches scan alerts to one or more Senders.
type Notifier struct {
	senders   []Sender
	events    map[string]bool
	minProfit float64
	maxItems  int
	logger    *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders.
func NewNotifier(senders []Sender, cfg Config, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(cfg.Events))
	for _, e := range cfg.Events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	maxItems := cfg.MaxItems
	if maxItems <= 0 {
		maxItems = 5
	}
	return &Notifier{
		senders:   senders,
		events:    allowed,
		minProfit: cfg.MinProfitPercent,
		maxItems:  maxItems,
		logger:    logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether any sender is configured.
func (n *Notifier) Enabled() bool { return len(n.senders) > 0 }

// Notify sends a notification to all senders if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyCrossVenue alerts on the cross-venue opportunities whose profit after
// fees clears the minimum.
func (n *Notifier) NotifyCrossVenue(ctx context.Context, scanID string, opps []domain.CrossVenueOpportunity) error {
	var lines []string
	for _, o := range opps {
		if o.ProfitAfterFees < n.minProfit {
			continue
		}
		lines = append(lines, FormatCrossVenue(o))
	}
	if len(lines) == 0 {
		return nil
	}
	title := fmt.Sprintf("%d cross-venue arbitrage opportunit%s", len(lines), plural(len(lines)))
	return n.Notify(ctx, EventCrossVenueArb, title, n.body(scanID, lines))
}

// NotifySingleVenue alerts on the single-venue opportunities whose profit
// clears the minimum.
func (n *Notifier) NotifySingleVenue(ctx context.Context, scanID string, opps []domain.Opportunity) error {
	var lines []string
	for _, o := range opps {
		if o.ProfitPercent < n.minProfit {
			continue
		}
		lines = append(lines, FormatOpportunity(o))
	}
	if len(lines) == 0 {
		return nil
	}
	title := fmt.Sprintf("%d Polymarket opportunit%s", len(lines), plural(len(lines)))
	return n.Notify(ctx, EventSingleVenueOpportunity, title, n.body(scanID, lines))
}

// NotifyScanFailed reports a scan that could not complete.
func (n *Notifier) NotifyScanFailed(ctx context.Context, kind string, scanErr error) error {
	return n.Notify(ctx, EventScanFailed, "Scan failed: "+kind, scanErr.Error())
}

func (n *Notifier) body(scanID string, lines []string) string {
	extra := 0
	if len(lines) > n.maxItems {
		extra = len(lines) - n.maxItems
		lines = lines[:n.maxItems]
	}
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n\n")
	}
	if extra > 0 {
		fmt.Fprintf(&b, "...and %d more\n", extra)
	}
	fmt.Fprintf(&b, "scan %s", scanID)
	return b.String()
}

// dispatch sends to every sender. A single sender failure does not prevent
// delivery to the remaining senders.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
