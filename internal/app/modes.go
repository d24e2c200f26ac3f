package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/feed"
	"github.com/alanyoungcy/arbscanner/internal/server"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/server/ws"
	"github.com/alanyoungcy/arbscanner/internal/service"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServerMode serves the HTTP API; it also runs the websocket hub when a
// signal bus is wired, the periodic scanner when scanner.interval > 0, and
// the realtime feed when enabled.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	if interval := a.cfg.Scanner.Interval.Duration; interval > 0 {
		g.Go(func() error {
			return deps.Scanner.Run(ctx, interval)
		})
	}
	if a.cfg.Realtime.Enabled {
		g.Go(func() error {
			return a.runRealtime(ctx, deps)
		})
	}

	a.startHTTPServer(ctx, g, deps)

	return g.Wait()
}

// MonitorMode runs the periodic scanner loop without an HTTP surface. Every
// scan fans out to the bus, kafka and notifications that are wired.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode",
		slog.Duration("interval", a.cfg.Scanner.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Scanner.Run(ctx, a.cfg.Scanner.Interval.Duration)
	})
	if a.cfg.Realtime.Enabled {
		g.Go(func() error {
			return a.runRealtime(ctx, deps)
		})
	}

	return g.Wait()
}

// scanReport is the document printed by scan mode.
type scanReport struct {
	CrossVenue  service.CrossVenueResult  `json:"crossVenue"`
	SingleVenue service.SingleVenueResult `json:"singleVenue"`
}

// ScanMode runs one cross-venue and one single-venue scan and prints both
// results as a JSON document.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode")

	cross, err := deps.Scanner.ScanCrossVenue(ctx)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}
	single, err := deps.Scanner.ScanSingleVenue(ctx)
	if err != nil {
		return fmt.Errorf("scan mode: %w", err)
	}

	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scanReport{CrossVenue: cross, SingleVenue: single}); err != nil {
		return fmt.Errorf("scan mode: write report: %w", err)
	}
	return nil
}

func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(a.logger, deps.HealthChecks()),
		Opportunities: handler.NewOpportunityHandler(deps.Scanner, a.logger),
		Stakes:        handler.NewStakesHandler(a.cfg.Arbitrage.DefaultBankroll, a.logger),
	}

	opts := []server.Option{server.WithMetrics(deps.Metrics.Handler())}
	if deps.RateLimiter != nil {
		opts = append(opts, server.WithRateLimiter(deps.RateLimiter))
	}

	// WebSocket hub requires only the SignalBus.
	if deps.SignalBus != nil {
		hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
			Mode:       a.cfg.Mode,
			Strategies: strategyNames(deps.Engine.Strategies()),
			StartedAt:  time.Now().UTC(),
		})
		opts = append(opts, server.WithHub(hub))
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:               a.cfg.Server.Port,
		CORSOrigins:        a.cfg.Server.CORSOrigins,
		APIKey:             a.cfg.Server.APIKey,
		RateLimitPerMinute: a.cfg.Server.RateLimitPerMinute,
	}, handlers, a.logger, opts...)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.String("addr", srv.Addr()),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// runRealtime subscribes the feed to the most liquid Polymarket markets. A
// feed that gives up is logged; it never stops the other goroutines.
func (a *App) runRealtime(ctx context.Context, deps *Dependencies) error {
	markets, err := deps.Gamma.FetchMarkets(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		a.logger.WarnContext(ctx, "realtime feed: market discovery failed", slog.String("error", err.Error()))
		return nil
	}

	assets := feed.TopAssets(markets, a.cfg.Realtime.MaxAssets)
	f := feed.NewRealtimeFeed(a.cfg.Polymarket.WsHost, assets, feed.Config{
		ReconnectDelay:       a.cfg.Realtime.ReconnectDelay.Duration,
		MaxReconnectAttempts: a.cfg.Realtime.MaxReconnectAttempts,
	}, a.logger)

	if deps.SignalBus != nil {
		f.Subscribe(feed.BusPublisher(ctx, deps.SignalBus, a.logger))
	} else {
		f.Subscribe(func(u domain.PriceUpdate) {
			a.logger.Debug("price update",
				slog.String("token_id", u.TokenID),
				slog.Float64("price", u.Price),
			)
		})
	}

	if err := f.Run(ctx); err != nil && ctx.Err() == nil {
		a.logger.ErrorContext(ctx, "realtime feed stopped", slog.String("error", err.Error()))
		return nil
	}
	return ctx.Err()
}

func strategyNames(names []domain.Strategy) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return out
}
