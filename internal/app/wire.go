package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alanyoungcy/arbscanner/internal/arbitrage"
	"github.com/alanyoungcy/arbscanner/internal/cache/redis"
	"github.com/alanyoungcy/arbscanner/internal/config"
	"github.com/alanyoungcy/arbscanner/internal/domain"
	"github.com/alanyoungcy/arbscanner/internal/matcher"
	"github.com/alanyoungcy/arbscanner/internal/metrics"
	"github.com/alanyoungcy/arbscanner/internal/notify"
	"github.com/alanyoungcy/arbscanner/internal/platform/kalshi"
	"github.com/alanyoungcy/arbscanner/internal/platform/polymarket"
	"github.com/alanyoungcy/arbscanner/internal/queue/kafka"
	"github.com/alanyoungcy/arbscanner/internal/server/handler"
	"github.com/alanyoungcy/arbscanner/internal/service"
	"github.com/alanyoungcy/arbscanner/internal/strategy"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
// Redis-backed fields are nil when redis is disabled.
type Dependencies struct {
	// Venues
	Gamma  *polymarket.GammaClient
	Kalshi *kalshi.Client
	Books  strategy.BookSource

	// Redis
	Redis       *redis.Client
	ResultCache domain.ResultCache
	SignalBus   domain.SignalBus
	RateLimiter domain.RateLimiter

	// Outputs
	Sink     *kafka.Publisher
	Notifier *notify.Notifier
	Metrics  *metrics.ScanMetrics

	// Scanning
	Engine  *strategy.Engine
	Scanner *service.ScanService
}

// HealthChecks returns the dependency probes reported by GET /api/health.
func (d *Dependencies) HealthChecks() map[string]handler.Check {
	checks := make(map[string]handler.Check)
	if d.Redis != nil {
		checks["redis"] = d.Redis.Ping
	}
	return checks
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Metrics: metrics.NewScanMetrics()}

	// --- Venues ---
	deps.Gamma = polymarket.NewGammaClient(
		cfg.Polymarket.GammaHost,
		cfg.Polymarket.PageSize,
		cfg.Polymarket.MaxMarkets,
		polymarket.WithRateLimit(cfg.Polymarket.RateLimitRPS, cfg.Polymarket.RateLimitBurst),
	)
	clob := polymarket.NewClobClient(
		cfg.Polymarket.ClobHost,
		polymarket.WithRateLimit(cfg.Polymarket.RateLimitRPS, cfg.Polymarket.RateLimitBurst),
	)
	deps.Books = clob

	deps.Kalshi = kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey,
		kalshi.WithPaging(cfg.Kalshi.PageSize, cfg.Kalshi.MaxMarkets),
	)
	if cfg.Kalshi.Signed() {
		pemBytes, err := os.ReadFile(cfg.Kalshi.RsaPrivateKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
		}
		if err := deps.Kalshi.SetRSAPrivateKey(pemBytes); err != nil {
			return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
		}
	}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Redis = redisClient
		deps.ResultCache = redis.NewResultCache(redisClient, cfg.Redis.ResultTTL.Duration)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.Books = redis.NewBookCache(redisClient, clob, cfg.Redis.BookTTL.Duration, logger)
	}

	// --- Kafka (optional) ---
	if cfg.Kafka.Enabled {
		if cfg.Kafka.EnsureTopic {
			if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: kafka: %w", err)
			}
		}
		pub := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = pub.Close() })
		deps.Sink = pub
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, notify.Config{
		Events:           cfg.Notify.Events,
		MinProfitPercent: cfg.Notify.MinProfitPercent,
	}, logger)

	// --- Scanning ---
	engine, err := newEngine(cfg, deps, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: strategy engine: %w", err)
	}
	deps.Engine = engine

	var pairs []domain.EventPair
	if len(cfg.Matcher.EventPairs) > 0 {
		pairs = cfg.Matcher.EventPairs
	}
	m := matcher.New(pairs)
	opts := []service.ScanOption{service.WithMetrics(deps.Metrics)}
	if deps.ResultCache != nil {
		opts = append(opts, service.WithResultCache(deps.ResultCache))
	}
	if deps.SignalBus != nil {
		opts = append(opts, service.WithSignalBus(deps.SignalBus))
	}
	if deps.Sink != nil {
		opts = append(opts, service.WithSink(deps.Sink))
	}
	if deps.Notifier.Enabled() {
		opts = append(opts, service.WithNotifier(deps.Notifier))
	}
	deps.Scanner = service.NewScanService(
		deps.Gamma,
		deps.Kalshi,
		m,
		arbitrage.NewCalculator(arbitrage.Fees{
			VenueA: cfg.Arbitrage.VenueAFee,
			VenueB: cfg.Arbitrage.VenueBFee,
		}),
		engine,
		logger,
		opts...,
	)

	logger.Info("dependencies wired",
		slog.Bool("redis", deps.Redis != nil),
		slog.Bool("kafka", deps.Sink != nil),
		slog.Bool("notify", deps.Notifier.Enabled()),
		slog.Bool("kalshi_signed", deps.Kalshi.Signed()),
		slog.Int("event_pairs", len(m.Pairs())),
	)

	return deps, cleanup, nil
}

func newEngine(cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*strategy.Engine, error) {
	sc := cfg.Strategy
	enabled := make([]domain.Strategy, len(sc.Enabled))
	for i, name := range sc.Enabled {
		enabled[i] = domain.Strategy(name)
	}
	reg, err := strategy.NewDefaultRegistry(strategy.Thresholds{
		VenueFee:           sc.VenueFee,
		MinLiquidity:       sc.MinLiquidity,
		MinSpreadPercent:   sc.MinSpreadPercent,
		MinProfitPercent:   sc.MinProfitPercent,
		MinVolume:          sc.MinVolume,
		MinVolatility:      sc.MinVolatility,
		HighVolume:         sc.HighVolume,
		BreakoutVolatility: sc.BreakoutVolatility,
	}, enabled)
	if err != nil {
		return nil, err
	}
	return strategy.NewEngine(reg, deps.Books, strategy.EngineConfig{
		BatchSize:  sc.BatchSize,
		BatchPause: sc.BatchPause.Duration,
	}, logger, strategy.WithFailureRecorder(deps.Metrics)), nil
}
