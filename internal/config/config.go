// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/arbscanner/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ARBSCAN_* environment variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Redis      RedisConfig      `toml:"redis"`
	Kafka      KafkaConfig      `toml:"kafka"`
	Arbitrage  ArbitrageConfig  `toml:"arbitrage"`
	Strategy   StrategyConfig   `toml:"strategy"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Realtime   RealtimeConfig   `toml:"realtime"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket API endpoints and request pacing.
type PolymarketConfig struct {
	GammaHost      string  `toml:"gamma_host"`
	ClobHost       string  `toml:"clob_host"`
	WsHost         string  `toml:"ws_host"`
	PageSize       int     `toml:"page_size"`
	MaxMarkets     int     `toml:"max_markets"`
	RateLimitRPS   float64 `toml:"rate_limit_rps"`
	RateLimitBurst int     `toml:"rate_limit_burst"`
}

// KalshiConfig holds Kalshi API parameters. Requests are signed only when
// both api_key and rsa_private_key_path are set.
type KalshiConfig struct {
	BaseURL           string `toml:"base_url"`
	ApiKey            string `toml:"api_key"`
	RsaPrivateKeyPath string `toml:"rsa_private_key_path"`
	PageSize          int    `toml:"page_size"`
	MaxMarkets        int    `toml:"max_markets"`
}

// Signed reports whether Kalshi requests should be signed.
func (k KalshiConfig) Signed() bool {
	return k.ApiKey != "" && k.RsaPrivateKeyPath != ""
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	ResultTTL  duration `toml:"result_ttl"`
	BookTTL    duration `toml:"book_ttl"`
}

// KafkaConfig holds the opportunity sink parameters.
type KafkaConfig struct {
	Enabled     bool     `toml:"enabled"`
	Brokers     []string `toml:"brokers"`
	Topic       string   `toml:"topic"`
	EnsureTopic bool     `toml:"ensure_topic"`
}

// ArbitrageConfig holds the cross-venue fee schedule and stake sizing.
type ArbitrageConfig struct {
	VenueAFee       float64 `toml:"venue_a_fee"`
	VenueBFee       float64 `toml:"venue_b_fee"`
	DefaultBankroll float64 `toml:"default_bankroll"`
}

// StrategyConfig holds the single-venue evaluator gates and engine pacing.
type StrategyConfig struct {
	VenueFee           float64  `toml:"venue_fee"`
	MinLiquidity       float64  `toml:"min_liquidity"`
	MinSpreadPercent   float64  `toml:"min_spread_percent"`
	MinProfitPercent   float64  `toml:"min_profit_percent"`
	MinVolume          float64  `toml:"min_volume"`
	MinVolatility      float64  `toml:"min_volatility"`
	HighVolume         float64  `toml:"high_volume"`
	BreakoutVolatility float64  `toml:"breakout_volatility"`
	BatchSize          int      `toml:"batch_size"`
	BatchPause         duration `toml:"batch_pause"`
	// Enabled lists the strategies to run; empty runs all of them.
	Enabled []string `toml:"enabled"`
}

// MatcherConfig holds the curated cross-venue pairing table. An empty table
// falls back to the built-in pairs.
type MatcherConfig struct {
	EventPairs []domain.EventPair `toml:"event_pairs"`
}

// ScannerConfig controls the periodic scan loop. A zero interval disables it
// in server mode.
type ScannerConfig struct {
	Interval duration `toml:"interval"`
}

// RealtimeConfig controls the Polymarket price feed.
type RealtimeConfig struct {
	Enabled              bool     `toml:"enabled"`
	MaxAssets            int      `toml:"max_assets"`
	ReconnectDelay       duration `toml:"reconnect_delay"`
	MaxReconnectAttempts int      `toml:"max_reconnect_attempts"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port               int      `toml:"port"`
	APIKey             string   `toml:"api_key"`
	CORSOrigins        []string `toml:"cors_origins"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
}

// NotifyConfig holds notification channel credentials and filters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	MinProfitPercent  float64  `toml:"min_profit_percent"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:      "https://gamma-api.polymarket.com",
			ClobHost:       "https://clob.polymarket.com",
			WsHost:         "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			PageSize:       100,
			MaxMarkets:     500,
			RateLimitRPS:   10,
			RateLimitBurst: 5,
		},
		Kalshi: KalshiConfig{
			BaseURL:    "https://api.elections.kalshi.com/trade-api/v2",
			PageSize:   200,
			MaxMarkets: 1000,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
			ResultTTL:  duration{10 * time.Minute},
			BookTTL:    duration{5 * time.Second},
		},
		Kafka: KafkaConfig{
			Brokers:     []string{"localhost:9092"},
			Topic:       "arbscanner.opportunities",
			EnsureTopic: true,
		},
		Arbitrage: ArbitrageConfig{
			VenueAFee:       0.02,
			VenueBFee:       0.007,
			DefaultBankroll: 1000,
		},
		Strategy: StrategyConfig{
			VenueFee:           0.02,
			MinLiquidity:       1000,
			MinSpreadPercent:   0.5,
			MinProfitPercent:   0.3,
			MinVolume:          5000,
			MinVolatility:      0.05,
			HighVolume:         50000,
			BreakoutVolatility: 0.10,
			BatchSize:          10,
			BatchPause:         duration{100 * time.Millisecond},
		},
		Scanner: ScannerConfig{
			Interval: duration{0},
		},
		Realtime: RealtimeConfig{
			Enabled:              false,
			MaxAssets:            50,
			ReconnectDelay:       duration{3 * time.Second},
			MaxReconnectAttempts: 10,
		},
		Server: ServerConfig{
			Port:               3001,
			CORSOrigins:        []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimitPerMinute: 120,
		},
		Notify: NotifyConfig{
			Events:           []string{"cross_venue_arb", "scan_failed"},
			MinProfitPercent: 1.0,
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"monitor": true,
	"scan":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validEvents enumerates the accepted notification event names.
var validEvents = map[string]bool{
	"cross_venue_arb":          true,
	"single_venue_opportunity": true,
	"scan_failed":              true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, monitor, scan)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Venues
	if c.Polymarket.GammaHost == "" {
		errs = append(errs, "polymarket: gamma_host must not be empty")
	}
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.PageSize < 1 {
		errs = append(errs, "polymarket: page_size must be >= 1")
	}
	if c.Polymarket.MaxMarkets < 0 {
		errs = append(errs, "polymarket: max_markets must be >= 0")
	}
	if c.Kalshi.BaseURL == "" {
		errs = append(errs, "kalshi: base_url must not be empty")
	}
	if c.Kalshi.PageSize < 1 {
		errs = append(errs, "kalshi: page_size must be >= 1")
	}
	if (c.Kalshi.ApiKey == "") != (c.Kalshi.RsaPrivateKeyPath == "") {
		errs = append(errs, "kalshi: api_key and rsa_private_key_path must be set together")
	}

	// Fees
	for name, fee := range map[string]float64{
		"arbitrage: venue_a_fee": c.Arbitrage.VenueAFee,
		"arbitrage: venue_b_fee": c.Arbitrage.VenueBFee,
		"strategy: venue_fee":    c.Strategy.VenueFee,
	} {
		if fee < 0 || fee >= 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0, 1), got %g", name, fee))
		}
	}
	if c.Arbitrage.DefaultBankroll <= 0 {
		errs = append(errs, "arbitrage: default_bankroll must be > 0")
	}

	// Strategy
	for name, v := range map[string]float64{
		"min_liquidity":       c.Strategy.MinLiquidity,
		"min_spread_percent":  c.Strategy.MinSpreadPercent,
		"min_profit_percent":  c.Strategy.MinProfitPercent,
		"min_volume":          c.Strategy.MinVolume,
		"min_volatility":      c.Strategy.MinVolatility,
		"high_volume":         c.Strategy.HighVolume,
		"breakout_volatility": c.Strategy.BreakoutVolatility,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("strategy: %s must be >= 0", name))
		}
	}
	if c.Strategy.BatchSize < 1 {
		errs = append(errs, "strategy: batch_size must be >= 1")
	}
	if c.Strategy.BatchPause.Duration < 0 {
		errs = append(errs, "strategy: batch_pause must be >= 0")
	}
	for _, name := range c.Strategy.Enabled {
		if !domain.Strategy(name).Valid() {
			errs = append(errs, fmt.Sprintf("strategy: unknown strategy %q in enabled", name))
		}
	}

	// Matcher
	for i, p := range c.Matcher.EventPairs {
		if strings.TrimSpace(p.EventName) == "" {
			errs = append(errs, fmt.Sprintf("matcher: event_pairs[%d] needs an event_name", i))
		}
		if p.VenueAID == "" && p.VenueBID == "" {
			errs = append(errs, fmt.Sprintf("matcher: event_pairs[%d] needs venue_a_id or venue_b_id", i))
		}
	}

	// Scanner
	if c.Scanner.Interval.Duration < 0 {
		errs = append(errs, "scanner: interval must be >= 0")
	}
	if strings.EqualFold(c.Mode, "monitor") && c.Scanner.Interval.Duration <= 0 {
		errs = append(errs, "scanner: interval must be > 0 in monitor mode")
	}

	// Realtime
	if c.Realtime.Enabled {
		if c.Polymarket.WsHost == "" {
			errs = append(errs, "polymarket: ws_host must not be empty when realtime is enabled")
		}
		if c.Realtime.MaxAssets < 1 {
			errs = append(errs, "realtime: max_assets must be >= 1")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.ResultTTL.Duration <= 0 {
			errs = append(errs, "redis: result_ttl must be > 0")
		}
		if c.Redis.BookTTL.Duration <= 0 {
			errs = append(errs, "redis: book_ttl must be > 0")
		}
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, "kafka: brokers must not be empty when enabled")
		}
		if c.Kafka.Topic == "" {
			errs = append(errs, "kafka: topic must not be empty when enabled")
		}
	}

	// Server
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimitPerMinute < 0 {
		errs = append(errs, "server: rate_limit_per_minute must be >= 0")
	}

	// Notify
	for _, ev := range c.Notify.Events {
		if !validEvents[ev] {
			errs = append(errs, fmt.Sprintf("notify: unknown event %q", ev))
		}
	}
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
