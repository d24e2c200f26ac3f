package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCAN_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment. The returned Config has NOT been validated; the caller
// should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBSCAN_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.ClobHost, "ARBSCAN_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.WsHost, "ARBSCAN_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.PageSize, "ARBSCAN_POLYMARKET_PAGE_SIZE")
	setInt(&cfg.Polymarket.MaxMarkets, "ARBSCAN_POLYMARKET_MAX_MARKETS")
	setFloat64(&cfg.Polymarket.RateLimitRPS, "ARBSCAN_POLYMARKET_RATE_LIMIT_RPS")
	setInt(&cfg.Polymarket.RateLimitBurst, "ARBSCAN_POLYMARKET_RATE_LIMIT_BURST")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "ARBSCAN_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "ARBSCAN_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBSCAN_KALSHI_RSA_PRIVATE_KEY_PATH")
	setInt(&cfg.Kalshi.PageSize, "ARBSCAN_KALSHI_PAGE_SIZE")
	setInt(&cfg.Kalshi.MaxMarkets, "ARBSCAN_KALSHI_MAX_MARKETS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ARBSCAN_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ARBSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCAN_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.ResultTTL, "ARBSCAN_REDIS_RESULT_TTL")
	setDuration(&cfg.Redis.BookTTL, "ARBSCAN_REDIS_BOOK_TTL")

	// ── Kafka ──
	setBool(&cfg.Kafka.Enabled, "ARBSCAN_KAFKA_ENABLED")
	setStringSlice(&cfg.Kafka.Brokers, "ARBSCAN_KAFKA_BROKERS")
	setStr(&cfg.Kafka.Topic, "ARBSCAN_KAFKA_TOPIC")
	setBool(&cfg.Kafka.EnsureTopic, "ARBSCAN_KAFKA_ENSURE_TOPIC")

	// ── Arbitrage ──
	setFloat64(&cfg.Arbitrage.VenueAFee, "ARBSCAN_ARBITRAGE_VENUE_A_FEE")
	setFloat64(&cfg.Arbitrage.VenueBFee, "ARBSCAN_ARBITRAGE_VENUE_B_FEE")
	setFloat64(&cfg.Arbitrage.DefaultBankroll, "ARBSCAN_ARBITRAGE_DEFAULT_BANKROLL")

	// ── Strategy ──
	setFloat64(&cfg.Strategy.VenueFee, "ARBSCAN_STRATEGY_VENUE_FEE")
	setFloat64(&cfg.Strategy.MinLiquidity, "ARBSCAN_STRATEGY_MIN_LIQUIDITY")
	setFloat64(&cfg.Strategy.MinSpreadPercent, "ARBSCAN_STRATEGY_MIN_SPREAD_PERCENT")
	setFloat64(&cfg.Strategy.MinProfitPercent, "ARBSCAN_STRATEGY_MIN_PROFIT_PERCENT")
	setFloat64(&cfg.Strategy.MinVolume, "ARBSCAN_STRATEGY_MIN_VOLUME")
	setFloat64(&cfg.Strategy.MinVolatility, "ARBSCAN_STRATEGY_MIN_VOLATILITY")
	setFloat64(&cfg.Strategy.HighVolume, "ARBSCAN_STRATEGY_HIGH_VOLUME")
	setFloat64(&cfg.Strategy.BreakoutVolatility, "ARBSCAN_STRATEGY_BREAKOUT_VOLATILITY")
	setInt(&cfg.Strategy.BatchSize, "ARBSCAN_STRATEGY_BATCH_SIZE")
	setDuration(&cfg.Strategy.BatchPause, "ARBSCAN_STRATEGY_BATCH_PAUSE")
	setStringSlice(&cfg.Strategy.Enabled, "ARBSCAN_STRATEGY_ENABLED")

	// ── Scanner / Realtime ──
	setDuration(&cfg.Scanner.Interval, "ARBSCAN_SCANNER_INTERVAL")
	setBool(&cfg.Realtime.Enabled, "ARBSCAN_REALTIME_ENABLED")
	setInt(&cfg.Realtime.MaxAssets, "ARBSCAN_REALTIME_MAX_ASSETS")
	setDuration(&cfg.Realtime.ReconnectDelay, "ARBSCAN_REALTIME_RECONNECT_DELAY")
	setInt(&cfg.Realtime.MaxReconnectAttempts, "ARBSCAN_REALTIME_MAX_RECONNECT_ATTEMPTS")

	// ── Server ──
	setInt(&cfg.Server.Port, "ARBSCAN_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARBSCAN_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "ARBSCAN_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimitPerMinute, "ARBSCAN_SERVER_RATE_LIMIT_PER_MINUTE")
	setInt(&cfg.Server.Port, "PORT") // platform-assigned port wins

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCAN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ARBSCAN_NOTIFY_EVENTS")
	setFloat64(&cfg.Notify.MinProfitPercent, "ARBSCAN_NOTIFY_MIN_PROFIT_PERCENT")

	// ── Top-level ──
	setStr(&cfg.Mode, "ARBSCAN_MODE")
	setStr(&cfg.LogLevel, "ARBSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
