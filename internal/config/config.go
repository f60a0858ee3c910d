package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	DatabaseURL string
	RedisURL    string
	LogLevel    string
	LogFormat   string
	APIKey      string

	OpenAIAPIKey string
	OpenAIModel  string

	BenchmarkSymbol      string
	YahooBaseURL         string
	YahooRatePerSec      float64
	BarCacheSize         int
	IntradayCacheSize    int
	BarCacheTTL          time.Duration
	IntradayLookbackDays int

	AnalysisWorkers     int
	MonteCarloSeed      uint64
	MonteCarloTrials    int
	TransactionCostRate float64
	ThresholdsFile      string

	BenchmarkWarmSchedule string

	TracingEnabled bool
	OTLPEndpoint   string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:    strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:       strings.TrimSpace(os.Getenv("REDIS_URL")),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		APIKey:         strings.TrimSpace(os.Getenv("API_KEY")),
		YahooBaseURL:   strings.TrimSpace(os.Getenv("YAHOO_BASE_URL")),
		ThresholdsFile: strings.TrimSpace(os.Getenv("THRESHOLDS_FILE")),
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, bar archive and strategy tags disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, using in-process bar cache only")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY not set, coaching falls back to templates")
	}

	cfg.Port = envString("PORT", "8080")
	cfg.LogLevel = strings.ToLower(envString("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(envString("LOG_FORMAT", "json"))
	cfg.OpenAIModel = envString("OPENAI_MODEL", "gpt-4o-mini")
	cfg.BenchmarkSymbol = strings.ToUpper(envString("BENCHMARK_SYMBOL", "SPY"))
	cfg.BenchmarkWarmSchedule = envString("BENCHMARK_WARM_SCHEDULE", "0 */6 * * *")

	cfg.YahooRatePerSec = envFloat("YAHOO_RATE_PER_SEC", 2, func(f float64) bool { return f > 0 })
	cfg.BarCacheSize = envInt("BAR_CACHE_SIZE", 2000, positive)
	cfg.IntradayCacheSize = envInt("INTRADAY_CACHE_SIZE", 500, positive)
	cfg.BarCacheTTL = envDuration("BAR_CACHE_TTL", 12*time.Hour)
	cfg.IntradayLookbackDays = envInt("INTRADAY_LOOKBACK_DAYS", 60, positive)

	cfg.AnalysisWorkers = envInt("ANALYSIS_WORKERS", 8, positive)
	cfg.MonteCarloTrials = envInt("MONTE_CARLO_TRIALS", 1000, positive)
	cfg.TransactionCostRate = envFloat("TRANSACTION_COST_RATE", 0.001, func(f float64) bool { return f >= 0 && f < 1 })

	cfg.TracingEnabled = !strings.EqualFold(strings.TrimSpace(os.Getenv("TRACING_ENABLED")), "false")
	cfg.OTLPEndpoint = envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")

	cfg.MonteCarloSeed = 42
	if v := strings.TrimSpace(os.Getenv("MONTE_CARLO_SEED")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.MonteCarloSeed = n
		} else {
			log.Warn().Str("value", v).Msg("invalid MONTE_CARLO_SEED, using 42")
		}
	}

	return cfg
}

func positive(n int) bool { return n > 0 }

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, valid func(int) bool) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || !valid(n) {
		log.Warn().Str("key", key).Str("value", v).Int("default", def).Msg("invalid config value")
		return def
	}
	return n
}

func envFloat(key string, def float64, valid func(float64) bool) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || !valid(f) {
		log.Warn().Str("key", key).Str("value", v).Float64("default", def).Msg("invalid config value")
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", v).Dur("default", def).Msg("invalid config value")
		return def
	}
	return d
}
