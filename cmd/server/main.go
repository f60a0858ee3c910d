package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/analysis"
	"trading-mirror/internal/cache"
	"trading-mirror/internal/coach"
	"trading-mirror/internal/config"
	"trading-mirror/internal/db"
	"trading-mirror/internal/handler"
	"trading-mirror/internal/job"
	"trading-mirror/internal/logging"
	"trading-mirror/internal/marketdata"
	"trading-mirror/internal/provider"
	"trading-mirror/internal/repository"
	"trading-mirror/pkg/tracing"

	_ "trading-mirror/docs"
)

var (
	loadEnvFunc          = godotenv.Load
	loadConfigFunc       = config.Load
	loadThresholdsFunc   = analysis.LoadThresholds
	initPostgresFunc     = db.InitPostgres
	initRedisFunc        = cache.InitRedis
	initTracerFunc       = tracing.InitTracer
	newYahooProviderFunc = func(tracer trace.Tracer, cfg *config.Config) *provider.YahooProvider {
		return provider.NewYahooProvider(tracer, cfg.YahooBaseURL, cfg.YahooRatePerSec)
	}
	newLLMClientFunc = func(apiKey string) coach.LLMClient {
		if apiKey == "" {
			return nil
		}
		return coach.NewOpenAIClient(apiKey)
	}
	startWarmerFunc = func(w *job.BenchmarkWarmer, ctx context.Context) {
		go func() {
			if err := w.Start(ctx); err != nil {
				log.Error().Err(err).Msg("benchmark warmer not started")
			}
		}()
	}
	newRouterFunc          = gin.New
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Trading Mirror API
// @version         1.0
// @description     Trade enrichment and behavioral scoring engine.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        X-API-Key
func main() {
	_ = loadEnvFunc()

	cfg := loadConfigFunc()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logging.SetGlobal(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres and Redis are optional; without them the store runs on the
	// in-process LRU only and strategy tags are disabled.
	if err := initPostgresFunc(ctx, cfg.DatabaseURL); err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable, continuing without archive")
	}
	defer db.Close()
	if err := initRedisFunc(ctx, cfg.RedisURL); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, continuing without shared cache")
	}

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{Enabled: cfg.TracingEnabled, Endpoint: cfg.OTLPEndpoint})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracer")
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("error shutting down tracer provider")
		}
	}()

	th, err := loadThresholdsFunc(cfg.ThresholdsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load thresholds")
	}
	th.MonteCarloSeed = cfg.MonteCarloSeed
	th.MonteCarloTrials = cfg.MonteCarloTrials
	th.TransactionCostRate = cfg.TransactionCostRate

	var (
		barRepo  marketdata.BarRepository
		tagStore handler.TagStore
		tagRepo  *repository.StrategyTagRepository
	)
	if db.Pool != nil {
		bars := repository.NewBarRepository(db.Pool, tracer)
		tagRepo = repository.NewStrategyTagRepository(db.Pool, tracer)
		if err := bars.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run bar migrations")
		}
		if err := tagRepo.RunMigrations(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run tag migrations")
		}
		barRepo = bars
		tagStore = tagRepo
	}

	var redisClient marketdata.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
	}

	yahoo := newYahooProviderFunc(tracer, cfg)
	store, err := marketdata.NewStore(tracer, logger.With().Str("component", "marketdata").Logger(),
		yahoo, yahoo, barRepo, redisClient, marketdata.Options{
			DailyCacheSize:    cfg.BarCacheSize,
			IntradayCacheSize: cfg.IntradayCacheSize,
			RedisTTL:          cfg.BarCacheTTL,
			IntradayLookback:  time.Duration(cfg.IntradayLookbackDays) * 24 * time.Hour,
		})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build bar store")
	}
	benchmark := marketdata.NewBenchmark(store, cfg.BenchmarkSymbol)

	engineOpts := []analysis.Option{
		analysis.WithIntraday(store),
		analysis.WithBenchmark(benchmark),
		analysis.WithLogger(logger.With().Str("component", "analysis").Logger()),
		analysis.WithWorkers(cfg.AnalysisWorkers),
	}
	if tagRepo != nil {
		engineOpts = append(engineOpts, analysis.WithTags(tagRepo))
	}
	engine := analysis.NewEngine(tracer, store, th, engineOpts...)

	coachSvc := coach.NewService(tracer, logger, newLLMClientFunc(cfg.OpenAIAPIKey), cfg.OpenAIModel)

	warmer := job.NewBenchmarkWarmer(tracer, logger, benchmark, cfg.BenchmarkWarmSchedule)
	startWarmerFunc(warmer, ctx)

	h := handler.New(tracer, logger, engine, coachSvc, tagStore)

	r := newRouterFunc()
	r.Use(gin.Recovery(), handler.RequestLogger(logger), otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r, handler.APIKeyAuth(cfg.APIKey))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	logger.Info().Msg("shutting down server")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting")
}
