package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/config"
	"trading-mirror/internal/job"
	"trading-mirror/pkg/tracing"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var (
		router      *gin.Engine
		warmStarted bool
	)
	stubServerDeps(t)
	newRouterFunc = func(opts ...gin.OptionFunc) *gin.Engine {
		router = gin.New(opts...)
		return router
	}
	startWarmerFunc = func(*job.BenchmarkWarmer, context.Context) { warmStarted = true }

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}

	if !warmStarted {
		t.Fatal("expected benchmark warmer to start")
	}
	routes := map[string]bool{}
	for _, r := range router.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{"GET /health", "POST /api/analyze", "POST /api/coach", "PUT /api/trades/:id/tag", "GET /swagger/*any"} {
		if !routes[want] {
			t.Fatalf("missing route %s", want)
		}
	}
}

func TestNewLLMClientFunc(t *testing.T) {
	if c := newLLMClientFunc(""); c != nil {
		t.Fatal("expected template-only coaching without an api key")
	}
	if c := newLLMClientFunc("sk-test"); c == nil {
		t.Fatal("expected an openai client with an api key")
	}
}

func stubServerDeps(t *testing.T) {
	t.Helper()
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origStartWarmer := startWarmerFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			Port:                  "18080",
			LogLevel:              "error",
			BenchmarkSymbol:       "SPY",
			BarCacheSize:          10,
			IntradayCacheSize:     10,
			IntradayLookbackDays:  60,
			AnalysisWorkers:       2,
			MonteCarloSeed:        42,
			MonteCarloTrials:      100,
			TransactionCostRate:   0.001,
			BenchmarkWarmSchedule: "@every 1h",
		}
	}
	initPostgresFunc = func(context.Context, string) error { return nil }
	initRedisFunc = func(context.Context, string) error { return nil }
	initTracerFunc = func(ctx context.Context, opts tracing.Options) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	startWarmerFunc = func(*job.BenchmarkWarmer, context.Context) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	t.Cleanup(func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		startWarmerFunc = origStartWarmer
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	})
}
