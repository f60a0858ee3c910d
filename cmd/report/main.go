package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"trading-mirror/internal/analysis"
	"trading-mirror/internal/coach"
	"trading-mirror/internal/config"
	"trading-mirror/internal/domain"
	"trading-mirror/internal/ingest"
	"trading-mirror/internal/logging"
	"trading-mirror/internal/marketdata"
	"trading-mirror/internal/provider"
	"trading-mirror/pkg/tracing"
)

type analyzer interface {
	Analyze(ctx context.Context, trades []domain.Trade) (*domain.AnalysisReport, error)
}

var (
	loadEnvFunc        = godotenv.Load
	loadConfigFunc     = config.Load
	loadThresholdsFunc = analysis.LoadThresholds
	newAnalyzerFunc    = newEngine
	runProgramFunc     = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
	exitFunc = os.Exit
)

// report analyzes a trade CSV offline and opens the result in a terminal
// viewer. Market data comes straight from Yahoo through the in-process cache.
func main() {
	_ = loadEnvFunc()
	cfg := loadConfigFunc()
	logger := logging.New(cfg.LogLevel, "console")

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: report <trades.csv>")
		exitFunc(2)
		return
	}
	if err := run(context.Background(), cfg, logger, os.Args[1]); err != nil {
		logger.Error().Err(err).Msg("report failed")
		exitFunc(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open trades: %w", err)
	}
	defer f.Close()

	trades, err := ingest.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parse trades: %w", err)
	}

	engine, shutdown, err := newAnalyzerFunc(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer shutdown()

	report, err := engine.Analyze(ctx, trades)
	if err != nil {
		if errors.Is(err, analysis.ErrNoTrades) {
			return fmt.Errorf("%s contains no trades", path)
		}
		return fmt.Errorf("analyze: %w", err)
	}
	if report.MarketDataFailures > 0 {
		logger.Warn().Int("failures", report.MarketDataFailures).Msg("some trades have no market data")
	}

	return runProgramFunc(newReportModel(report, coach.BuildPlaybook(*report)))
}

func newEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (analyzer, func(), error) {
	tp, tracer, err := tracing.InitTracer(ctx, tracing.Options{Enabled: false})
	if err != nil {
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}
	shutdown := func() { _ = tp.Shutdown(context.Background()) }

	th, err := loadThresholdsFunc(cfg.ThresholdsFile)
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("load thresholds: %w", err)
	}
	th.MonteCarloSeed = cfg.MonteCarloSeed
	th.MonteCarloTrials = cfg.MonteCarloTrials
	th.TransactionCostRate = cfg.TransactionCostRate

	yahoo := provider.NewYahooProvider(tracer, cfg.YahooBaseURL, cfg.YahooRatePerSec)
	store, err := marketdata.NewStore(tracer, logger, yahoo, yahoo, nil, nil, marketdata.Options{
		DailyCacheSize:    cfg.BarCacheSize,
		IntradayCacheSize: cfg.IntradayCacheSize,
		IntradayLookback:  time.Duration(cfg.IntradayLookbackDays) * 24 * time.Hour,
	})
	if err != nil {
		shutdown()
		return nil, nil, fmt.Errorf("build bar store: %w", err)
	}

	engine := analysis.NewEngine(tracer, store, th,
		analysis.WithIntraday(store),
		analysis.WithBenchmark(marketdata.NewBenchmark(store, cfg.BenchmarkSymbol)),
		analysis.WithLogger(logger),
		analysis.WithWorkers(cfg.AnalysisWorkers),
	)
	return engine, shutdown, nil
}
