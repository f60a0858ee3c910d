package job

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

const warmLookback = 400 * 24 * time.Hour

// BenchmarkSource loads benchmark bars through the bar store so every
// cache tier and the archive are refreshed along the way.
type BenchmarkSource interface {
	Symbol() string
	GetBenchmarkBars(ctx context.Context, start, end time.Time) ([]domain.MarketBar, error)
}

// BenchmarkWarmer refreshes the benchmark's recent daily bars on a cron
// schedule.
type BenchmarkWarmer struct {
	tracer   trace.Tracer
	logger   zerolog.Logger
	source   BenchmarkSource
	schedule string
	now      func() time.Time
}

func NewBenchmarkWarmer(tracer trace.Tracer, logger zerolog.Logger, source BenchmarkSource, schedule string) *BenchmarkWarmer {
	if schedule == "" {
		schedule = "0 */6 * * *"
	}
	return &BenchmarkWarmer{
		tracer:   tracer,
		logger:   logger.With().Str("job", "benchmark-warmer").Logger(),
		source:   source,
		schedule: schedule,
		now:      time.Now,
	}
}

// Start runs one warm-up immediately, then on every schedule tick until ctx
// is cancelled. It returns an error only for an invalid schedule.
func (w *BenchmarkWarmer) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(w.schedule, func() { w.run(ctx) }); err != nil {
		return fmt.Errorf("register benchmark warm-up %q: %w", w.schedule, err)
	}

	w.run(ctx)
	c.Start()
	w.logger.Info().Str("schedule", w.schedule).Str("symbol", w.source.Symbol()).Msg("benchmark warmer started")

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info().Msg("benchmark warmer stopped")
	return nil
}

func (w *BenchmarkWarmer) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := w.RunOnce(ctx); err != nil {
		w.logger.Warn().Err(err).Msg("benchmark warm-up failed")
	}
}

// RunOnce loads the last 400 days of benchmark bars and reports how many
// came back.
func (w *BenchmarkWarmer) RunOnce(ctx context.Context) (int, error) {
	ctx, span := w.tracer.Start(ctx, "job.BenchmarkWarmer.RunOnce")
	defer span.End()

	end := w.now().UTC().Truncate(24 * time.Hour)
	start := end.Add(-warmLookback)
	span.SetAttributes(attribute.String("symbol", w.source.Symbol()))

	bars, err := w.source.GetBenchmarkBars(ctx, start, end)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("warm %s: %w", w.source.Symbol(), err)
	}

	span.SetAttributes(attribute.Int("bars", len(bars)))
	w.logger.Debug().Int("bars", len(bars)).Time("start", start).Time("end", end).Msg("benchmark warmed")
	return len(bars), nil
}
