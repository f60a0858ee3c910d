package analysis

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

type fakeBars struct {
	bars map[string][]domain.MarketBar
	errs map[string]error
}

func (f *fakeBars) GetBars(_ context.Context, ticker string, _, _ time.Time) ([]domain.MarketBar, error) {
	if err := f.errs[ticker]; err != nil {
		return nil, err
	}
	bars, ok := f.bars[ticker]
	if !ok {
		return nil, domain.ErrBarsNotFound
	}
	return bars, nil
}

type fakeIntraday struct {
	err error
}

func (f *fakeIntraday) GetIntradayBars(context.Context, string, time.Time, string) ([]domain.MarketBar, error) {
	return nil, f.err
}

type fakeBenchmark struct {
	bars []domain.MarketBar
	err  error
}

func (f *fakeBenchmark) GetBenchmarkBars(context.Context, time.Time, time.Time) ([]domain.MarketBar, error) {
	return f.bars, f.err
}

type fakeTags struct {
	mu   sync.Mutex
	ids  []string
	tags map[string]string
}

func (f *fakeTags) GetTags(_ context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append([]string(nil), ids...)
	return f.tags, nil
}

func testTracer() trace.Tracer {
	return trace.NewNoopTracerProvider().Tracer("test")
}

func aaaStore() *fakeBars {
	return &fakeBars{
		bars: map[string][]domain.MarketBar{"AAA": flatSeries(day(2023, 11, 1), 120, 90, 110, 1000)},
		errs: map[string]error{},
	}
}

// revengePair is a loss on AAA followed by a re-entry on the exit day.
func revengePair() []domain.Trade {
	return []domain.Trade{
		{Ticker: "AAA", EntryTime: day(2024, 1, 5), ExitTime: day(2024, 1, 8), EntryPrice: 100, ExitPrice: 105, Quantity: 1},
		{Ticker: "AAA", EntryTime: day(2024, 1, 2), ExitTime: day(2024, 1, 5), EntryPrice: 110, ExitPrice: 95, Quantity: 1},
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds())
	if _, err := e.Analyze(context.Background(), nil); !errors.Is(err, ErrNoTrades) {
		t.Fatalf("expected ErrNoTrades, got %v", err)
	}
}

func TestAnalyzeRevengeAndLowSample(t *testing.T) {
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds())
	report, err := e.Analyze(context.Background(), revengePair())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(report.Trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(report.Trades))
	}
	first, second := report.Trades[0], report.Trades[1]
	if first.ID != "AAA-2024-01-02" || second.ID != "AAA-2024-01-05" {
		t.Fatalf("trades not sorted by entry: %s, %s", first.ID, second.ID)
	}
	if first.IsRevenge || !second.IsRevenge || report.Metrics.RevengeTradingCount != 1 {
		t.Fatalf("expected second trade flagged as revenge, got %v/%v", first.IsRevenge, second.IsRevenge)
	}
	if !approx(first.PnL, -15) || !approx(first.TransactionCost, 0.205) || !approx(first.NetPnL, -15.205) {
		t.Fatalf("unexpected pnl fields %+v", first)
	}
	if !approx(first.FomoScore, 1) || !approx(second.FomoScore, 0.5) {
		t.Fatalf("unexpected fomo scores %v, %v", first.FomoScore, second.FomoScore)
	}
	if !approx(report.Metrics.TotalPnL, -10) {
		t.Fatalf("expected total pnl -10, got %v", report.Metrics.TotalPnL)
	}

	if !report.IsLowSample {
		t.Fatal("two trades is a low sample")
	}
	if report.PersonalBaseline != nil || report.BehaviorShift != nil {
		t.Fatal("baseline and shifts need more history")
	}
	if report.Metrics.LuckPercentile != 50 {
		t.Fatalf("expected luck 50, got %v", report.Metrics.LuckPercentile)
	}
	if report.Metrics.AlphaMethod != domain.AlphaMethodAverageReturn || report.Metrics.Beta != nil {
		t.Fatalf("expected average-return alpha, got %+v", report.Metrics)
	}
	if ts := report.Metrics.TruthScore; ts < 0 || ts > 100 {
		t.Fatalf("truth score out of range: %d", ts)
	}
	if first.Contextual == nil {
		t.Fatal("high fomo trade should carry a contextual score")
	}
}

func TestAnalyzeMarketDataFailureDegrades(t *testing.T) {
	bars := aaaStore()
	bars.errs["BAD"] = errors.New("upstream 500")
	trades := append(revengePair(), domain.Trade{
		Ticker: "BAD", EntryTime: day(2024, 1, 3), ExitTime: day(2024, 1, 4), EntryPrice: 10, ExitPrice: 9,
	})

	report, err := NewEngine(testTracer(), bars, DefaultThresholds()).Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.MarketDataFailures != 1 {
		t.Fatalf("expected one failure, got %d", report.MarketDataFailures)
	}
	if len(report.Trades) != 3 {
		t.Fatalf("failed trade must stay in the list, got %d", len(report.Trades))
	}
	var bad domain.EnrichedTrade
	for _, tr := range report.Trades {
		if tr.Ticker == "BAD" {
			bad = tr
		}
	}
	if bad.FomoScore != domain.ScoreUnavailable || bad.PanicScore != domain.ScoreUnavailable {
		t.Fatalf("expected sentinel scores, got %+v", bad)
	}
	if !approx(bad.PnL, -1) {
		t.Fatalf("pnl is computed without market data, got %v", bad.PnL)
	}
	if !approx(report.Metrics.FomoIndex, 0.75) {
		t.Fatalf("sentinels must be excluded from averages, got %v", report.Metrics.FomoIndex)
	}
}

func TestAnalyzeNonFiniteInputs(t *testing.T) {
	trades := append(revengePair(),
		domain.Trade{Ticker: "AAA", EntryTime: day(2024, 1, 8), ExitTime: day(2024, 1, 9), EntryPrice: math.NaN(), ExitPrice: 100},
		domain.Trade{Ticker: "AAA", EntryTime: day(2024, 1, 10), ExitTime: day(2024, 1, 11), EntryPrice: 100, ExitPrice: 101, Quantity: math.Inf(1)},
	)
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds())
	report, err := e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Trades) != 4 {
		t.Fatalf("expected 4 trades, got %d", len(report.Trades))
	}
	for _, tr := range report.Trades {
		for _, v := range []float64{tr.PnL, tr.TransactionCost, tr.NetPnL, tr.ReturnPct} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("%s: non-finite money field in %+v", tr.ID, tr)
			}
		}
	}
	nan := report.Trades[2]
	if nan.FomoScore != domain.ScoreUnavailable || nan.PnL != 0 {
		t.Fatalf("expected NaN-priced trade to degrade, got %+v", nan)
	}
}

func TestCashFlows(t *testing.T) {
	tests := []struct {
		name      string
		trade     domain.Trade
		pnl, cost float64
	}{
		{"plain", domain.Trade{EntryPrice: 100, ExitPrice: 110, Quantity: 2}, 20, 2.1},
		{"nan entry", domain.Trade{EntryPrice: math.NaN(), ExitPrice: 110}, 0, 0},
		{"inf exit", domain.Trade{EntryPrice: 100, ExitPrice: math.Inf(1)}, 0, 0},
		{"inf quantity", domain.Trade{EntryPrice: 100, ExitPrice: 110, Quantity: math.Inf(1)}, 0, 0},
		{"nan quantity", domain.Trade{EntryPrice: 100, ExitPrice: 110, Quantity: math.NaN()}, 0, 0},
	}
	for _, tt := range tests {
		pnl, cost := cashFlows(tt.trade, 0.005)
		if !approx(pnl.InexactFloat64(), tt.pnl) || !approx(cost.InexactFloat64(), tt.cost) {
			t.Fatalf("%s: got pnl %v cost %v", tt.name, pnl, cost)
		}
	}
}

func TestAnalyzeAllDataMissing(t *testing.T) {
	bars := &fakeBars{errs: map[string]error{"X": errors.New("boom")}}
	var trades []domain.Trade
	for i := 0; i < 6; i++ {
		trades = append(trades, domain.Trade{
			Ticker: "X", EntryTime: day(2024, 2, 1+i), ExitTime: day(2024, 2, 2+i), EntryPrice: 10, ExitPrice: 10 + float64(i%3) - 1,
		})
	}
	report, err := NewEngine(testTracer(), bars, DefaultThresholds()).Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.MarketDataFailures != 6 {
		t.Fatalf("expected 6 failures, got %d", report.MarketDataFailures)
	}
	if ts := report.Metrics.TruthScore; ts < 0 || ts > 100 {
		t.Fatalf("truth score out of range: %d", ts)
	}
}

func TestAnalyzeBenchmarkFailure(t *testing.T) {
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds(),
		WithBenchmark(&fakeBenchmark{err: errors.New("timeout")}))
	report, err := e.Analyze(context.Background(), revengePair())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.BenchmarkLoadFailed {
		t.Fatal("expected benchmark failure flag")
	}
	for _, tr := range report.Trades {
		if tr.MarketRegime != domain.RegimeUnknown {
			t.Fatalf("expected UNKNOWN regime, got %s", tr.MarketRegime)
		}
	}
	if report.OpportunityCost != nil || report.EquityCurve[0].BenchmarkCumulativePnL != nil {
		t.Fatal("no benchmark means no benchmark comparison")
	}
}

func TestAnalyzeWithBenchmark(t *testing.T) {
	bench := make([]domain.MarketBar, 120)
	for i := range bench {
		c := 100 + float64(i)
		bench[i] = domain.MarketBar{Date: day(2023, 11, 1).AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1}
	}
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds(), WithBenchmark(&fakeBenchmark{bars: bench}))
	report, err := e.Analyze(context.Background(), revengePair())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.BenchmarkLoadFailed {
		t.Fatal("benchmark should load")
	}
	if report.Trades[0].MarketRegime == domain.RegimeUnknown {
		t.Fatal("expected a classified regime")
	}
	if report.EquityCurve[1].BenchmarkCumulativePnL == nil {
		t.Fatal("expected benchmark overlay")
	}
	if report.OpportunityCost == nil || report.OpportunityCost.BiasedTrades == 0 {
		t.Fatalf("expected opportunity cost for biased trades, got %+v", report.OpportunityCost)
	}
}

func TestAnalyzeIntradayFailureFlag(t *testing.T) {
	trades := []domain.Trade{{
		Ticker: "AAA", EntryTime: time.Date(2024, 1, 3, 10, 30, 0, 0, time.UTC), ExitTime: day(2024, 1, 9),
		EntryPrice: 100, ExitPrice: 101,
	}}

	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds(), WithIntraday(&fakeIntraday{err: errors.New("rate limited")}))
	report, err := e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.IntradayLoadFailed || report.MarketDataFailures != 0 {
		t.Fatalf("expected intraday-only failure, got %+v", report)
	}
	if report.Trades[0].UsedIntraday {
		t.Fatal("daily fallback expected")
	}

	e = NewEngine(testTracer(), aaaStore(), DefaultThresholds(), WithIntraday(&fakeIntraday{err: domain.ErrBarsNotFound}))
	report, err = e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.IntradayLoadFailed {
		t.Fatal("missing intraday data is not a failure")
	}
}

func TestAnalyzeDuplicateIDsAndTags(t *testing.T) {
	trades := []domain.Trade{
		{Ticker: "AAA", EntryTime: day(2024, 1, 3), ExitTime: day(2024, 1, 4), EntryPrice: 100, ExitPrice: 101},
		{Ticker: "AAA", EntryTime: day(2024, 1, 3), ExitTime: day(2024, 1, 5), EntryPrice: 100, ExitPrice: 102},
	}
	tags := &fakeTags{tags: map[string]string{"AAA-2024-01-03-2": "breakout"}}

	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds(), WithTags(tags))
	report, err := e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Trades[0].ID != "AAA-2024-01-03" || report.Trades[1].ID != "AAA-2024-01-03-2" {
		t.Fatalf("unexpected ids %s, %s", report.Trades[0].ID, report.Trades[1].ID)
	}
	if report.Trades[1].StrategyTag != "breakout" || report.Trades[0].StrategyTag != "" {
		t.Fatalf("tags not attached: %+v", report.Trades)
	}
	if len(tags.ids) != 2 {
		t.Fatalf("expected lookup of both ids, got %v", tags.ids)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	var trades []domain.Trade
	for i := 0; i < 12; i++ {
		entry := day(2024, 1, 2).AddDate(0, 0, i*3)
		trades = append(trades, domain.Trade{
			Ticker: "AAA", EntryTime: entry, ExitTime: entry.AddDate(0, 0, 1+i%4),
			EntryPrice: 92 + float64(i%5)*4, ExitPrice: 95 + float64((i*7)%6)*3, Quantity: float64(1 + i%3),
		})
	}
	e := NewEngine(testTracer(), aaaStore(), DefaultThresholds(), WithWorkers(4))

	a, err := e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Analyze(context.Background(), trades)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical input must give identical reports")
	}
	if a.IsLowSample || a.PersonalBaseline == nil {
		t.Fatal("twelve trades should have a baseline")
	}
	if len(a.EquityCurve) != len(trades) {
		t.Fatalf("expected %d equity points, got %d", len(trades), len(a.EquityCurve))
	}
	if last := a.EquityCurve[len(a.EquityCurve)-1].CumulativePnL; !approx(last, a.Metrics.TotalPnL) {
		t.Fatalf("equity curve should end at total pnl: %v vs %v", last, a.Metrics.TotalPnL)
	}
}

func TestAnalysisIDStable(t *testing.T) {
	trades := revengePair()
	id := AnalysisID(trades)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("invalid uuid %q: %v", id, err)
	}
	if AnalysisID(revengePair()) != id {
		t.Fatal("same trades must give the same id")
	}
	trades[0].ExitPrice++
	if AnalysisID(trades) == id {
		t.Fatal("different trades should give a different id")
	}
}
