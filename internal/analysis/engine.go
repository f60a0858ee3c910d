package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/regime"
	"trading-mirror/internal/ta"
)

var ErrNoTrades = errors.New("no trades to analyze")

const (
	barBufferBefore  = 40 * 24 * time.Hour
	barBufferAfter   = 10 * 24 * time.Hour
	intradayInterval = "5m"
)

// BarStore supplies daily bars for a ticker over a date range. Calls with
// identical arguments must return identical data.
type BarStore interface {
	GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.MarketBar, error)
}

// IntradayStore supplies intraday bars for one calendar day.
type IntradayStore interface {
	GetIntradayBars(ctx context.Context, ticker string, date time.Time, interval string) ([]domain.MarketBar, error)
}

// BenchmarkProvider supplies daily bars of the fixed benchmark index.
type BenchmarkProvider interface {
	GetBenchmarkBars(ctx context.Context, start, end time.Time) ([]domain.MarketBar, error)
}

// TagStore looks up user strategy labels by trade id.
type TagStore interface {
	GetTags(ctx context.Context, tradeIDs []string) (map[string]string, error)
}

type Option func(*Engine)

func WithIntraday(s IntradayStore) Option       { return func(e *Engine) { e.intraday = s } }
func WithBenchmark(p BenchmarkProvider) Option  { return func(e *Engine) { e.benchmark = p } }
func WithTags(s TagStore) Option                { return func(e *Engine) { e.tags = s } }
func WithLogger(l zerolog.Logger) Option        { return func(e *Engine) { e.logger = l } }
func WithRandSource(f func() *rand.Rand) Option { return func(e *Engine) { e.newRand = f } }

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// Engine runs the full enrichment and scoring pipeline for one trade set.
type Engine struct {
	tracer     trace.Tracer
	logger     zerolog.Logger
	bars       BarStore
	intraday   IntradayStore
	benchmark  BenchmarkProvider
	tags       TagStore
	th         Thresholds
	classifier *regime.Classifier
	workers    int
	newRand    func() *rand.Rand
}

func NewEngine(tracer trace.Tracer, bars BarStore, th Thresholds, opts ...Option) *Engine {
	e := &Engine{
		tracer:     tracer,
		logger:     zerolog.Nop(),
		bars:       bars,
		th:         th,
		classifier: regime.NewClassifier(th.Regime),
		workers:    runtime.GOMAXPROCS(0),
	}
	e.newRand = func() *rand.Rand { return NewSeededRand(e.th.MonteCarloSeed) }
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze enriches and scores trades. Collaborator failures degrade the
// affected fields and set load-failed flags; the only error is an empty
// trade set.
func (e *Engine) Analyze(ctx context.Context, trades []domain.Trade) (*domain.AnalysisReport, error) {
	ctx, span := e.tracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	span.SetAttributes(attribute.Int("trades", len(trades)))

	report := &domain.AnalysisReport{AnalysisID: AnalysisID(trades)}

	benchmark, err := e.loadBenchmark(ctx, trades)
	if err != nil {
		report.BenchmarkLoadFailed = true
		e.logger.Warn().Err(err).Msg("benchmark load failed, falling back")
	}

	enriched, stats := e.enrichAll(ctx, trades, benchmark)
	report.MarketDataFailures = stats.failures
	report.IntradayLoadFailed = stats.intradayFailed

	enriched = assignIDs(SortByEntry(enriched))

	flags, revengeCount := DetectRevenge(enriched, e.th.RevengeWindow)
	for i := range enriched {
		enriched[i].IsRevenge = flags[i]
		enriched[i].Contextual = ContextualDecomposition(enriched[i], e.th)
	}
	e.attachTags(ctx, enriched)

	m := e.aggregate(enriched, benchmark, revengeCount)
	report.Trades = enriched
	report.Metrics = m
	report.IsLowSample = m.TotalTrades < e.th.LowSampleTrades
	report.PersonalBaseline = Baseline(enriched, m, e.th)

	losses := AttributeLosses(enriched, e.th)
	report.BiasLossMapping = &losses
	report.BiasPriority = RankBiases(enriched, losses, m, e.th)
	report.BehaviorShift = BehaviorShifts(enriched, e.th)
	report.EquityCurve = BuildEquityCurve(enriched, benchmark)
	report.OpportunityCost = OpportunityCostOf(enriched, benchmark, e.th)
	report.DeepPatterns = ExtractPatterns(enriched, e.th)

	span.SetAttributes(
		attribute.Int("truth_score", m.TruthScore),
		attribute.Int("market_data_failures", stats.failures),
		attribute.Bool("benchmark_load_failed", report.BenchmarkLoadFailed),
	)
	return report, nil
}

func (e *Engine) aggregate(trades []domain.EnrichedTrade, benchmark []domain.MarketBar, revengeCount int) domain.BehavioralMetrics {
	m := domain.BehavioralMetrics{
		TotalTrades:         len(trades),
		RevengeTradingCount: revengeCount,
	}

	returns := make([]float64, len(trades))
	var total, net decimal.Decimal
	for i, t := range trades {
		returns[i] = t.ReturnPct
		total = total.Add(decimal.NewFromFloat(t.PnL))
		net = net.Add(decimal.NewFromFloat(t.NetPnL))
	}
	m.TotalPnL = total.InexactFloat64()
	m.TotalNetPnL = net.InexactFloat64()

	m.WinRate, m.ProfitFactor = WinLoss(trades)
	m.FomoIndex, m.FomoScore = FomoIndices(trades, e.th)
	m.PanicScore = PanicIndex(trades, e.th)
	m.AvgHoldingDaysWinner, m.AvgHoldingDaysLoser = HoldingDays(trades)
	m.DispositionRatio = DispositionRatio(trades, e.th)
	m.SharpeRatio, m.SortinoRatio = SharpeSortino(returns, e.th)
	m.MaxDrawdown = MaxDrawdown(trades)

	alpha := JensenAlpha(trades, benchmark, e.th)
	m.Alpha, m.Beta, m.AlphaMethod = alpha.Alpha, alpha.Beta, alpha.Method

	m.LuckPercentile = LuckPercentile(trades, e.newRand(), e.th)
	m.TruthScore = TruthScore(m, e.th)
	return m
}

func (e *Engine) loadBenchmark(ctx context.Context, trades []domain.Trade) ([]domain.MarketBar, error) {
	if e.benchmark == nil {
		return nil, nil
	}
	first, last := trades[0].EntryTime, trades[0].ExitTime
	for _, t := range trades {
		if t.EntryTime.Before(first) {
			first = t.EntryTime
		}
		if t.ExitTime.After(last) {
			last = t.ExitTime
		}
	}
	bars, err := e.benchmark.GetBenchmarkBars(ctx, first.Add(-barBufferBefore), last.Add(barBufferAfter))
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, domain.ErrBarsNotFound
	}
	return bars, nil
}

type enrichStats struct {
	failures       int
	intradayFailed bool
}

// enrichAll scores every trade concurrently. Each worker writes only its own
// slot, so the result order matches the input order.
func (e *Engine) enrichAll(ctx context.Context, trades []domain.Trade, benchmark []domain.MarketBar) ([]domain.EnrichedTrade, enrichStats) {
	ctx, span := e.tracer.Start(ctx, "analysis.enrichAll")
	defer span.End()

	out := make([]domain.EnrichedTrade, len(trades))
	var (
		mu    sync.Mutex
		stats enrichStats
	)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, t := range trades {
		g.Go(func() error {
			mc, fs := e.marketContext(ctx, t)
			if fs.daily != nil || fs.intraday != nil {
				mu.Lock()
				if fs.daily != nil {
					stats.failures++
				}
				if fs.intraday != nil {
					stats.intradayFailed = true
				}
				mu.Unlock()
			}
			out[i] = e.enrichSafe(t, mc, benchmark)
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(attribute.Int("failures", stats.failures))
	return out, stats
}

type fetchStatus struct {
	daily    error
	intraday error
}

func (e *Engine) marketContext(ctx context.Context, t domain.Trade) (MarketContext, fetchStatus) {
	var (
		mc MarketContext
		fs fetchStatus
	)
	daily, err := e.bars.GetBars(ctx, t.Ticker, t.EntryTime.Add(-barBufferBefore), t.ExitTime.Add(barBufferAfter))
	if err == nil && len(daily) == 0 {
		err = domain.ErrBarsNotFound
	}
	if err != nil {
		e.logger.Debug().Err(err).Str("ticker", t.Ticker).Msg("daily bars unavailable")
		fs.daily = err
		return mc, fs
	}
	mc.Daily = daily

	if e.intraday == nil || !t.HasIntradayEntry() {
		return mc, fs
	}
	mc.EntryIntraday, fs.intraday = e.fetchIntraday(ctx, t.Ticker, t.EntryTime)
	if !sameDay(t.EntryTime, t.ExitTime) {
		var exitErr error
		mc.ExitIntraday, exitErr = e.fetchIntraday(ctx, t.Ticker, t.ExitTime)
		if fs.intraday == nil {
			fs.intraday = exitErr
		}
	}
	return mc, fs
}

func (e *Engine) fetchIntraday(ctx context.Context, ticker string, day time.Time) ([]domain.MarketBar, error) {
	bars, err := e.intraday.GetIntradayBars(ctx, ticker, day, intradayInterval)
	if errors.Is(err, domain.ErrBarsNotFound) {
		return nil, nil
	}
	if err != nil {
		e.logger.Debug().Err(err).Str("ticker", ticker).Msg("intraday bars unavailable")
		return nil, err
	}
	return bars, nil
}

// enrichSafe runs enrichOne on a worker goroutine, where a panic would not
// reach any recovery middleware. A trade that panics is returned with
// unavailable metrics instead.
func (e *Engine) enrichSafe(t domain.Trade, mc MarketContext, benchmark []domain.MarketBar) (et domain.EnrichedTrade) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("ticker", t.Ticker).Msg("trade enrichment failed")
			et = domain.EnrichedTrade{Trade: t, MarketRegime: domain.RegimeUnknown}
			et.Quantity = t.Qty()
			applyMetrics(&et, UnavailableMetrics())
		}
	}()
	return e.enrichOne(t, mc, benchmark)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// cashFlows returns gross pnl and round-trip cost. decimal rejects NaN and
// Inf, so non-finite inputs yield zeros.
func cashFlows(t domain.Trade, rate float64) (pnl, cost decimal.Decimal) {
	if !finite(t.EntryPrice, t.ExitPrice, t.Qty(), rate) {
		return decimal.Zero, decimal.Zero
	}
	qty := decimal.NewFromFloat(t.Qty())
	entry := decimal.NewFromFloat(t.EntryPrice)
	exit := decimal.NewFromFloat(t.ExitPrice)
	pnl = exit.Sub(entry).Mul(qty)
	cost = entry.Add(exit).Mul(qty).Mul(decimal.NewFromFloat(rate))
	return pnl, cost
}

func (e *Engine) enrichOne(t domain.Trade, mc MarketContext, benchmark []domain.MarketBar) domain.EnrichedTrade {
	pnl, cost := cashFlows(t, e.th.TransactionCostRate)

	et := domain.EnrichedTrade{
		Trade:           t,
		PnL:             pnl.InexactFloat64(),
		TransactionCost: cost.InexactFloat64(),
		NetPnL:          pnl.Sub(cost).InexactFloat64(),
		DurationDays:    math.Max(0, t.ExitTime.Sub(t.EntryTime).Hours()/24),
		MarketRegime:    domain.RegimeUnknown,
	}
	et.Quantity = t.Qty()
	if t.EntryPrice > 0 {
		et.ReturnPct = ta.Finite((t.ExitPrice - t.EntryPrice) / t.EntryPrice)
	}
	if len(benchmark) > 0 {
		et.MarketRegime = e.classifier.Classify(t.EntryTime, benchmark)
	}

	m := UnavailableMetrics()
	if finite(t.EntryPrice, t.ExitPrice) {
		m = CalculateTradeMetrics(t, mc, e.th)
	}
	applyMetrics(&et, m)
	return et
}

func applyMetrics(et *domain.EnrichedTrade, m TradeMetrics) {
	et.FomoScore, et.PanicScore = m.FomoScore, m.PanicScore
	et.FomoBase, et.PanicBase = m.FomoBase, m.PanicBase
	et.EntryVolumeWeight, et.ExitVolumeWeight = m.EntryVolumeWeight, m.ExitVolumeWeight
	et.MAE, et.MFE, et.Efficiency, et.Regret = m.MAE, m.MFE, m.Efficiency, m.Regret
	et.EntryDayHigh, et.EntryDayLow = m.EntryDayHigh, m.EntryDayLow
	et.ExitDayHigh, et.ExitDayLow = m.ExitDayHigh, m.ExitDayLow
	et.UsedIntraday = m.UsedIntraday
}

func (e *Engine) attachTags(ctx context.Context, trades []domain.EnrichedTrade) {
	if e.tags == nil {
		return
	}
	ids := make([]string, len(trades))
	for i, t := range trades {
		ids[i] = t.ID
	}
	tags, err := e.tags.GetTags(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Msg("strategy tags unavailable")
		return
	}
	for i := range trades {
		trades[i].StrategyTag = tags[trades[i].ID]
	}
}

// assignIDs names trades ticker-entrydate, numbering repeats in
// chronological order.
func assignIDs(trades []domain.EnrichedTrade) []domain.EnrichedTrade {
	seen := make(map[string]int, len(trades))
	for i := range trades {
		base := fmt.Sprintf("%s-%s", trades[i].Ticker, trades[i].EntryTime.Format("2006-01-02"))
		seen[base]++
		if n := seen[base]; n > 1 {
			trades[i].ID = fmt.Sprintf("%s-%d", base, n)
		} else {
			trades[i].ID = base
		}
	}
	return trades
}

var analysisNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("trading-mirror/analysis"))

// AnalysisID is a name-based UUID over the submitted trades, so identical
// uploads get identical ids.
func AnalysisID(trades []domain.Trade) string {
	var b strings.Builder
	for _, t := range trades {
		b.WriteString(t.Ticker)
		b.WriteByte('|')
		b.WriteString(t.EntryTime.UTC().Format(time.RFC3339))
		b.WriteByte('|')
		b.WriteString(t.ExitTime.UTC().Format(time.RFC3339))
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(t.EntryPrice, 'g', -1, 64))
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(t.ExitPrice, 'g', -1, 64))
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(t.Qty(), 'g', -1, 64))
		b.WriteByte('\n')
	}
	return uuid.NewSHA1(analysisNamespace, []byte(b.String())).String()
}
