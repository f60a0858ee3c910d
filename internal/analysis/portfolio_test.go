package analysis

import (
	"math"
	"testing"
	"time"

	"trading-mirror/internal/domain"
)

func pnlTrade(pnl, ret, days float64) domain.EnrichedTrade {
	return domain.EnrichedTrade{PnL: pnl, ReturnPct: ret, DurationDays: days}
}

func TestWinLoss(t *testing.T) {
	trades := []domain.EnrichedTrade{
		pnlTrade(100, 0.1, 1),
		pnlTrade(50, 0.05, 1),
		pnlTrade(-30, -0.03, 1),
		pnlTrade(0, 0, 1),
	}
	winRate, pf := WinLoss(trades)
	if winRate != 0.5 {
		t.Fatalf("expected win rate 0.5, got %v", winRate)
	}
	if pf != 5 {
		t.Fatalf("expected profit factor 150/30=5, got %v", pf)
	}

	_, pf = WinLoss([]domain.EnrichedTrade{pnlTrade(10, 0.1, 1)})
	if pf != 0 {
		t.Fatalf("profit factor without losers should be 0, got %v", pf)
	}
}

func TestDispositionRatioPenalties(t *testing.T) {
	th := DefaultThresholds()

	plain := []domain.EnrichedTrade{
		pnlTrade(10, 0.05, 2),
		pnlTrade(-10, -0.05, 4),
	}
	if got := DispositionRatio(plain, th); got != 2 {
		t.Fatalf("expected base ratio 2, got %v", got)
	}

	// two of three winners are quick small exits: ratio 2/3 > 0.3
	chicken := []domain.EnrichedTrade{
		pnlTrade(5, 0.01, 0.05),
		pnlTrade(5, 0.01, 0.05),
		pnlTrade(50, 0.10, 2.9),
		pnlTrade(-10, -0.05, 1),
	}
	avgWin := (0.05 + 0.05 + 2.9) / 3
	want := (1 / avgWin) * (1 + (2.0/3.0)*0.5)
	if got := DispositionRatio(chicken, th); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected chicken-penalized %v, got %v", want, got)
	}

	// one of two losers held over 30 days: ratio 0.5 > 0.2
	longLoss := []domain.EnrichedTrade{
		pnlTrade(10, 0.05, 10),
		pnlTrade(-10, -0.05, 40),
		pnlTrade(-10, -0.05, 20),
	}
	want = 3.0 * (1 + 0.5*0.3)
	if got := DispositionRatio(longLoss, th); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected long-loss penalized %v, got %v", want, got)
	}

	if got := DispositionRatio([]domain.EnrichedTrade{pnlTrade(-1, -0.1, 3)}, th); got != 0 {
		t.Fatalf("no winners should give 0, got %v", got)
	}
}

func TestSharpeZeroVarianceGuard(t *testing.T) {
	th := DefaultThresholds()
	sharpe, sortino := SharpeSortino([]float64{0.05, 0.05, 0.05, 0.05}, th)
	if sharpe != 0 || sortino != 0 {
		t.Fatalf("expected guarded zeros, got sharpe=%v sortino=%v", sharpe, sortino)
	}
	if math.IsNaN(sharpe) || math.IsInf(sharpe, 0) {
		t.Fatal("sharpe must be finite")
	}
}

func TestSharpeSortinoValues(t *testing.T) {
	th := DefaultThresholds()
	returns := []float64{0.1, -0.1, 0.2, -0.2}
	sharpe, sortino := SharpeSortino(returns, th)
	mean := 0.0
	std := math.Sqrt((0.01 + 0.01 + 0.04 + 0.04) / 4)
	wantSharpe := (mean - 0.02/252) / std
	if math.Abs(sharpe-wantSharpe) > 1e-12 {
		t.Fatalf("expected sharpe %v, got %v", wantSharpe, sharpe)
	}
	if math.Abs(sortino) > 1e-12 {
		t.Fatalf("expected sortino 0 for zero mean, got %v", sortino)
	}

	tests := []struct {
		returns []float64
		want    float64
	}{
		// mean 0.05, downside sqrt(0.01/4) = 0.05
		{[]float64{0.1, 0.1, 0.1, -0.1}, 1},
		// mean 0.025, downside sqrt((0.01+0.04)/4)
		{[]float64{0.2, -0.1, 0.2, -0.2}, 0.025 / math.Sqrt(0.0125)},
		{[]float64{0.1, 0.2}, 0},
	}
	for _, tt := range tests {
		if _, got := SharpeSortino(tt.returns, th); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("%v: expected sortino %v, got %v", tt.returns, tt.want, got)
		}
	}

	if s, so := SharpeSortino([]float64{0.1}, th); s != 0 || so != 0 {
		t.Fatal("single sample should give zeros")
	}
}

func TestMaxDrawdown(t *testing.T) {
	trades := []domain.EnrichedTrade{
		pnlTrade(100, 0, 0),
		pnlTrade(-50, 0, 0),
		pnlTrade(100, 0, 0),
		pnlTrade(-100, 0, 0),
	}
	// peak 150, trough 50
	if got := MaxDrawdown(trades); math.Abs(got-66.66666666666667) > 1e-9 {
		t.Fatalf("expected 66.67%%, got %v", got)
	}
	if got := MaxDrawdown([]domain.EnrichedTrade{pnlTrade(-10, 0, 0)}); got != 0 {
		t.Fatalf("no positive peak should give 0, got %v", got)
	}
}

func TestRegimeWeightedIndices(t *testing.T) {
	th := DefaultThresholds()
	trades := []domain.EnrichedTrade{
		{FomoScore: 0.8, PanicScore: 0.2, MarketRegime: domain.RegimeBear},
		{FomoScore: 0.5, PanicScore: 0.1, MarketRegime: domain.RegimeBull},
		{FomoScore: -1, PanicScore: -1, MarketRegime: domain.RegimeBull},
	}
	plain, weighted := FomoIndices(trades, th)
	if math.Abs(plain-0.65) > 1e-12 {
		t.Fatalf("expected plain fomo 0.65, got %v", plain)
	}
	if math.Abs(weighted-(0.8*1.5+0.5*0.8)/2) > 1e-12 {
		t.Fatalf("unexpected weighted fomo %v", weighted)
	}
	pi := PanicIndex(trades, th)
	if math.Abs(pi-(1-(0.2+0.1*0.67)/2)) > 1e-12 {
		t.Fatalf("unexpected panic index %v", pi)
	}
}

func TestTruthScoreBounds(t *testing.T) {
	th := DefaultThresholds()
	worst := domain.BehavioralMetrics{
		TotalTrades:         10,
		FomoScore:           1.5,
		PanicScore:          0,
		DispositionRatio:    10,
		RevengeTradingCount: 20,
		SharpeRatio:         -3,
	}
	if got := TruthScore(worst, th); got != 0 {
		t.Fatalf("expected floor 0, got %d", got)
	}
	best := domain.BehavioralMetrics{
		TotalTrades: 10,
		WinRate:     1,
		PanicScore:  1,
		SharpeRatio: 20,
	}
	if got := TruthScore(best, th); got != 100 {
		t.Fatalf("expected ceiling 100, got %d", got)
	}
	low := domain.BehavioralMetrics{TotalTrades: 2, WinRate: 0.5, PanicScore: 1}
	// 50 + 10 + 5 flat bonus
	if got := TruthScore(low, th); got != 65 {
		t.Fatalf("expected 65 for low sample, got %d", got)
	}
}

func TestBaseline(t *testing.T) {
	th := DefaultThresholds()
	m := domain.BehavioralMetrics{FomoIndex: 0.6, PanicScore: 0.4, DispositionRatio: 1.3, RevengeTradingCount: 1}
	if Baseline(make([]domain.EnrichedTrade, 2), m, th) != nil {
		t.Fatal("baseline requires three trades")
	}
	trades := []domain.EnrichedTrade{{MAE: -0.04}, {MAE: -0.02}, {MAE: 0}, {MAE: 0}}
	b := Baseline(trades, m, th)
	if b == nil {
		t.Fatal("expected baseline")
	}
	if math.Abs(b.AvgMAE-0.03) > 1e-12 {
		t.Fatalf("expected avg mae 0.03 over non-zero values, got %v", b.AvgMAE)
	}
	if b.AvgRevengeCount != 0.25 || b.AvgFomo != 0.6 || b.AvgPanic != 0.4 {
		t.Fatalf("unexpected baseline %+v", b)
	}
}

func TestJensenAlphaFallsBackWithFewTrades(t *testing.T) {
	th := DefaultThresholds()
	trades := []domain.EnrichedTrade{pnlTrade(1, 0.1, 1), pnlTrade(1, 0.3, 1)}
	res := JensenAlpha(trades, nil, th)
	if res.Method != domain.AlphaMethodAverageReturn || math.Abs(res.Alpha-0.2) > 1e-12 || res.Beta != nil {
		t.Fatalf("unexpected fallback %+v", res)
	}
}

func TestJensenAlphaRecoversBeta(t *testing.T) {
	th := DefaultThresholds()
	start := day(2024, 1, 1)

	var bench []domain.MarketBar
	closes := 100.0
	for i := 0; i < 120; i++ {
		d := start.AddDate(0, 0, i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		r := 0.01
		if i%2 == 0 {
			r = -0.005
		}
		closes *= 1 + r
		bench = append(bench, domain.MarketBar{Date: d, Close: closes})
	}

	benchReturn := make(map[time.Time]float64)
	for i := 1; i < len(bench); i++ {
		benchReturn[bench[i].Date] = bench[i].Close/bench[i-1].Close - 1
	}

	// one-day trades whose return is exactly twice the benchmark's that day
	var trades []domain.EnrichedTrade
	for i := 1; i < len(bench) && len(trades) < 50; i++ {
		d := bench[i].Date
		trades = append(trades, domain.EnrichedTrade{
			Trade:     domain.Trade{EntryTime: d.Add(10 * time.Hour), ExitTime: d.Add(15 * time.Hour)},
			ReturnPct: 2 * benchReturn[d],
		})
	}
	if trades[len(trades)-1].ExitTime.Sub(trades[0].EntryTime).Hours()/24 < 60 {
		t.Fatal("fixture must span 60 days")
	}

	res := JensenAlpha(trades, bench, th)
	if res.Method != domain.AlphaMethodJensen || res.Beta == nil {
		t.Fatalf("expected jensen alpha, got %+v", res)
	}
	if math.Abs(*res.Beta-2) > 1e-9 {
		t.Fatalf("expected beta 2, got %v", *res.Beta)
	}
}

func TestBusinessDays(t *testing.T) {
	fri := day(2024, 6, 7)
	mon := day(2024, 6, 10)
	if got := len(businessDays(fri, mon)); got != 2 {
		t.Fatalf("expected 2 business days Fri..Mon, got %d", got)
	}
	sat := day(2024, 6, 8)
	if got := len(businessDays(sat, sat)); got != 1 {
		t.Fatalf("weekend-only trade should count one day, got %d", got)
	}
}
