package analysis

import (
	"math"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/ta"
)

// WinLoss returns the win rate and profit factor. Breakeven trades count as
// losers; profit factor is 0 when there is no realized loss.
func WinLoss(trades []domain.EnrichedTrade) (float64, float64) {
	if len(trades) == 0 {
		return 0, 0
	}
	var winners int
	var grossWin, grossLoss float64
	for _, t := range trades {
		if t.IsWinner() {
			winners++
			grossWin += t.PnL
		} else {
			grossLoss += t.PnL
		}
	}
	winRate := float64(winners) / float64(len(trades))
	grossLoss = math.Abs(grossLoss)
	if grossLoss == 0 {
		return winRate, 0
	}
	return winRate, ta.Finite(grossWin / grossLoss)
}

// HoldingDays returns the average holding time of winners and losers.
func HoldingDays(trades []domain.EnrichedTrade) (float64, float64) {
	var win, loss []float64
	for _, t := range trades {
		if t.IsWinner() {
			win = append(win, t.DurationDays)
		} else {
			loss = append(loss, t.DurationDays)
		}
	}
	return ta.Mean(win), ta.Mean(loss)
}

// DispositionRatio is loser holding time over winner holding time, penalized
// for quick small-profit exits and for losers held for over a month.
func DispositionRatio(trades []domain.EnrichedTrade, th Thresholds) float64 {
	avgWin, avgLoss := HoldingDays(trades)
	ratio := 0.0
	if avgWin > 0 {
		ratio = avgLoss / avgWin
	}

	var winners, losers, chicken, longLoss int
	for _, t := range trades {
		if t.IsWinner() {
			winners++
			if t.DurationDays < th.ChickenMaxDays && t.ReturnPct < th.ChickenMaxReturn {
				chicken++
			}
			continue
		}
		losers++
		if t.DurationDays > th.LongLossDays {
			longLoss++
		}
	}

	if winners > 0 && chicken > 0 {
		r := float64(chicken) / float64(winners)
		if r > th.ChickenMinRatio {
			ratio *= 1 + r*th.ChickenPenalty
		}
	}
	if losers > 0 && longLoss > 0 {
		r := float64(longLoss) / float64(losers)
		if r > th.LongLossMinRatio {
			ratio *= 1 + r*th.LongLossPenalty
		}
	}
	return ta.Finite(ratio)
}

// flatEpsilon treats a deviation this small as zero; identical returns can
// leave rounding residue in the variance.
const flatEpsilon = 1e-12

// SharpeSortino computes per-trade Sharpe and Sortino ratios. Sortino's
// downside deviation averages min(r, 0)^2 over every return, so gains count
// as zero rather than dropping out.
func SharpeSortino(returns []float64, th Thresholds) (float64, float64) {
	if len(returns) < 2 {
		return 0, 0
	}
	mean, std := ta.MeanStd(returns)

	sharpe := 0.0
	if std > flatEpsilon {
		sharpe = (mean - th.RiskFreeRate/th.TradingDays) / std
	}

	downside := make([]float64, len(returns))
	for i, r := range returns {
		if r < 0 {
			downside[i] = r * r
		}
	}
	sortino := 0.0
	if dev := math.Sqrt(ta.Mean(downside)); dev > flatEpsilon {
		sortino = mean / dev
	}
	return ta.Finite(sharpe), ta.Finite(sortino)
}

// MaxDrawdown is the largest peak-to-trough fall of cumulative pnl, in
// percent of the peak. Trades must be in chronological order. Drawdowns are
// only measured from positive peaks.
func MaxDrawdown(trades []domain.EnrichedTrade) float64 {
	var cum, peak, worst float64
	for _, t := range trades {
		cum += t.PnL
		if cum > peak {
			peak = cum
		}
		if peak > 0 {
			if dd := (peak - cum) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return ta.Finite(worst)
}

// FomoIndices returns the plain mean of valid FOMO scores and the
// regime-weighted mean (BEAR scores amplified, BULL scores discounted).
func FomoIndices(trades []domain.EnrichedTrade, th Thresholds) (float64, float64) {
	var plain, weighted []float64
	for _, t := range trades {
		if !t.HasFomo() {
			continue
		}
		score := t.FomoScore
		plain = append(plain, score)
		switch t.MarketRegime {
		case domain.RegimeBear:
			score *= th.RegimeFomoBear
		case domain.RegimeBull:
			score *= th.RegimeFomoBull
		}
		weighted = append(weighted, score)
	}
	return ta.Mean(plain), ta.Mean(weighted)
}

// PanicIndex is one minus the regime-weighted mean panic score, so higher
// means more panic. Low panic scores in a BULL regime are discounted further.
func PanicIndex(trades []domain.EnrichedTrade, th Thresholds) float64 {
	var scores []float64
	for _, t := range trades {
		if !t.HasPanic() {
			continue
		}
		score := t.PanicScore
		if t.MarketRegime == domain.RegimeBull && score < th.PanicLow {
			score = math.Max(0, score*th.RegimePanicBull)
		}
		scores = append(scores, score)
	}
	return 1 - ta.Mean(scores)
}

// TruthScore folds the aggregate metrics into one integer in [0,100].
func TruthScore(m domain.BehavioralMetrics, th Thresholds) int {
	score := 50.0
	score += m.WinRate * 20
	score -= m.FomoScore * 20
	score -= (1 - m.PanicScore) * 20
	score -= math.Max(0, (m.DispositionRatio-1)*10)
	score -= float64(m.RevengeTradingCount) * 5
	if m.TotalTrades >= th.LowSampleTrades {
		score += m.SharpeRatio * 5
	} else {
		score += 5
	}
	return int(ta.Clamp(score, 0, 100))
}

// Baseline returns the trader's personal averages, or nil below the minimum
// sample size.
func Baseline(trades []domain.EnrichedTrade, m domain.BehavioralMetrics, th Thresholds) *domain.PersonalBaseline {
	if len(trades) < th.BaselineMinTrades {
		return nil
	}
	var maes []float64
	for _, t := range trades {
		if t.MAE != 0 {
			maes = append(maes, t.MAE)
		}
	}
	avgMAE := 0.0
	if mean := ta.Mean(maes); mean < 0 {
		avgMAE = math.Abs(mean)
	}
	return &domain.PersonalBaseline{
		AvgFomo:             m.FomoIndex,
		AvgPanic:            m.PanicScore,
		AvgMAE:              avgMAE,
		AvgDispositionRatio: m.DispositionRatio,
		AvgRevengeCount:     float64(m.RevengeTradingCount) / float64(len(trades)),
	}
}
