package analysis

import (
	"trading-mirror/internal/domain"
	"trading-mirror/internal/ta"
)

// BehaviorShifts compares the most recent trades against everything before
// them. trades must be in chronological order. nil means not enough trades
// or no comparable bias.
func BehaviorShifts(trades []domain.EnrichedTrade, th Thresholds) []domain.BehaviorShift {
	if len(trades) < th.ShiftMinTrades || th.ShiftRecentWindow <= 0 || th.ShiftRecentWindow >= len(trades) {
		return nil
	}
	split := len(trades) - th.ShiftRecentWindow
	baseline, recent := trades[:split], trades[split:]

	var out []domain.BehaviorShift

	recentFomo, baseFomo := meanFomo(recent), meanFomo(baseline)
	if baseFomo > 0 {
		change := (recentFomo - baseFomo) / baseFomo * 100
		out = append(out, domain.BehaviorShift{
			Bias:          domain.BiasFomo,
			RecentValue:   recentFomo,
			BaselineValue: baseFomo,
			ChangePct:     change,
			Trend:         trendLowerIsBetter(change, th.ShiftDeadband),
		})
	}

	recentPanic, basePanic := meanPanic(recent), meanPanic(baseline)
	if basePanic > 0 {
		change := (recentPanic - basePanic) / basePanic * 100
		out = append(out, domain.BehaviorShift{
			Bias:          domain.BiasPanic,
			RecentValue:   recentPanic,
			BaselineValue: basePanic,
			ChangePct:     change,
			Trend:         trendLowerIsBetter(-change, th.ShiftDeadband),
		})
	}

	recentRevenge, baseRevenge := revengeRate(recent), revengeRate(baseline)
	if recentRevenge > 0 || baseRevenge > 0 {
		change := (recentRevenge - baseRevenge) / (baseRevenge + 0.01) * 100
		out = append(out, domain.BehaviorShift{
			Bias:          domain.BiasRevenge,
			RecentValue:   recentRevenge,
			BaselineValue: baseRevenge,
			ChangePct:     change,
			Trend:         trendLowerIsBetter(change, th.ShiftDeadbandWide),
		})
	}

	recentDisp, baseDisp := windowDisposition(recent), windowDisposition(baseline)
	if recentDisp > 0 && baseDisp > 0 {
		change := (recentDisp - baseDisp) / baseDisp * 100
		out = append(out, domain.BehaviorShift{
			Bias:          domain.BiasDisposition,
			RecentValue:   recentDisp,
			BaselineValue: baseDisp,
			ChangePct:     change,
			Trend:         trendLowerIsBetter(change, th.ShiftDeadbandWide),
		})
	}

	for i := range out {
		out[i].ChangePct = ta.Finite(out[i].ChangePct)
	}
	return out
}

func trendLowerIsBetter(change, deadband float64) domain.Trend {
	switch {
	case change < -deadband:
		return domain.TrendImproving
	case change > deadband:
		return domain.TrendWorsening
	default:
		return domain.TrendStable
	}
}

func meanFomo(trades []domain.EnrichedTrade) float64 {
	var v []float64
	for _, t := range trades {
		if t.HasFomo() {
			v = append(v, t.FomoScore)
		}
	}
	return ta.Mean(v)
}

func meanPanic(trades []domain.EnrichedTrade) float64 {
	var v []float64
	for _, t := range trades {
		if t.HasPanic() {
			v = append(v, t.PanicScore)
		}
	}
	return ta.Mean(v)
}

func revengeRate(trades []domain.EnrichedTrade) float64 {
	if len(trades) == 0 {
		return 0
	}
	n := 0
	for _, t := range trades {
		if t.IsRevenge {
			n++
		}
	}
	return float64(n) / float64(len(trades))
}

// windowDisposition is the unpenalized loser/winner holding ratio, 0 when
// either side is missing.
func windowDisposition(trades []domain.EnrichedTrade) float64 {
	var wins, losses int
	for _, t := range trades {
		if t.IsWinner() {
			wins++
		} else {
			losses++
		}
	}
	if wins == 0 || losses == 0 {
		return 0
	}
	avgWin, avgLoss := HoldingDays(trades)
	if avgWin <= 0 {
		return 0
	}
	return ta.Finite(avgLoss / avgWin)
}
