package analysis

import (
	"fmt"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/ta"
)

// ExtractPatterns mines clustering and sequence patterns from chronologically
// ordered trades. Each detector has its own sample-size floor.
func ExtractPatterns(trades []domain.EnrichedTrade, th Thresholds) []domain.DeepPattern {
	if len(trades) < th.PatternMinTrades {
		return nil
	}

	var highMAE []domain.EnrichedTrade
	for _, t := range trades {
		if t.MAE < th.HighMAE {
			highMAE = append(highMAE, t)
		}
	}

	detectors := []func() *domain.DeepPattern{
		func() *domain.DeepPattern { return timeCluster(highMAE, th) },
		func() *domain.DeepPattern { return priceCluster(trades, th) },
		func() *domain.DeepPattern { return revengeSequence(trades, th) },
		func() *domain.DeepPattern { return regimeFomo(trades, th) },
		func() *domain.DeepPattern { return bullRegimePanic(trades, th) },
		func() *domain.DeepPattern { return maeCluster(trades, highMAE, th) },
		func() *domain.DeepPattern { return shortTermChicken(trades, th) },
		func() *domain.DeepPattern { return longTermLoss(trades, th) },
		func() *domain.DeepPattern { return CausalChain(trades, th) },
	}

	var out []domain.DeepPattern
	for _, detect := range detectors {
		if p := detect(); p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func timeCluster(highMAE []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	if len(highMAE) < th.PatternMinTrades {
		return nil
	}
	var byHour [24]int
	for _, t := range highMAE {
		byHour[t.EntryTime.Hour()]++
	}
	peakHour := 0
	for h := 1; h < 24; h++ {
		if byHour[h] > byHour[peakHour] {
			peakHour = h
		}
	}
	peak := byHour[peakHour]
	share := float64(peak) / float64(len(highMAE))
	if share < th.TimeClusterShare {
		return nil
	}
	sig := domain.SignificanceMedium
	if share >= th.TimeClusterHighShare {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternTimeCluster,
		Description:  fmt.Sprintf("%d of %d high-MAE positions (%.0f%%) were entered at %02d:00", peak, len(highMAE), share*100, peakHour),
		Significance: sig,
		Metadata:     map[string]float64{"hour": float64(peakHour), "count": float64(peak), "total": float64(len(highMAE))},
	}
}

func priceCluster(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	var ratios []float64
	for _, t := range trades {
		if t.ExitDayHigh > 0 && t.HasPanic() {
			ratios = append(ratios, t.ExitPrice/t.ExitDayHigh)
		}
	}
	if len(ratios) < th.PriceClusterMin {
		return nil
	}
	avg := ta.Mean(ratios)
	if avg >= th.PriceClusterRatio {
		return nil
	}
	below := (1 - avg) * 100
	sig := domain.SignificanceMedium
	if below > 5 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternPriceCluster,
		Description:  fmt.Sprintf("exits land on average %.1f%% below the day's high", below),
		Significance: sig,
		Metadata:     map[string]float64{"avg_exit_ratio": avg, "sample_size": float64(len(ratios))},
	}
}

func revengeSequence(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	var gaps []float64
	for i, t := range trades {
		if !t.IsRevenge {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if trades[j].PnL < 0 {
				gaps = append(gaps, t.EntryTime.Sub(trades[j].ExitTime).Hours())
				break
			}
		}
	}
	if len(gaps) < 2 {
		return nil
	}
	avg := ta.Mean(gaps)
	if avg >= th.RevengeSequenceHours {
		return nil
	}
	sig := domain.SignificanceMedium
	if avg < th.RevengeSequenceHours/2 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternRevengeSequence,
		Description:  fmt.Sprintf("re-entered %d times within %.1f hours of a loss on average", len(gaps), avg),
		Significance: sig,
		Metadata:     map[string]float64{"avg_hours": avg, "count": float64(len(gaps))},
	}
}

func splitByRegime(trades []domain.EnrichedTrade) (bull, bear []domain.EnrichedTrade) {
	for _, t := range trades {
		switch t.MarketRegime {
		case domain.RegimeBull:
			bull = append(bull, t)
		case domain.RegimeBear:
			bear = append(bear, t)
		}
	}
	return bull, bear
}

func rate(trades []domain.EnrichedTrade, hit func(domain.EnrichedTrade) bool) float64 {
	if len(trades) == 0 {
		return 0
	}
	n := 0
	for _, t := range trades {
		if hit(t) {
			n++
		}
	}
	return float64(n) / float64(len(trades))
}

func regimeFomo(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	bull, bear := splitByRegime(trades)
	if len(bull) < th.RegimeMinTrades || len(bear) < th.RegimeMinTrades {
		return nil
	}
	isFomo := func(t domain.EnrichedTrade) bool { return t.FomoScore > th.FomoHigh }
	bullRate, bearRate := rate(bull, isFomo), rate(bear, isFomo)
	if bullRate <= bearRate*th.RegimeFomoRatio {
		return nil
	}
	sig := domain.SignificanceMedium
	if bullRate > 0.5 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternMarketRegime,
		Description:  fmt.Sprintf("FOMO entries concentrate in bull markets (bull %.0f%%, bear %.0f%%)", bullRate*100, bearRate*100),
		Significance: sig,
		Metadata:     map[string]float64{"bull_fomo_rate": bullRate, "bear_fomo_rate": bearRate},
	}
}

func bullRegimePanic(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	bull, bear := splitByRegime(trades)
	if len(bull) < th.RegimeMinTrades || len(bear) < th.RegimeMinTrades {
		return nil
	}
	isPanic := func(t domain.EnrichedTrade) bool { return t.HasPanic() && t.PanicScore < th.PanicLow }
	bullRate, bearRate := rate(bull, isPanic), rate(bear, isPanic)
	if bullRate < bearRate*th.BullPanicRatio || bullRate <= th.BullPanicMinRate {
		return nil
	}
	sig := domain.SignificanceMedium
	if bullRate > 0.3 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternBullRegimePanic,
		Description:  fmt.Sprintf("panic exits persist in bull markets (bull %.0f%%, bear %.0f%%)", bullRate*100, bearRate*100),
		Significance: sig,
		Metadata:     map[string]float64{"bull_panic_rate": bullRate, "bear_panic_rate": bearRate},
	}
}

func maeCluster(trades, highMAE []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	if len(highMAE) < th.MAEClusterMin {
		return nil
	}
	avgHold := meanDuration(highMAE)
	overall := meanDuration(trades)
	if avgHold <= overall*th.MAEHoldRatio {
		return nil
	}
	return &domain.DeepPattern{
		Type:         domain.PatternMAECluster,
		Description:  fmt.Sprintf("%d high-MAE positions were held %.1f days on average (overall %.1f)", len(highMAE), avgHold, overall),
		Significance: domain.SignificanceMedium,
		Metadata:     map[string]float64{"avg_hold_days": avgHold, "overall_avg": overall},
	}
}

func shortTermChicken(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	var winners, short int
	for _, t := range trades {
		if !t.IsWinner() {
			continue
		}
		winners++
		if t.DurationDays < th.ChickenMaxDays && t.ReturnPct < th.ChickenMaxReturn {
			short++
		}
	}
	if winners < 3 || short < 2 {
		return nil
	}
	r := float64(short) / float64(winners)
	if r <= th.ChickenMinRatio {
		return nil
	}
	sig := domain.SignificanceMedium
	if r > 0.5 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternShortTermChicken,
		Description:  fmt.Sprintf("%d winners (%.0f%%) were closed within hours for under %.0f%% profit", short, r*100, th.ChickenMaxReturn*100),
		Significance: sig,
		Metadata:     map[string]float64{"short_win_count": float64(short), "short_win_rate": r, "total_winners": float64(winners)},
	}
}

func longTermLoss(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	var losers int
	var long []domain.EnrichedTrade
	for _, t := range trades {
		if t.IsWinner() {
			continue
		}
		losers++
		if t.DurationDays > th.LongLossDays {
			long = append(long, t)
		}
	}
	if losers < 3 || len(long) < 2 {
		return nil
	}
	r := float64(len(long)) / float64(losers)
	if r <= th.LongLossMinRatio {
		return nil
	}
	sig := domain.SignificanceMedium
	if r > 0.3 {
		sig = domain.SignificanceHigh
	}
	avgDays := meanDuration(long)
	return &domain.DeepPattern{
		Type:         domain.PatternLongTermLoss,
		Description:  fmt.Sprintf("%d losers (%.0f%%) were held over %.0f days before cutting (avg %.1f days)", len(long), r*100, th.LongLossDays, avgDays),
		Significance: sig,
		Metadata:     map[string]float64{"long_loss_count": float64(len(long)), "long_loss_rate": r, "avg_days": avgDays},
	}
}

func meanDuration(trades []domain.EnrichedTrade) float64 {
	v := make([]float64, len(trades))
	for i, t := range trades {
		v[i] = t.DurationDays
	}
	return ta.Mean(v)
}
