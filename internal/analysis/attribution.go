package analysis

import (
	"math"
	"sort"

	"trading-mirror/internal/domain"
)

// fomoEntry and panicExit classify a trade on its unweighted range scores.
// Loss attribution, bias frequency and IsBiased all use them.
func fomoEntry(t domain.EnrichedTrade, th Thresholds) bool {
	return t.FomoBase >= 0 && t.FomoBase > th.FomoHigh
}

func panicExit(t domain.EnrichedTrade, th Thresholds) bool {
	return t.PanicBase >= 0 && t.PanicBase < th.PanicLow
}

// AttributeLosses maps realized dollar losses to each bias.
func AttributeLosses(trades []domain.EnrichedTrade, th Thresholds) domain.BiasLossMapping {
	var m domain.BiasLossMapping
	for _, t := range trades {
		loss := 0.0
		if t.PnL < 0 {
			loss = -t.PnL
		}
		if fomoEntry(t, th) {
			m.FomoLoss += loss
		}
		if panicExit(t, th) {
			m.PanicLoss += loss
		}
		if t.IsRevenge {
			m.RevengeLoss += loss
		}
		if t.IsWinner() && t.Regret > 0 {
			m.DispositionLoss += t.Regret
		}
	}
	return m
}

// RankBiases builds the priority list, highest composite score first.
func RankBiases(trades []domain.EnrichedTrade, losses domain.BiasLossMapping, m domain.BehavioralMetrics, th Thresholds) []domain.BiasPriority {
	total := len(trades)
	if total == 0 {
		return nil
	}

	var fomoHits, panicHits, winners, regretWinners int
	for _, t := range trades {
		if fomoEntry(t, th) {
			fomoHits++
		}
		if panicExit(t, th) {
			panicHits++
		}
		if t.IsWinner() {
			winners++
			if t.Regret > 0 {
				regretWinners++
			}
		}
	}

	var out []domain.BiasPriority

	fomoFreq := float64(fomoHits) / float64(total)
	if losses.FomoLoss > 0 || fomoFreq > th.BiasMinFrequency {
		out = append(out, domain.BiasPriority{
			Bias:          domain.BiasFomo,
			FinancialLoss: losses.FomoLoss,
			Frequency:     fomoFreq,
			Severity:      math.Min(1, m.FomoIndex/0.8),
		})
	}

	panicFreq := float64(panicHits) / float64(total)
	if losses.PanicLoss > 0 || panicFreq > th.BiasMinFrequency {
		out = append(out, domain.BiasPriority{
			Bias:          domain.BiasPanic,
			FinancialLoss: losses.PanicLoss,
			Frequency:     panicFreq,
			Severity:      clampUnit((1 - m.PanicScore) / 0.8),
		})
	}

	if losses.RevengeLoss > 0 || m.RevengeTradingCount > 0 {
		out = append(out, domain.BiasPriority{
			Bias:          domain.BiasRevenge,
			FinancialLoss: losses.RevengeLoss,
			Frequency:     float64(m.RevengeTradingCount) / float64(total),
			Severity:      math.Min(1, float64(m.RevengeTradingCount)/3),
		})
	}

	if losses.DispositionLoss > 0 || m.DispositionRatio > 1.2 {
		freq := 0.0
		if winners > 0 {
			freq = float64(regretWinners) / float64(winners)
		}
		sev := 0.0
		if m.DispositionRatio > 1 {
			sev = math.Min(1, (m.DispositionRatio-1)/1.5)
		}
		out = append(out, domain.BiasPriority{
			Bias:          domain.BiasDisposition,
			FinancialLoss: losses.DispositionLoss,
			Frequency:     freq,
			Severity:      sev,
		})
	}

	for i := range out {
		out[i].Severity = clampUnit(out[i].Severity)
		out[i].Frequency = clampUnit(out[i].Frequency)
		out[i].Score = priorityScore(out[i], th)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		out[i].Priority = i + 1
	}
	return out
}

// priorityScore weights dollars first. Below the low-loss cutoff a frequent
// and severe bias earns a larger bonus so it still surfaces.
func priorityScore(p domain.BiasPriority, th Thresholds) float64 {
	freq := p.Frequency * 100
	sev := p.Severity * 100
	score := p.FinancialLoss * 10
	if p.FinancialLoss < th.LowLossDollars {
		if p.Frequency > 0.5 && p.Severity > 0.6 {
			return score + freq*20 + sev*15
		}
		return score + freq*10 + sev*5
	}
	return score + freq*20 + sev*10
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(1, v)
}
