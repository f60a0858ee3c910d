package analysis

import (
	"trading-mirror/internal/domain"
	"trading-mirror/internal/regime"
	"trading-mirror/internal/ta"
)

// BuildEquityCurve returns one point per trade in chronological order. When
// benchmark bars are available each point also carries what the first
// trade's notional would have earned tracking the benchmark since then.
func BuildEquityCurve(trades []domain.EnrichedTrade, benchmark []domain.MarketBar) []domain.EquityCurvePoint {
	if len(trades) == 0 {
		return nil
	}

	var initial, startClose float64
	if len(benchmark) > 0 {
		first := trades[0]
		initial = first.EntryPrice * first.Qty()
		startClose = benchmark[regime.NearestIndex(benchmark, first.EntryTime)].Close
	}

	points := make([]domain.EquityCurvePoint, len(trades))
	var cum float64
	for i, t := range trades {
		cum += t.PnL
		p := domain.EquityCurvePoint{
			Date:          t.EntryTime,
			CumulativePnL: cum,
			TradeID:       t.ID,
			Ticker:        t.Ticker,
			PnL:           t.PnL,
			IsRevenge:     t.IsRevenge,
			MarketRegime:  t.MarketRegime,
			Contextual:    t.Contextual,
		}
		if t.HasFomo() {
			v := t.FomoScore
			p.FomoScore = &v
		}
		if t.HasPanic() {
			v := t.PanicScore
			p.PanicScore = &v
		}
		if startClose > 0 {
			c := benchmark[regime.NearestIndex(benchmark, t.EntryTime)].Close
			v := ta.Finite(initial * (c/startClose - 1))
			p.BenchmarkCumulativePnL = &v
		}
		points[i] = p
	}
	return points
}

// IsBiased reports whether a trade shows a FOMO entry, a panic exit or a
// revenge re-entry.
func IsBiased(t domain.EnrichedTrade, th Thresholds) bool {
	if t.IsRevenge {
		return true
	}
	return fomoEntry(t, th) || panicExit(t, th)
}

// OpportunityCostOf compares biased trades with holding the benchmark over
// the same periods. nil when there is no benchmark or no biased trade.
func OpportunityCostOf(trades []domain.EnrichedTrade, benchmark []domain.MarketBar, th Thresholds) *domain.OpportunityCost {
	if len(benchmark) == 0 {
		return nil
	}
	oc := domain.OpportunityCost{}
	for _, t := range trades {
		if !IsBiased(t, th) {
			continue
		}
		entryClose := benchmark[regime.NearestIndex(benchmark, t.EntryTime)].Close
		exitClose := benchmark[regime.NearestIndex(benchmark, t.ExitTime)].Close
		if entryClose <= 0 {
			continue
		}
		oc.BiasedTrades++
		oc.BenchmarkPnL += t.EntryPrice * t.Qty() * (exitClose/entryClose - 1)
		oc.RealizedPnL += t.PnL
		oc.TransactionCost += t.TransactionCost
	}
	if oc.BiasedTrades == 0 {
		return nil
	}
	oc.BenchmarkPnL = ta.Finite(oc.BenchmarkPnL)
	oc.Cost = ta.Finite(oc.BenchmarkPnL - oc.RealizedPnL + oc.TransactionCost)
	return &oc
}
