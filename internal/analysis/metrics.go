package analysis

import (
	"errors"
	"math"
	"time"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/regime"
	"trading-mirror/internal/ta"
)

var errNoMarketData = errors.New("no market data for trade")

// TradeMetrics is the per-trade output of the metric calculator.
type TradeMetrics struct {
	FomoScore         float64
	PanicScore        float64
	FomoBase          float64
	PanicBase         float64
	EntryVolumeWeight float64
	ExitVolumeWeight  float64
	MAE               float64
	MFE               float64
	Efficiency        float64
	Regret            float64
	EntryDayHigh      float64
	EntryDayLow       float64
	ExitDayHigh       float64
	ExitDayLow        float64
	UsedIntraday      bool
}

// UnavailableMetrics is returned when a trade cannot be scored.
func UnavailableMetrics() TradeMetrics {
	return TradeMetrics{
		FomoScore:         domain.ScoreUnavailable,
		PanicScore:        domain.ScoreUnavailable,
		FomoBase:          domain.ScoreUnavailable,
		PanicBase:         domain.ScoreUnavailable,
		EntryVolumeWeight: 1,
		ExitVolumeWeight:  1,
	}
}

// MarketContext carries the bars available for one trade. Daily must be
// sorted by date; the intraday slices may be empty.
type MarketContext struct {
	Daily         []domain.MarketBar
	EntryIntraday []domain.MarketBar
	ExitIntraday  []domain.MarketBar
}

// CalculateTradeMetrics scores one trade against its market bars. It never
// fails: unusable data degrades to UnavailableMetrics.
func CalculateTradeMetrics(t domain.Trade, mc MarketContext, th Thresholds) TradeMetrics {
	m, err := calculateTradeMetrics(t, mc, th)
	if err != nil {
		return UnavailableMetrics()
	}
	return sanitizeMetrics(m)
}

func calculateTradeMetrics(t domain.Trade, mc MarketContext, th Thresholds) (TradeMetrics, error) {
	daily := mc.Daily
	if len(daily) == 0 || t.EntryPrice <= 0 {
		return TradeMetrics{}, errNoMarketData
	}

	entryIdx := regime.NearestIndex(daily, t.EntryTime)
	exitIdx := regime.NearestIndex(daily, t.ExitTime)
	entryDay := daily[entryIdx]
	exitDay := daily[exitIdx]

	splitRatio := 1.0
	if entryDay.High > 0 {
		ratio := t.EntryPrice / entryDay.High
		if ratio > th.SplitRatioHigh || ratio < th.SplitRatioLow {
			splitRatio = ratio
		}
	}
	adjust := func(p float64) float64 { return p * splitRatio }

	m := TradeMetrics{
		EntryDayHigh: adjust(entryDay.High),
		EntryDayLow:  adjust(entryDay.Low),
		ExitDayHigh:  adjust(exitDay.High),
		ExitDayLow:   adjust(exitDay.Low),
	}

	rangeLow, rangeHigh := m.EntryDayLow, m.EntryDayHigh
	if pre := barsUpTo(mc.EntryIntraday, t.EntryTime); len(pre) > 0 {
		lo, hi := lowHigh(pre)
		rangeLow, rangeHigh = adjust(lo), adjust(hi)
	}
	m.FomoBase = ta.RangePosition(t.EntryPrice, rangeLow, rangeHigh)
	m.PanicBase = ta.RangePosition(t.ExitPrice, m.ExitDayLow, m.ExitDayHigh)

	volumes := make([]float64, len(daily))
	for i, b := range daily {
		volumes[i] = b.Volume
	}
	m.EntryVolumeWeight = volumeWeight(volumes, entryIdx, th)
	m.ExitVolumeWeight = volumeWeight(volumes, exitIdx, th)

	m.FomoScore = m.FomoBase
	if m.EntryVolumeWeight > 1 && m.FomoBase > th.FomoHigh {
		m.FomoScore = math.Min(1, m.FomoBase*m.EntryVolumeWeight)
	}
	m.PanicScore = m.PanicBase
	if m.ExitVolumeWeight > 1 && m.PanicBase < th.PanicLow {
		m.PanicScore = math.Max(0, m.PanicBase*(2-m.ExitVolumeWeight))
	}

	low, high, intraday := excursionRange(t, mc, entryIdx, exitIdx)
	m.UsedIntraday = intraday
	m.MAE = (adjust(low) - t.EntryPrice) / t.EntryPrice
	m.MFE = (adjust(high) - t.EntryPrice) / t.EntryPrice

	if potential := t.EntryPrice * m.MFE; potential > 0 {
		m.Efficiency = math.Max(0, (t.ExitPrice-t.EntryPrice)/potential)
	}

	if after := daily[exitIdx+1:]; len(after) > 0 {
		if len(after) > th.RegretBars {
			after = after[:th.RegretBars]
		}
		_, postHigh := lowHigh(after)
		m.Regret = math.Max(0, (adjust(postHigh)-t.ExitPrice)*t.Qty())
	}

	return m, nil
}

// volumeWeight buckets the day's volume against its trailing average.
func volumeWeight(volumes []float64, idx int, th Thresholds) float64 {
	avg, ok := ta.TrailingMean(volumes, idx, th.VolumeLookback)
	if !ok || avg <= 0 {
		return 1
	}
	ratio := volumes[idx] / avg
	switch {
	case ratio < th.VolumeSpikeModerate:
		return 1
	case ratio < th.VolumeSpikeExtreme:
		return th.VolumeWeightModerate
	default:
		return th.VolumeWeightExtreme
	}
}

// excursionRange returns the raw low/high seen while the position was open,
// preferring intraday bars and falling back to the daily holding window.
func excursionRange(t domain.Trade, mc MarketContext, entryIdx, exitIdx int) (float64, float64, bool) {
	var holding []domain.MarketBar
	if sameDay(t.EntryTime, t.ExitTime) {
		for _, b := range mc.EntryIntraday {
			if !b.Date.Before(t.EntryTime) && !b.Date.After(t.ExitTime) {
				holding = append(holding, b)
			}
		}
	} else if len(mc.EntryIntraday) > 0 {
		for _, b := range mc.EntryIntraday {
			if sameDay(b.Date, t.EntryTime) && !b.Date.Before(t.EntryTime) {
				holding = append(holding, b)
			}
		}
		for _, b := range mc.ExitIntraday {
			if sameDay(b.Date, t.ExitTime) && !b.Date.After(t.ExitTime) {
				holding = append(holding, b)
			}
		}
	}
	if len(holding) > 0 {
		lo, hi := lowHigh(holding)
		return lo, hi, true
	}

	if exitIdx < entryIdx {
		lo, hi := lowHigh(mc.Daily[entryIdx : entryIdx+1])
		return lo, hi, false
	}
	lo, hi := lowHigh(mc.Daily[entryIdx : exitIdx+1])
	return lo, hi, false
}

func barsUpTo(bars []domain.MarketBar, at time.Time) []domain.MarketBar {
	var out []domain.MarketBar
	for _, b := range bars {
		if !b.Date.After(at) {
			out = append(out, b)
		}
	}
	return out
}

func lowHigh(bars []domain.MarketBar) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, b := range bars {
		lo = math.Min(lo, b.Low)
		hi = math.Max(hi, b.High)
	}
	return lo, hi
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sanitizeMetrics(m TradeMetrics) TradeMetrics {
	m.MAE = ta.Finite(m.MAE)
	m.MFE = ta.Finite(m.MFE)
	m.Efficiency = ta.Finite(m.Efficiency)
	m.Regret = ta.Finite(m.Regret)
	m.EntryDayHigh = ta.Finite(m.EntryDayHigh)
	m.EntryDayLow = ta.Finite(m.EntryDayLow)
	m.ExitDayHigh = ta.Finite(m.ExitDayHigh)
	m.ExitDayLow = ta.Finite(m.ExitDayLow)
	return m
}

// ContextualDecomposition builds the display-only contextual score for a
// trade showing a FOMO, panic or revenge signal. nil means no signal.
func ContextualDecomposition(et domain.EnrichedTrade, th Thresholds) *domain.ContextualScore {
	fomoSignal := et.HasFomo() && et.FomoScore >= th.FomoHigh
	panicSignal := et.HasPanic() && et.PanicScore <= th.PanicLow
	if !fomoSignal && !panicSignal && !et.IsRevenge {
		return nil
	}

	base := 100.0
	if et.FomoBase >= 0 {
		base -= et.FomoBase * 20
	}
	if et.PanicBase >= 0 {
		base -= (1 - et.PanicBase) * 20
	}
	base = ta.Clamp(base, 0, 100)

	volume := math.Max(et.EntryVolumeWeight, et.ExitVolumeWeight)
	if volume <= 0 {
		volume = 1
	}
	weight := th.Weights.Weight(et.MarketRegime, et.FomoScore, et.PanicScore)

	return &domain.ContextualScore{
		BaseScore:       base,
		VolumeWeight:    volume,
		RegimeWeight:    weight,
		ContextualScore: ta.Clamp(base*volume*weight, 0, 150),
	}
}
