package analysis

import (
	"fmt"
	"sort"
	"time"

	"trading-mirror/internal/domain"
)

// CausalChain picks the worst trade among high-FOMO or large-loss candidates
// and, when enough adverse conditions co-occur on it, returns the ordered
// event list. Narration is left to the coaching service.
func CausalChain(trades []domain.EnrichedTrade, th Thresholds) *domain.DeepPattern {
	var worst *domain.EnrichedTrade
	for i := range trades {
		t := &trades[i]
		candidate := (t.HasFomo() && t.FomoScore >= th.FomoHigh) || t.ReturnPct <= th.LargeLossReturn
		if !candidate {
			continue
		}
		if worst == nil || t.PnL < worst.PnL {
			worst = t
		}
	}
	if worst == nil {
		return nil
	}

	t := *worst
	avgHold := meanDuration(trades)
	holdLimit := avgHold * th.MAEHoldRatio

	var events []domain.CausalEvent
	conditions := 0

	if t.MarketRegime == domain.RegimeBear {
		conditions++
		events = append(events, domain.CausalEvent{
			Timestamp: t.EntryTime,
			Kind:      domain.EventBearEntry,
			Detail:    "entered while the benchmark was in a downtrend",
		})
	}
	if t.HasFomo() && t.FomoScore >= th.FomoHigh {
		events = append(events, domain.CausalEvent{
			Timestamp: t.EntryTime,
			Kind:      domain.EventFomoEntry,
			Detail:    fmt.Sprintf("bought at %.0f%% of the day's range", t.FomoScore*100),
			Value:     t.FomoScore,
		})
	}
	if t.MAE < th.HighMAE {
		conditions++
		events = append(events, domain.CausalEvent{
			Timestamp: t.EntryTime.Add(t.ExitTime.Sub(t.EntryTime) / 2),
			Kind:      domain.EventHighMAE,
			Detail:    fmt.Sprintf("position fell %.1f%% against entry", -t.MAE*100),
			Value:     t.MAE,
		})
	}
	if (holdLimit > 0 && t.DurationDays > holdLimit) || t.DurationDays > th.LongLossDays {
		conditions++
		at := t.EntryTime.Add(time.Duration(holdLimit * 24 * float64(time.Hour)))
		if holdLimit <= 0 || at.After(t.ExitTime) {
			at = t.ExitTime
		}
		events = append(events, domain.CausalEvent{
			Timestamp: at,
			Kind:      domain.EventForcedHold,
			Detail:    fmt.Sprintf("held %.1f days against a typical %.1f", t.DurationDays, avgHold),
			Value:     t.DurationDays,
		})
	}
	if t.HasPanic() && t.PanicScore <= th.PanicLow {
		conditions++
		events = append(events, domain.CausalEvent{
			Timestamp: t.ExitTime,
			Kind:      domain.EventPanicExit,
			Detail:    fmt.Sprintf("sold at %.0f%% of the day's range", t.PanicScore*100),
			Value:     t.PanicScore,
		})
	}

	if conditions < th.CausalMinEvents {
		return nil
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	sig := domain.SignificanceMedium
	if conditions >= 4 {
		sig = domain.SignificanceHigh
	}
	return &domain.DeepPattern{
		Type:         domain.PatternCausalChain,
		Description:  fmt.Sprintf("%s %s: %d compounding mistakes on one trade", t.Ticker, t.EntryTime.Format("2006-01-02"), conditions),
		Significance: sig,
		Metadata:     map[string]float64{"conditions": float64(conditions), "pnl": t.PnL, "return_pct": t.ReturnPct},
		TradeID:      t.ID,
		Events:       events,
	}
}
