package analysis

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/ta"
)

// AlphaResult holds Jensen's alpha and beta, or the average-return fallback.
type AlphaResult struct {
	Alpha  float64
	Beta   *float64
	Method string
}

// JensenAlpha regresses the portfolio's daily returns on the benchmark's.
// Each trade's return is spread evenly over the business days it was held
// and concurrent trades are averaged. With too few trades, too short a span
// or no usable benchmark overlap it falls back to the mean trade return.
func JensenAlpha(trades []domain.EnrichedTrade, benchmark []domain.MarketBar, th Thresholds) AlphaResult {
	returns := make([]float64, len(trades))
	for i, t := range trades {
		returns[i] = t.ReturnPct
	}
	fallback := AlphaResult{Alpha: ta.Mean(returns), Method: domain.AlphaMethodAverageReturn}

	if len(trades) < th.AlphaMinTrades || len(benchmark) < 2 {
		return fallback
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
	if last.Sub(first).Hours()/24 < th.AlphaMinSpanDays {
		return fallback
	}

	benchDaily := make(map[time.Time]float64, len(benchmark))
	for i := 1; i < len(benchmark); i++ {
		prev := benchmark[i-1].Close
		if prev <= 0 {
			continue
		}
		benchDaily[dayKey(benchmark[i].Date)] = benchmark[i].Close/prev - 1
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	for _, t := range trades {
		days := businessDays(t.EntryTime, t.ExitTime)
		if len(days) == 0 {
			continue
		}
		daily := t.ReturnPct / float64(len(days))
		for _, d := range days {
			sums[d] += daily
			counts[d]++
		}
	}

	dates := make([]time.Time, 0, len(sums))
	for d := range sums {
		if _, ok := benchDaily[d]; ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if len(dates) < 2 {
		return fallback
	}

	port := make([]float64, len(dates))
	bench := make([]float64, len(dates))
	for i, d := range dates {
		port[i] = sums[d] / float64(counts[d])
		bench[i] = benchDaily[d]
	}

	variance := stat.Variance(bench, nil)
	if variance <= 0 || ta.Finite(variance) == 0 {
		return fallback
	}
	beta := ta.Finite(stat.Covariance(port, bench, nil) / variance)
	rf := th.RiskFreeRate / th.TradingDays
	alpha := (stat.Mean(port, nil) - (rf + beta*(stat.Mean(bench, nil)-rf))) * th.TradingDays

	return AlphaResult{Alpha: ta.Finite(alpha), Beta: &beta, Method: domain.AlphaMethodJensen}
}

// businessDays lists the weekdays from entry to exit inclusive, by calendar
// day. A trade entered and exited on a weekend still counts one day.
func businessDays(entry, exit time.Time) []time.Time {
	start, end := dayKey(entry), dayKey(exit)
	if end.Before(start) {
		return nil
	}
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = append(out, start)
	}
	return out
}

func dayKey(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
