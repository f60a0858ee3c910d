package analysis

import (
	"sort"
	"time"

	"trading-mirror/internal/domain"
)

// SortByEntry returns a copy of trades ordered by entry time. Equal entry
// times keep their input order.
func SortByEntry(trades []domain.EnrichedTrade) []domain.EnrichedTrade {
	out := make([]domain.EnrichedTrade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryTime.Before(out[j].EntryTime)
	})
	return out
}

// DetectRevenge flags trades that re-enter a ticker within window after a
// losing exit on that same ticker. trades must be sorted by entry time. The
// scan is quadratic, which is fine for a single upload.
func DetectRevenge(trades []domain.EnrichedTrade, window time.Duration) ([]bool, int) {
	flags := make([]bool, len(trades))
	count := 0
	for i := 1; i < len(trades); i++ {
		cur := trades[i]
		for j := 0; j < i; j++ {
			prev := trades[j]
			if prev.Ticker != cur.Ticker || prev.PnL >= 0 {
				continue
			}
			gap := cur.EntryTime.Sub(prev.ExitTime)
			if gap >= 0 && gap <= window {
				flags[i] = true
				count++
				break
			}
		}
	}
	return flags, count
}
