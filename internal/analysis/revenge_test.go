package analysis

import (
	"testing"
	"time"

	"trading-mirror/internal/domain"
)

func closed(ticker string, entry, exit time.Time, pnl float64) domain.EnrichedTrade {
	return domain.EnrichedTrade{
		Trade: domain.Trade{Ticker: ticker, EntryTime: entry, ExitTime: exit},
		PnL:   pnl,
	}
}

func TestDetectRevengeScenario(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	lossExit := t0.Add(30 * time.Hour)
	trades := []domain.EnrichedTrade{
		closed("AAPL", t0, t0.Add(2*time.Hour), 50),
		closed("AAPL", t0.Add(24*time.Hour), lossExit, -80),
		closed("AAPL", lossExit.Add(10*time.Hour), lossExit.Add(12*time.Hour), 10),
	}

	flags, count := DetectRevenge(trades, 24*time.Hour)
	if count != 1 {
		t.Fatalf("expected 1 revenge trade, got %d", count)
	}
	if flags[0] || flags[1] || !flags[2] {
		t.Fatalf("unexpected flags: %v", flags)
	}
}

func TestDetectRevengeRequiresSameTickerAndLoss(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		trade []domain.EnrichedTrade
		want  bool
	}{
		{
			name: "other ticker",
			trade: []domain.EnrichedTrade{
				closed("MSFT", t0, t0.Add(time.Hour), -10),
				closed("AAPL", t0.Add(2*time.Hour), t0.Add(3*time.Hour), 5),
			},
		},
		{
			name: "prior winner",
			trade: []domain.EnrichedTrade{
				closed("AAPL", t0, t0.Add(time.Hour), 10),
				closed("AAPL", t0.Add(2*time.Hour), t0.Add(3*time.Hour), 5),
			},
		},
		{
			name: "breakeven is not a loss",
			trade: []domain.EnrichedTrade{
				closed("AAPL", t0, t0.Add(time.Hour), 0),
				closed("AAPL", t0.Add(2*time.Hour), t0.Add(3*time.Hour), 5),
			},
		},
		{
			name: "outside window",
			trade: []domain.EnrichedTrade{
				closed("AAPL", t0, t0.Add(time.Hour), -10),
				closed("AAPL", t0.Add(26*time.Hour), t0.Add(27*time.Hour), 5),
			},
		},
		{
			name: "entered before prior exit",
			trade: []domain.EnrichedTrade{
				closed("AAPL", t0, t0.Add(5*time.Hour), -10),
				closed("AAPL", t0.Add(time.Hour), t0.Add(6*time.Hour), 5),
			},
		},
		{
			name: "exactly 24h",
			trade: []domain.EnrichedTrade{
				closed("AAPL", t0, t0.Add(time.Hour), -10),
				closed("AAPL", t0.Add(25*time.Hour), t0.Add(26*time.Hour), 5),
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, _ := DetectRevenge(tt.trade, 24*time.Hour)
			if flags[1] != tt.want {
				t.Fatalf("expected revenge=%v, got %v", tt.want, flags[1])
			}
		})
	}
}

func TestDetectRevengeCountsEachTradeOnce(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	trades := []domain.EnrichedTrade{
		closed("AAPL", t0, t0.Add(time.Hour), -10),
		closed("AAPL", t0.Add(30*time.Minute), t0.Add(2*time.Hour), -10),
		closed("AAPL", t0.Add(3*time.Hour), t0.Add(4*time.Hour), 10),
	}
	_, count := DetectRevenge(trades, 24*time.Hour)
	if count != 1 {
		t.Fatalf("expected one flagged trade despite two qualifying priors, got %d", count)
	}
}

func TestSortByEntryDoesNotMutateInput(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []domain.EnrichedTrade{
		closed("B", t0.Add(48*time.Hour), t0.Add(49*time.Hour), 1),
		closed("A", t0, t0.Add(time.Hour), 1),
	}
	out := SortByEntry(in)
	if out[0].Ticker != "A" || out[1].Ticker != "B" {
		t.Fatalf("unexpected order: %s, %s", out[0].Ticker, out[1].Ticker)
	}
	if in[0].Ticker != "B" {
		t.Fatal("input slice was reordered")
	}
}
