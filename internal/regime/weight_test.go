package regime

import (
	"testing"

	"trading-mirror/internal/domain"
)

func TestWeightTable(t *testing.T) {
	w := DefaultWeightTable()
	tests := []struct {
		name   string
		regime domain.MarketRegime
		fomo   float64
		panic  float64
		want   float64
	}{
		{"bull panic sell", domain.RegimeBull, 0.5, 0.1, 1.5},
		{"bull fomo buy", domain.RegimeBull, 0.9, 0.5, 0.8},
		{"bull panic beats fomo", domain.RegimeBull, 0.9, 0.1, 1.5},
		{"bull neither", domain.RegimeBull, 0.5, 0.5, 1.0},
		{"bear fomo buy", domain.RegimeBear, 0.75, 0.5, 1.5},
		{"bear panic sell", domain.RegimeBear, 0.5, 0.2, 1.0},
		{"sideways fomo", domain.RegimeSideways, 0.95, 0.5, 1.0},
		{"unknown panic", domain.RegimeUnknown, 0.5, 0.0, 1.0},
		{"sentinel panic ignored", domain.RegimeBull, 0.5, domain.ScoreUnavailable, 1.0},
		{"sentinel fomo ignored", domain.RegimeBear, domain.ScoreUnavailable, 0.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Weight(tt.regime, tt.fomo, tt.panic); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
