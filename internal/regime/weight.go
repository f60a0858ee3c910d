package regime

import "trading-mirror/internal/domain"

// WeightTable maps a regime and the trade's behavior to a multiplier.
// Panic-selling into a bull market and FOMO-buying into a bear market are
// weighted up; the opposite pairings are weighted down.
type WeightTable struct {
	BullPanic      float64 `yaml:"bull_panic"`
	BullFomo       float64 `yaml:"bull_fomo"`
	BearPanic      float64 `yaml:"bear_panic"`
	BearFomo       float64 `yaml:"bear_fomo"`
	FomoThreshold  float64 `yaml:"fomo_threshold"`
	PanicThreshold float64 `yaml:"panic_threshold"`
}

func DefaultWeightTable() WeightTable {
	return WeightTable{
		BullPanic:      1.5,
		BullFomo:       0.8,
		BearPanic:      1.0,
		BearFomo:       1.5,
		FomoThreshold:  0.7,
		PanicThreshold: 0.3,
	}
}

// Weight returns the regime weight for a trade. Sentinel scores never count
// as a FOMO buy or a panic sell.
func (w WeightTable) Weight(r domain.MarketRegime, fomo, panic float64) float64 {
	fomoBuy := fomo != domain.ScoreUnavailable && fomo >= w.FomoThreshold
	panicSell := panic != domain.ScoreUnavailable && panic >= 0 && panic <= w.PanicThreshold

	switch r {
	case domain.RegimeBull:
		if panicSell {
			return w.BullPanic
		}
		if fomoBuy {
			return w.BullFomo
		}
	case domain.RegimeBear:
		if fomoBuy {
			return w.BearFomo
		}
		if panicSell {
			return w.BearPanic
		}
	}
	return 1.0
}
