package regime

import (
	"sort"
	"time"

	"trading-mirror/internal/domain"
	"trading-mirror/internal/ta"
)

// Config holds the trend parameters of the classifier.
type Config struct {
	MAPeriod       int           `yaml:"ma_period"`
	ChangeBars     int           `yaml:"change_bars"`
	TrendThreshold float64       `yaml:"trend_threshold"`
	BandPct        float64       `yaml:"band_pct"`
	WindowBefore   time.Duration `yaml:"window_before"`
	WindowAfter    time.Duration `yaml:"window_after"`
}

func DefaultConfig() Config {
	return Config{
		MAPeriod:       20,
		ChangeBars:     5,
		TrendThreshold: 0.02,
		BandPct:        0.02,
		WindowBefore:   30 * 24 * time.Hour,
		WindowAfter:    5 * 24 * time.Hour,
	}
}

// Classifier labels dates as BULL, BEAR or SIDEWAYS from a benchmark series.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.MAPeriod <= 0 {
		cfg.MAPeriod = def.MAPeriod
	}
	if cfg.ChangeBars <= 0 {
		cfg.ChangeBars = def.ChangeBars
	}
	if cfg.TrendThreshold <= 0 {
		cfg.TrendThreshold = def.TrendThreshold
	}
	if cfg.BandPct <= 0 {
		cfg.BandPct = def.BandPct
	}
	if cfg.WindowBefore <= 0 {
		cfg.WindowBefore = def.WindowBefore
	}
	if cfg.WindowAfter <= 0 {
		cfg.WindowAfter = def.WindowAfter
	}
	return &Classifier{cfg: cfg}
}

// Classify labels date using benchmark bars. Only bars inside the window
// around date are considered; the nearest bar stands in for a missing date.
// Missing or unusable data yields UNKNOWN.
func (c *Classifier) Classify(date time.Time, benchmark []domain.MarketBar) domain.MarketRegime {
	window := Window(benchmark, date.Add(-c.cfg.WindowBefore), date.Add(c.cfg.WindowAfter))
	if len(window) == 0 {
		return domain.RegimeUnknown
	}

	closes := make([]float64, len(window))
	for i, b := range window {
		if b.Close <= 0 {
			return domain.RegimeUnknown
		}
		closes[i] = b.Close
	}
	ma := ta.SMASeries(closes, c.cfg.MAPeriod)

	idx := NearestIndex(window, date)
	price := closes[idx]
	avg := ma[idx]

	if idx >= c.cfg.ChangeBars {
		change := price/closes[idx-c.cfg.ChangeBars] - 1
		switch {
		case price > avg && change > c.cfg.TrendThreshold:
			return domain.RegimeBull
		case price < avg && change < -c.cfg.TrendThreshold:
			return domain.RegimeBear
		default:
			return domain.RegimeSideways
		}
	}

	switch {
	case price > avg*(1+c.cfg.BandPct):
		return domain.RegimeBull
	case price < avg*(1-c.cfg.BandPct):
		return domain.RegimeBear
	default:
		return domain.RegimeSideways
	}
}

// Window returns the bars dated within [from, to] by calendar day. bars must
// be sorted by date.
func Window(bars []domain.MarketBar, from, to time.Time) []domain.MarketBar {
	lo := dayStart(from)
	hi := dayStart(to)
	start := sort.Search(len(bars), func(i int) bool { return !dayStart(bars[i].Date).Before(lo) })
	end := sort.Search(len(bars), func(i int) bool { return dayStart(bars[i].Date).After(hi) })
	if start >= end {
		return nil
	}
	return bars[start:end]
}

// NearestIndex returns the index of the bar closest in calendar days to date.
// Ties go to the earlier bar. bars must be non-empty and sorted.
func NearestIndex(bars []domain.MarketBar, date time.Time) int {
	target := dayStart(date)
	i := sort.Search(len(bars), func(i int) bool { return !dayStart(bars[i].Date).Before(target) })
	if i < len(bars) && dayStart(bars[i].Date).Equal(target) {
		return i
	}
	if i == 0 {
		return 0
	}
	if i == len(bars) {
		return len(bars) - 1
	}
	before := target.Sub(dayStart(bars[i-1].Date))
	after := dayStart(bars[i].Date).Sub(target)
	if after < before {
		return i
	}
	return i - 1
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
