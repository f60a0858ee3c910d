package analysis

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trading-mirror/internal/regime"
)

// Thresholds collects every heuristic constant used by the engine. The
// defaults are empirically chosen and can be overridden from a YAML file.
type Thresholds struct {
	FomoHigh float64 `yaml:"fomo_high"`
	PanicLow float64 `yaml:"panic_low"`

	SplitRatioHigh float64 `yaml:"split_ratio_high"`
	SplitRatioLow  float64 `yaml:"split_ratio_low"`

	VolumeLookback       int     `yaml:"volume_lookback"`
	VolumeSpikeModerate  float64 `yaml:"volume_spike_moderate"`
	VolumeSpikeExtreme   float64 `yaml:"volume_spike_extreme"`
	VolumeWeightModerate float64 `yaml:"volume_weight_moderate"`
	VolumeWeightExtreme  float64 `yaml:"volume_weight_extreme"`

	RegretBars int `yaml:"regret_bars"`

	RevengeWindow time.Duration `yaml:"revenge_window"`

	ChickenMaxDays   float64 `yaml:"chicken_max_days"`
	ChickenMaxReturn float64 `yaml:"chicken_max_return"`
	ChickenMinRatio  float64 `yaml:"chicken_min_ratio"`
	ChickenPenalty   float64 `yaml:"chicken_penalty"`
	LongLossDays     float64 `yaml:"long_loss_days"`
	LongLossMinRatio float64 `yaml:"long_loss_min_ratio"`
	LongLossPenalty  float64 `yaml:"long_loss_penalty"`

	RiskFreeRate     float64 `yaml:"risk_free_rate"`
	TradingDays      float64 `yaml:"trading_days"`
	AlphaMinTrades   int     `yaml:"alpha_min_trades"`
	AlphaMinSpanDays float64 `yaml:"alpha_min_span_days"`

	RegimeFomoBear  float64 `yaml:"regime_fomo_bear"`
	RegimeFomoBull  float64 `yaml:"regime_fomo_bull"`
	RegimePanicBull float64 `yaml:"regime_panic_bull"`

	MonteCarloTrials    int     `yaml:"monte_carlo_trials"`
	MonteCarloMinTrades int     `yaml:"monte_carlo_min_trades"`
	MonteCarloSeed      uint64  `yaml:"monte_carlo_seed"`
	LuckNudge           float64 `yaml:"luck_nudge"`

	LowSampleTrades   int     `yaml:"low_sample_trades"`
	BaselineMinTrades int     `yaml:"baseline_min_trades"`
	ShiftMinTrades    int     `yaml:"shift_min_trades"`
	ShiftRecentWindow int     `yaml:"shift_recent_window"`
	ShiftDeadband     float64 `yaml:"shift_deadband"`
	ShiftDeadbandWide float64 `yaml:"shift_deadband_wide"`

	BiasMinFrequency float64 `yaml:"bias_min_frequency"`
	LowLossDollars   float64 `yaml:"low_loss_dollars"`

	PatternMinTrades     int     `yaml:"pattern_min_trades"`
	HighMAE              float64 `yaml:"high_mae"`
	TimeClusterShare     float64 `yaml:"time_cluster_share"`
	TimeClusterHighShare float64 `yaml:"time_cluster_high_share"`
	PriceClusterMin      int     `yaml:"price_cluster_min"`
	PriceClusterRatio    float64 `yaml:"price_cluster_ratio"`
	RevengeSequenceHours float64 `yaml:"revenge_sequence_hours"`
	RegimeFomoRatio      float64 `yaml:"regime_fomo_ratio"`
	RegimeMinTrades      int     `yaml:"regime_min_trades"`
	BullPanicRatio       float64 `yaml:"bull_panic_ratio"`
	BullPanicMinRate     float64 `yaml:"bull_panic_min_rate"`
	MAEClusterMin        int     `yaml:"mae_cluster_min"`
	MAEHoldRatio         float64 `yaml:"mae_hold_ratio"`
	LargeLossReturn      float64 `yaml:"large_loss_return"`
	CausalMinEvents      int     `yaml:"causal_min_events"`

	TransactionCostRate float64 `yaml:"transaction_cost_rate"`

	Regime  regime.Config      `yaml:"regime"`
	Weights regime.WeightTable `yaml:"weights"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		FomoHigh: 0.7,
		PanicLow: 0.3,

		SplitRatioHigh: 2.0,
		SplitRatioLow:  0.5,

		VolumeLookback:       20,
		VolumeSpikeModerate:  2.5,
		VolumeSpikeExtreme:   5.0,
		VolumeWeightModerate: 1.2,
		VolumeWeightExtreme:  1.5,

		RegretBars: 3,

		RevengeWindow: 24 * time.Hour,

		ChickenMaxDays:   0.1,
		ChickenMaxReturn: 0.02,
		ChickenMinRatio:  0.3,
		ChickenPenalty:   0.5,
		LongLossDays:     30,
		LongLossMinRatio: 0.2,
		LongLossPenalty:  0.3,

		RiskFreeRate:     0.02,
		TradingDays:      252,
		AlphaMinTrades:   20,
		AlphaMinSpanDays: 60,

		RegimeFomoBear:  1.5,
		RegimeFomoBull:  0.8,
		RegimePanicBull: 0.67,

		MonteCarloTrials:    1000,
		MonteCarloMinTrades: 5,
		MonteCarloSeed:      42,
		LuckNudge:           5,

		LowSampleTrades:   5,
		BaselineMinTrades: 3,
		ShiftMinTrades:    6,
		ShiftRecentWindow: 3,
		ShiftDeadband:     5,
		ShiftDeadbandWide: 10,

		BiasMinFrequency: 0.3,
		LowLossDollars:   50,

		PatternMinTrades:     3,
		HighMAE:              -0.02,
		TimeClusterShare:     0.4,
		TimeClusterHighShare: 0.6,
		PriceClusterMin:      5,
		PriceClusterRatio:    0.95,
		RevengeSequenceHours: 24,
		RegimeFomoRatio:      1.5,
		RegimeMinTrades:      3,
		BullPanicRatio:       0.8,
		BullPanicMinRate:     0.2,
		MAEClusterMin:        5,
		MAEHoldRatio:         1.5,
		LargeLossReturn:      -0.05,
		CausalMinEvents:      3,

		TransactionCostRate: 0.001,

		Regime:  regime.DefaultConfig(),
		Weights: regime.DefaultWeightTable(),
	}
}

// LoadThresholds reads a YAML file on top of the defaults. Keys missing from
// the file keep their default value.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(raw, &th); err != nil {
		return DefaultThresholds(), fmt.Errorf("parse thresholds %s: %w", path, err)
	}
	return th, nil
}
