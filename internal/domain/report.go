package domain

import "time"

// BehavioralMetrics is the portfolio-level aggregate of one analysis.
// FomoScore and PanicScore are the regime-weighted indices; FomoIndex is the
// plain mean of the valid FOMO scores.
type BehavioralMetrics struct {
	TotalTrades          int      `json:"total_trades"`
	WinRate              float64  `json:"win_rate"`
	ProfitFactor         float64  `json:"profit_factor"`
	TotalPnL             float64  `json:"total_pnl"`
	TotalNetPnL          float64  `json:"total_net_pnl"`
	FomoScore            float64  `json:"fomo_score"`
	PanicScore           float64  `json:"panic_score"`
	DispositionRatio     float64  `json:"disposition_ratio"`
	RevengeTradingCount  int      `json:"revenge_trading_count"`
	TruthScore           int      `json:"truth_score"`
	SharpeRatio          float64  `json:"sharpe_ratio"`
	SortinoRatio         float64  `json:"sortino_ratio"`
	Alpha                float64  `json:"alpha"`
	Beta                 *float64 `json:"beta,omitempty"`
	AlphaMethod          string   `json:"alpha_method"`
	MaxDrawdown          float64  `json:"max_drawdown"`
	LuckPercentile       float64  `json:"luck_percentile"`
	FomoIndex            float64  `json:"fomo_index"`
	AvgHoldingDaysWinner float64  `json:"avg_holding_days_winner"`
	AvgHoldingDaysLoser  float64  `json:"avg_holding_days_loser"`
}

const (
	AlphaMethodJensen        = "jensen"
	AlphaMethodAverageReturn = "average_return"
)

// PersonalBaseline holds the trader's own historical averages.
type PersonalBaseline struct {
	AvgFomo             float64 `json:"avg_fomo"`
	AvgPanic            float64 `json:"avg_panic"`
	AvgMAE              float64 `json:"avg_mae"`
	AvgDispositionRatio float64 `json:"avg_disposition_ratio"`
	AvgRevengeCount     float64 `json:"avg_revenge_count"`
}

type BiasType string

const (
	BiasFomo        BiasType = "FOMO"
	BiasPanic       BiasType = "Panic Sell"
	BiasRevenge     BiasType = "Revenge Trading"
	BiasDisposition BiasType = "Disposition Effect"
)

// BiasLossMapping attributes realized dollar losses to each bias. All values
// are non-negative.
type BiasLossMapping struct {
	FomoLoss        float64 `json:"fomo_loss"`
	PanicLoss       float64 `json:"panic_loss"`
	RevengeLoss     float64 `json:"revenge_loss"`
	DispositionLoss float64 `json:"disposition_loss"`
}

// Loss returns the attributed loss for bias.
func (m BiasLossMapping) Loss(bias BiasType) float64 {
	switch bias {
	case BiasFomo:
		return m.FomoLoss
	case BiasPanic:
		return m.PanicLoss
	case BiasRevenge:
		return m.RevengeLoss
	case BiasDisposition:
		return m.DispositionLoss
	}
	return 0
}

type BiasPriority struct {
	Bias          BiasType `json:"bias"`
	Priority      int      `json:"priority"`
	FinancialLoss float64  `json:"financial_loss"`
	Frequency     float64  `json:"frequency"`
	Severity      float64  `json:"severity"`
	Score         float64  `json:"score"`
}

type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendWorsening Trend = "WORSENING"
	TrendStable    Trend = "STABLE"
)

type BehaviorShift struct {
	Bias          BiasType `json:"bias"`
	RecentValue   float64  `json:"recent_value"`
	BaselineValue float64  `json:"baseline_value"`
	ChangePct     float64  `json:"change_pct"`
	Trend         Trend    `json:"trend"`
}

type EquityCurvePoint struct {
	Date                   time.Time        `json:"date"`
	CumulativePnL          float64          `json:"cumulative_pnl"`
	BenchmarkCumulativePnL *float64         `json:"benchmark_cumulative_pnl,omitempty"`
	TradeID                string           `json:"trade_id"`
	Ticker                 string           `json:"ticker"`
	PnL                    float64          `json:"pnl"`
	FomoScore              *float64         `json:"fomo_score,omitempty"`
	PanicScore             *float64         `json:"panic_score,omitempty"`
	IsRevenge              bool             `json:"is_revenge"`
	MarketRegime           MarketRegime     `json:"market_regime"`
	Contextual             *ContextualScore `json:"contextual,omitempty"`
}

// OpportunityCost compares the biased trades against holding the benchmark
// over the same periods.
type OpportunityCost struct {
	BiasedTrades    int     `json:"biased_trades"`
	BenchmarkPnL    float64 `json:"benchmark_pnl"`
	RealizedPnL     float64 `json:"realized_pnl"`
	TransactionCost float64 `json:"transaction_cost"`
	Cost            float64 `json:"opportunity_cost"`
}

type PatternType string

const (
	PatternTimeCluster      PatternType = "TIME_CLUSTER"
	PatternPriceCluster     PatternType = "PRICE_CLUSTER"
	PatternRevengeSequence  PatternType = "REVENGE_SEQUENCE"
	PatternMarketRegime     PatternType = "MARKET_REGIME"
	PatternBullRegimePanic  PatternType = "BULL_REGIME_PANIC"
	PatternMAECluster       PatternType = "MAE_CLUSTER"
	PatternShortTermChicken PatternType = "SHORT_TERM_CHICKEN"
	PatternLongTermLoss     PatternType = "LONG_TERM_LOSS"
	PatternCausalChain      PatternType = "CAUSAL_CHAIN"
)

type Significance string

const (
	SignificanceHigh   Significance = "HIGH"
	SignificanceMedium Significance = "MEDIUM"
	SignificanceLow    Significance = "LOW"
)

type DeepPattern struct {
	Type         PatternType        `json:"type"`
	Description  string             `json:"description"`
	Significance Significance       `json:"significance"`
	Metadata     map[string]float64 `json:"metadata"`
	TradeID      string             `json:"trade_id,omitempty"`
	Events       []CausalEvent      `json:"events,omitempty"`
	Narrative    string             `json:"narrative,omitempty"`
}

type CausalEventKind string

const (
	EventFomoEntry  CausalEventKind = "HIGH_FOMO_ENTRY"
	EventBearEntry  CausalEventKind = "BEAR_REGIME_ENTRY"
	EventHighMAE    CausalEventKind = "HIGH_MAE"
	EventForcedHold CausalEventKind = "FORCED_LONG_HOLD"
	EventPanicExit  CausalEventKind = "PANIC_EXIT"
)

// CausalEvent is one timestamped step of a causal chain.
type CausalEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Kind      CausalEventKind `json:"kind"`
	Detail    string          `json:"detail"`
	Value     float64         `json:"value"`
}

// AnalysisReport is the full response of one analysis request.
type AnalysisReport struct {
	AnalysisID          string             `json:"analysis_id"`
	Trades              []EnrichedTrade    `json:"trades"`
	Metrics             BehavioralMetrics  `json:"metrics"`
	IsLowSample         bool               `json:"is_low_sample"`
	PersonalBaseline    *PersonalBaseline  `json:"personal_baseline,omitempty"`
	BiasLossMapping     *BiasLossMapping   `json:"bias_loss_mapping,omitempty"`
	BiasPriority        []BiasPriority     `json:"bias_priority,omitempty"`
	BehaviorShift       []BehaviorShift    `json:"behavior_shift,omitempty"`
	EquityCurve         []EquityCurvePoint `json:"equity_curve"`
	OpportunityCost     *OpportunityCost   `json:"opportunity_cost,omitempty"`
	DeepPatterns        []DeepPattern      `json:"deep_patterns,omitempty"`
	MarketDataFailures  int                `json:"market_data_failures"`
	BenchmarkLoadFailed bool               `json:"benchmark_load_failed"`
	IntradayLoadFailed  bool               `json:"intraday_load_failed"`
}
