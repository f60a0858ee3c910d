package domain

import (
	"errors"
	"time"
)

// ErrBarsNotFound is returned by bar stores when a ticker has no data for the
// requested range. It is not treated as a provider failure.
var ErrBarsNotFound = errors.New("market bars not found")

// ScoreUnavailable marks a bounded score that could not be computed because
// market data for the trade was missing.
const ScoreUnavailable = -1.0

// MarketBar is a single daily or intraday OHLCV bar for one ticker.
type MarketBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Trade is one closed round trip as submitted by the trader.
type Trade struct {
	Ticker     string    `json:"ticker"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Quantity   float64   `json:"quantity"`
}

// Qty returns the trade quantity, defaulting to one share.
func (t Trade) Qty() float64 {
	if t.Quantity <= 0 {
		return 1
	}
	return t.Quantity
}

// HasIntradayEntry reports whether the entry carries a time of day.
func (t Trade) HasIntradayEntry() bool {
	h, m, s := t.EntryTime.Clock()
	return h != 0 || m != 0 || s != 0
}

type MarketRegime string

const (
	RegimeBull     MarketRegime = "BULL"
	RegimeBear     MarketRegime = "BEAR"
	RegimeSideways MarketRegime = "SIDEWAYS"
	RegimeUnknown  MarketRegime = "UNKNOWN"
)

// ContextualScore is the display-only decomposition attached to trades that
// show a FOMO, panic or revenge signal.
type ContextualScore struct {
	BaseScore       float64 `json:"base_score"`
	VolumeWeight    float64 `json:"volume_weight"`
	RegimeWeight    float64 `json:"regime_weight"`
	ContextualScore float64 `json:"contextual_score"`
}

// EnrichedTrade is a Trade plus everything derived from market bars and from
// its position in the trade sequence.
type EnrichedTrade struct {
	Trade
	ID              string       `json:"trade_id"`
	PnL             float64      `json:"pnl"`
	ReturnPct       float64      `json:"return_pct"`
	TransactionCost float64      `json:"transaction_cost"`
	NetPnL          float64      `json:"net_pnl"`
	DurationDays    float64      `json:"duration_days"`
	MarketRegime    MarketRegime `json:"market_regime"`
	IsRevenge       bool         `json:"is_revenge"`

	FomoScore         float64 `json:"fomo_score"`
	PanicScore        float64 `json:"panic_score"`
	FomoBase          float64 `json:"fomo_base"`
	PanicBase         float64 `json:"panic_base"`
	EntryVolumeWeight float64 `json:"entry_volume_weight"`
	ExitVolumeWeight  float64 `json:"exit_volume_weight"`

	MAE        float64 `json:"mae"`
	MFE        float64 `json:"mfe"`
	Efficiency float64 `json:"efficiency"`
	Regret     float64 `json:"regret"`

	EntryDayHigh float64 `json:"entry_day_high"`
	EntryDayLow  float64 `json:"entry_day_low"`
	ExitDayHigh  float64 `json:"exit_day_high"`
	ExitDayLow   float64 `json:"exit_day_low"`

	UsedIntraday bool             `json:"used_intraday"`
	Contextual   *ContextualScore `json:"contextual,omitempty"`
	StrategyTag  string           `json:"strategy_tag,omitempty"`
}

func (t EnrichedTrade) HasFomo() bool  { return t.FomoScore >= 0 }
func (t EnrichedTrade) HasPanic() bool { return t.PanicScore >= 0 }
func (t EnrichedTrade) IsWinner() bool { return t.PnL > 0 }
