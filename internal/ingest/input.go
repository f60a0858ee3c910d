package ingest

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"trading-mirror/internal/domain"
)

// TradeInput is the JSON shape of one submitted trade. Dates use the same
// layouts as the CSV columns.
type TradeInput struct {
	Ticker     string  `json:"ticker" binding:"required"`
	EntryDate  string  `json:"entry_date" binding:"required"`
	EntryPrice float64 `json:"entry_price" binding:"required"`
	ExitDate   string  `json:"exit_date" binding:"required"`
	ExitPrice  float64 `json:"exit_price" binding:"required"`
	Quantity   float64 `json:"quantity,omitempty"`
}

// ParseInputs validates and converts JSON trades.
func ParseInputs(inputs []TradeInput) ([]domain.Trade, error) {
	if len(inputs) == 0 {
		return nil, ErrNoTrades
	}
	trades := make([]domain.Trade, 0, len(inputs))
	for i, in := range inputs {
		t, err := in.toTrade()
		if err != nil {
			return nil, fmt.Errorf("trade %d: %w", i+1, err)
		}
		trades = append(trades, t)
	}
	return trades, nil
}

func (in TradeInput) toTrade() (domain.Trade, error) {
	t := domain.Trade{
		Ticker:     strings.ToUpper(strings.TrimSpace(in.Ticker)),
		EntryPrice: in.EntryPrice,
		ExitPrice:  in.ExitPrice,
		Quantity:   in.Quantity,
	}
	if t.Ticker == "" {
		return t, errors.New("empty ticker")
	}
	if !positive(t.EntryPrice) || !positive(t.ExitPrice) {
		return t, errors.New("prices must be positive")
	}
	if t.Quantity < 0 || math.IsNaN(t.Quantity) || math.IsInf(t.Quantity, 0) {
		return t, fmt.Errorf("invalid quantity %v", t.Quantity)
	}
	if t.Quantity == 0 {
		t.Quantity = 1
	}

	var err error
	if t.EntryTime, err = ParseTime(in.EntryDate); err != nil {
		return t, fmt.Errorf("entry date: %w", err)
	}
	if t.ExitTime, err = ParseTime(in.ExitDate); err != nil {
		return t, fmt.Errorf("exit date: %w", err)
	}
	if t.ExitTime.Before(t.EntryTime) {
		return t, errors.New("exit before entry")
	}
	return t, nil
}
