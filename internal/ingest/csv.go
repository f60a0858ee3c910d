package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"trading-mirror/internal/domain"
)

var ErrNoTrades = errors.New("no trades in upload")

const (
	colTicker     = "ticker"
	colEntryDate  = "entry_date"
	colEntryPrice = "entry_price"
	colExitDate   = "exit_date"
	colExitPrice  = "exit_price"
	colQuantity   = "quantity"
)

var headerAliases = map[string]string{
	"ticker":      colTicker,
	"symbol":      colTicker,
	"entry_date":  colEntryDate,
	"buy_date":    colEntryDate,
	"entry_time":  colEntryDate,
	"entry_price": colEntryPrice,
	"buy_price":   colEntryPrice,
	"exit_date":   colExitDate,
	"sell_date":   colExitDate,
	"exit_time":   colExitDate,
	"exit_price":  colExitPrice,
	"sell_price":  colExitPrice,
	"qty":         colQuantity,
	"quantity":    colQuantity,
	"shares":      colQuantity,
}

var required = []string{colTicker, colEntryDate, colEntryPrice, colExitDate, colExitPrice}

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// ParseCSV reads one closed trade per row. Timestamps without a zone are
// kept as wall-clock time in UTC.
func ParseCSV(r io.Reader) ([]domain.Trade, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoTrades
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var trades []domain.Trade
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		t, err := parseRow(record, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		trades = append(trades, t)
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return trades, nil
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		key = strings.ReplaceAll(key, " ", "_")
		if canonical, ok := headerAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	var missing []string
	for _, c := range required {
		if _, ok := cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(record []string, cols map[string]int) (domain.Trade, error) {
	get := func(col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var t domain.Trade
	t.Ticker = strings.ToUpper(get(colTicker))
	if t.Ticker == "" {
		return t, errors.New("empty ticker")
	}

	var err error
	if t.EntryTime, err = ParseTime(get(colEntryDate)); err != nil {
		return t, fmt.Errorf("entry date: %w", err)
	}
	if t.ExitTime, err = ParseTime(get(colExitDate)); err != nil {
		return t, fmt.Errorf("exit date: %w", err)
	}
	if t.ExitTime.Before(t.EntryTime) {
		return t, errors.New("exit before entry")
	}
	if t.EntryPrice, err = parsePrice(get(colEntryPrice)); err != nil {
		return t, fmt.Errorf("entry price: %w", err)
	}
	if t.ExitPrice, err = parsePrice(get(colExitPrice)); err != nil {
		return t, fmt.Errorf("exit price: %w", err)
	}

	t.Quantity = 1
	if q := get(colQuantity); q != "" {
		n, err := strconv.ParseFloat(strings.ReplaceAll(q, ",", ""), 64)
		if err != nil || !positive(n) {
			return t, fmt.Errorf("invalid quantity %q", q)
		}
		t.Quantity = n
	}
	return t, nil
}

// ParseTime accepts a date or a date with time of day.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			if layout == time.RFC3339 {
				// keep the local wall clock, drop the zone
				y, mo, d := ts.Date()
				h, mi, sec := ts.Clock()
				return time.Date(y, mo, d, h, mi, sec, 0, time.UTC), nil
			}
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func parsePrice(s string) (float64, error) {
	s = strings.TrimPrefix(strings.ReplaceAll(s, ",", ""), "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if !positive(v) {
		return 0, fmt.Errorf("must be a positive number, got %q", s)
	}
	return v, nil
}

// positive reports whether v is a finite number above zero. ParseFloat
// accepts NaN and Inf, neither of which is a price.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
