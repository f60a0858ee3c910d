package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"trading-mirror/internal/domain"
)

const (
	yahooBaseURL   = "https://query1.finance.yahoo.com"
	yahooUserAgent = "Mozilla/5.0 (compatible; trading-mirror/1.0)"
	maxRetries     = 3
)

// YahooProvider fetches daily and intraday OHLCV bars from the Yahoo Finance
// chart API.
type YahooProvider struct {
	client     *http.Client
	baseURL    string
	tracer     trace.Tracer
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
}

// NewYahooProvider creates a provider limited to ratePerSec requests per
// second. An empty baseURL uses the public endpoint.
func NewYahooProvider(tracer trace.Tracer, baseURL string, ratePerSec float64) *YahooProvider {
	if baseURL == "" {
		baseURL = yahooBaseURL
	}
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &YahooProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = 20 * time.Second
			return b
		},
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// FetchDaily returns daily bars in [start, end]. Each bar is dated at UTC
// midnight of the exchange-local trading day.
func (p *YahooProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketBar, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-daily")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol))

	res, err := p.fetchChart(ctx, symbol, start, end.Add(24*time.Hour), "1d")
	if err != nil {
		return nil, err
	}
	bars := res.bars(func(local time.Time) time.Time {
		return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	})
	if len(bars) == 0 {
		return nil, domain.ErrBarsNotFound
	}
	return bars, nil
}

// FetchIntraday returns the bars of one exchange-local calendar day. Bar
// times are the exchange wall clock stored as UTC, so they compare directly
// with naive trade timestamps.
func (p *YahooProvider) FetchIntraday(ctx context.Context, symbol string, day time.Time, interval string) ([]domain.MarketBar, error) {
	ctx, span := p.tracer.Start(ctx, "yahoo.fetch-intraday")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", symbol), attribute.String("interval", interval))

	d := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	res, err := p.fetchChart(ctx, symbol, d.Add(-24*time.Hour), d.Add(48*time.Hour), interval)
	if err != nil {
		return nil, err
	}
	all := res.bars(func(local time.Time) time.Time { return local })

	bars := all[:0]
	for _, b := range all {
		if b.Date.Year() == d.Year() && b.Date.YearDay() == d.YearDay() {
			bars = append(bars, b)
		}
	}
	if len(bars) == 0 {
		return nil, domain.ErrBarsNotFound
	}
	return bars, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol string, from, to time.Time, interval string) (*chartResult, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(from.Unix(), 10))
	q.Set("period2", strconv.FormatInt(to.Unix(), 10))
	q.Set("interval", interval)
	q.Set("includePrePost", "false")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), q.Encode())

	body, err := p.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch chart for %s: %w", symbol, err)
	}

	var raw chartResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse chart for %s: %w", symbol, err)
	}
	if raw.Chart.Error != nil {
		if raw.Chart.Error.Code == "Not Found" {
			return nil, domain.ErrBarsNotFound
		}
		return nil, fmt.Errorf("yahoo chart error for %s: %s", symbol, raw.Chart.Error.Description)
	}
	if len(raw.Chart.Result) == 0 {
		return nil, domain.ErrBarsNotFound
	}
	return &raw.Chart.Result[0], nil
}

// bars zips the quote arrays, skipping rows with missing prices. stamp maps
// the exchange-local time to the stored bar date.
func (r *chartResult) bars(stamp func(time.Time) time.Time) []domain.MarketBar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	out := make([]domain.MarketBar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		open, high, low, closePx := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if open == nil || high == nil || low == nil || closePx == nil {
			continue
		}
		vol := 0.0
		if v := at(q.Volume, i); v != nil {
			vol = *v
		}
		local := time.Unix(ts+r.Meta.GMTOffset, 0).UTC()
		out = append(out, domain.MarketBar{
			Date:   stamp(local),
			Open:   *open,
			High:   *high,
			Low:    *low,
			Close:  *closePx,
			Volume: vol,
		})
	}
	return out
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

// statusError is a non-200 reply from the API.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("yahoo API error %d: %s", e.code, e.body)
}

func (p *YahooProvider) doRequest(ctx context.Context, endpoint string) ([]byte, error) {
	var body []byte
	operation := func() error {
		if err := p.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(fmt.Errorf("rate limit wait: %w", err))
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", yahooUserAgent)

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(domain.ErrBarsNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &statusError{code: resp.StatusCode, body: string(data)}
		default:
			return backoff.Permanent(&statusError{code: resp.StatusCode, body: string(data)})
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), maxRetries), ctx)
	if err := backoff.Retry(operation, b); err != nil {
		return nil, err
	}
	return body, nil
}
