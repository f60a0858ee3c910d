package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type mockFetcher struct {
	mu       sync.Mutex
	bars     map[string][]domain.MarketBar
	errs     map[string]error
	requests []string
}

func (m *mockFetcher) FetchDaily(_ context.Context, symbol string, _, _ time.Time) ([]domain.MarketBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	if bars, ok := m.bars[symbol]; ok {
		return bars, nil
	}
	return nil, domain.ErrBarsNotFound
}

func (m *mockFetcher) FetchIntraday(ctx context.Context, symbol string, day time.Time, _ string) ([]domain.MarketBar, error) {
	return m.FetchDaily(ctx, symbol, day, day)
}

func (m *mockFetcher) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

type mockRepo struct {
	archived map[string][]domain.MarketBar
	upserted map[string]int
}

func (m *mockRepo) GetBarsInRange(_ context.Context, ticker, _ string, _, _ time.Time) ([]domain.MarketBar, error) {
	return m.archived[ticker], nil
}

func (m *mockRepo) UpsertBars(_ context.Context, ticker, _ string, bars []domain.MarketBar) error {
	if m.upserted == nil {
		m.upserted = map[string]int{}
	}
	m.upserted[ticker] += len(bars)
	return nil
}

type fakeRedis struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func sampleBars() []domain.MarketBar {
	return []domain.MarketBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 10.5, High: 12, Low: 10, Close: 11.5, Volume: 120},
	}
}

func newTestStore(t *testing.T, f *mockFetcher, repo BarRepository, rc RedisClient) *Store {
	t.Helper()
	s, err := NewStore(testTracer, zerolog.Nop(), f, f, repo, rc, DefaultOptions())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

var (
	rangeStart = time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
)

func TestGetBarsCachesInProcess(t *testing.T) {
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"AAPL": sampleBars()}}
	repo := &mockRepo{}
	s := newTestStore(t, f, repo, nil)

	first, err := s.GetBars(context.Background(), "AAPL", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := s.GetBars(context.Background(), "AAPL", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated calls must return the same bars")
	}
	if f.calls() != 1 {
		t.Fatalf("expected one upstream call, got %d", f.calls())
	}
	if repo.upserted["AAPL"] != 2 {
		t.Fatalf("expected bars archived, got %v", repo.upserted)
	}
}

func TestGetBarsUsesRedis(t *testing.T) {
	rc := newFakeRedis()
	data, _ := json.Marshal(sampleBars())
	rc.data["bars:1d:MSFT:20231201:20240131"] = data

	f := &mockFetcher{}
	s := newTestStore(t, f, nil, rc)

	bars, err := s.GetBars(context.Background(), "MSFT", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 || f.calls() != 0 {
		t.Fatalf("expected redis hit, got %d bars and %d calls", len(bars), f.calls())
	}
}

func TestGetBarsWritesRedis(t *testing.T) {
	rc := newFakeRedis()
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"AAPL": sampleBars()}}
	s := newTestStore(t, f, nil, rc)

	if _, err := s.GetBars(context.Background(), "AAPL", rangeStart, rangeEnd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := rc.data["bars:1d:AAPL:20231201:20240131"]; !ok {
		t.Fatal("bars not cached in redis")
	}
}

func TestGetBarsKoreanSuffixFallback(t *testing.T) {
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"035720.KQ": sampleBars()}}
	s := newTestStore(t, f, nil, nil)

	bars, err := s.GetBars(context.Background(), "035720", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected bars from .KQ listing, got %d", len(bars))
	}
	if want := []string{"035720", "035720.KS", "035720.KQ"}; !reflect.DeepEqual(f.requests, want) {
		t.Fatalf("expected %v, got %v", want, f.requests)
	}
}

func TestGetBarsNumericTickerAsGiven(t *testing.T) {
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"123456": sampleBars(), "123456.KS": sampleBars()[:1]}}
	s := newTestStore(t, f, nil, nil)

	bars, err := s.GetBars(context.Background(), "123456", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected bars under the bare symbol, got %d", len(bars))
	}
	if want := []string{"123456"}; !reflect.DeepEqual(f.requests, want) {
		t.Fatalf("expected %v, got %v", want, f.requests)
	}
}

func TestGetBarsNotFound(t *testing.T) {
	s := newTestStore(t, &mockFetcher{}, &mockRepo{}, nil)
	if _, err := s.GetBars(context.Background(), "ZZZZ", rangeStart, rangeEnd); !errors.Is(err, domain.ErrBarsNotFound) {
		t.Fatalf("expected ErrBarsNotFound, got %v", err)
	}
}

func TestGetBarsFallsBackToArchive(t *testing.T) {
	f := &mockFetcher{errs: map[string]error{"AAPL": errors.New("upstream 503")}}
	repo := &mockRepo{archived: map[string][]domain.MarketBar{"AAPL": sampleBars()}}
	s := newTestStore(t, f, repo, nil)

	bars, err := s.GetBars(context.Background(), "AAPL", rangeStart, rangeEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected archived bars, got %d", len(bars))
	}

	s = newTestStore(t, f, nil, nil)
	if _, err := s.GetBars(context.Background(), "AAPL", rangeStart, rangeEnd); err == nil || errors.Is(err, domain.ErrBarsNotFound) {
		t.Fatalf("expected provider error without archive, got %v", err)
	}
}

func TestGetIntradayBarsLookback(t *testing.T) {
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"AAPL": sampleBars()}}
	s := newTestStore(t, f, nil, nil)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.GetIntradayBars(context.Background(), "AAPL", now.AddDate(0, 0, -90), "5m"); !errors.Is(err, domain.ErrBarsNotFound) {
		t.Fatalf("expected ErrBarsNotFound outside lookback, got %v", err)
	}
	if f.calls() != 0 {
		t.Fatal("no request expected outside lookback")
	}

	bars, err := s.GetIntradayBars(context.Background(), "AAPL", now.AddDate(0, 0, -10), "5m")
	if err != nil || len(bars) != 2 {
		t.Fatalf("expected intraday bars, got %d, %v", len(bars), err)
	}
	if _, err := s.GetIntradayBars(context.Background(), "AAPL", now.AddDate(0, 0, -10), "5m"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls() != 1 {
		t.Fatalf("expected cached intraday bars, got %d calls", f.calls())
	}
}

func TestBenchmarkDelegates(t *testing.T) {
	f := &mockFetcher{bars: map[string][]domain.MarketBar{"SPY": sampleBars()}}
	b := NewBenchmark(newTestStore(t, f, nil, nil), "SPY")

	bars, err := b.GetBenchmarkBars(context.Background(), rangeStart, rangeEnd)
	if err != nil || len(bars) != 2 {
		t.Fatalf("expected benchmark bars, got %d, %v", len(bars), err)
	}
	if b.Symbol() != "SPY" {
		t.Fatalf("unexpected symbol %s", b.Symbol())
	}
}

func TestCandidateSymbols(t *testing.T) {
	tests := map[string][]string{
		"AAPL":   {"AAPL"},
		"005930": {"005930", "005930.KS", "005930.KQ"},
		"7203.T": {"7203.T"},
	}
	for in, want := range tests {
		if got := candidateSymbols(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: expected %v, got %v", in, want, got)
		}
	}
}
