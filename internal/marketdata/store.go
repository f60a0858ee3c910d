package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"trading-mirror/internal/domain"
)

const dailyInterval = "1d"

// krxSuffixes are tried in order for all-digit tickers.
var krxSuffixes = []string{".KS", ".KQ"}

type DailyFetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.MarketBar, error)
}

type IntradayFetcher interface {
	FetchIntraday(ctx context.Context, symbol string, day time.Time, interval string) ([]domain.MarketBar, error)
}

// BarRepository is the Postgres archive of fetched bars, used when the
// provider is unreachable.
type BarRepository interface {
	GetBarsInRange(ctx context.Context, ticker, interval string, from, to time.Time) ([]domain.MarketBar, error)
	UpsertBars(ctx context.Context, ticker, interval string, bars []domain.MarketBar) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type Options struct {
	DailyCacheSize    int
	IntradayCacheSize int
	RedisTTL          time.Duration
	IntradayLookback  time.Duration
}

func DefaultOptions() Options {
	return Options{
		DailyCacheSize:    2000,
		IntradayCacheSize: 500,
		RedisTTL:          12 * time.Hour,
		IntradayLookback:  60 * 24 * time.Hour,
	}
}

// Store serves daily and intraday bars through an in-process LRU, an
// optional Redis layer, the upstream provider and finally the Postgres
// archive. Repeated calls with the same arguments return the same bars for
// as long as the entry stays cached.
type Store struct {
	tracer   trace.Tracer
	logger   zerolog.Logger
	daily    DailyFetcher
	intraday IntradayFetcher
	repo     BarRepository
	redis    RedisClient
	opts     Options

	dailyLRU    *lru.Cache[string, []domain.MarketBar]
	intradayLRU *lru.Cache[string, []domain.MarketBar]
	group       singleflight.Group
	now         func() time.Time
}

// NewStore wires the layers. repo, redisClient and intraday may be nil.
func NewStore(
	tracer trace.Tracer,
	logger zerolog.Logger,
	daily DailyFetcher,
	intraday IntradayFetcher,
	repo BarRepository,
	redisClient RedisClient,
	opts Options,
) (*Store, error) {
	def := DefaultOptions()
	if opts.DailyCacheSize <= 0 {
		opts.DailyCacheSize = def.DailyCacheSize
	}
	if opts.IntradayCacheSize <= 0 {
		opts.IntradayCacheSize = def.IntradayCacheSize
	}
	if opts.IntradayLookback <= 0 {
		opts.IntradayLookback = def.IntradayLookback
	}

	dailyLRU, err := lru.New[string, []domain.MarketBar](opts.DailyCacheSize)
	if err != nil {
		return nil, fmt.Errorf("daily bar cache: %w", err)
	}
	intradayLRU, err := lru.New[string, []domain.MarketBar](opts.IntradayCacheSize)
	if err != nil {
		return nil, fmt.Errorf("intraday bar cache: %w", err)
	}
	return &Store{
		tracer:      tracer,
		logger:      logger,
		daily:       daily,
		intraday:    intraday,
		repo:        repo,
		redis:       redisClient,
		opts:        opts,
		dailyLRU:    dailyLRU,
		intradayLRU: intradayLRU,
		now:         time.Now,
	}, nil
}

// GetBars returns daily bars for ticker in [start, end]. A ticker with no
// data yields domain.ErrBarsNotFound.
func (s *Store) GetBars(ctx context.Context, ticker string, start, end time.Time) ([]domain.MarketBar, error) {
	ctx, span := s.tracer.Start(ctx, "marketdata.get-bars")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker))

	key := fmt.Sprintf("bars:%s:%s:%s:%s", dailyInterval, ticker, start.Format("20060102"), end.Format("20060102"))
	if bars, ok := s.dailyLRU.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return bars, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if bars, ok := s.getCached(ctx, key); ok {
			return bars, nil
		}
		bars, err := s.fetchDaily(ctx, ticker, start, end)
		if err != nil {
			return nil, err
		}
		s.setCached(ctx, key, bars)
		if s.repo != nil {
			if err := s.repo.UpsertBars(ctx, ticker, dailyInterval, bars); err != nil {
				s.logger.Warn().Err(err).Str("ticker", ticker).Msg("archive daily bars failed")
			}
		}
		return bars, nil
	})
	if err != nil {
		return nil, err
	}
	bars := v.([]domain.MarketBar)
	s.dailyLRU.Add(key, bars)
	return bars, nil
}

func (s *Store) fetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]domain.MarketBar, error) {
	var lastErr error
	for _, symbol := range candidateSymbols(ticker) {
		bars, err := s.daily.FetchDaily(ctx, symbol, start, end)
		if err == nil && len(bars) > 0 {
			return bars, nil
		}
		if err == nil || errors.Is(err, domain.ErrBarsNotFound) {
			continue
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, domain.ErrBarsNotFound
	}

	if s.repo != nil {
		archived, err := s.repo.GetBarsInRange(ctx, ticker, dailyInterval, start, end)
		if err == nil && len(archived) > 0 {
			s.logger.Info().Str("ticker", ticker).Int("bars", len(archived)).Msg("serving archived daily bars")
			return archived, nil
		}
	}
	return nil, lastErr
}

// GetIntradayBars returns the bars of one calendar day. Days outside the
// provider's lookback window yield domain.ErrBarsNotFound without a request.
func (s *Store) GetIntradayBars(ctx context.Context, ticker string, date time.Time, interval string) ([]domain.MarketBar, error) {
	ctx, span := s.tracer.Start(ctx, "marketdata.get-intraday-bars")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker), attribute.String("interval", interval))

	if s.intraday == nil || s.now().Sub(date) > s.opts.IntradayLookback {
		return nil, domain.ErrBarsNotFound
	}

	key := fmt.Sprintf("bars:%s:%s:%s", interval, ticker, date.Format("20060102"))
	if bars, ok := s.intradayLRU.Get(key); ok {
		return bars, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if bars, ok := s.getCached(ctx, key); ok {
			return bars, nil
		}
		var lastErr error
		for _, symbol := range candidateSymbols(ticker) {
			bars, err := s.intraday.FetchIntraday(ctx, symbol, date, interval)
			if err == nil && len(bars) > 0 {
				s.setCached(ctx, key, bars)
				return bars, nil
			}
			if err != nil && !errors.Is(err, domain.ErrBarsNotFound) {
				lastErr = err
			}
		}
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, domain.ErrBarsNotFound
	})
	if err != nil {
		return nil, err
	}
	bars := v.([]domain.MarketBar)
	s.intradayLRU.Add(key, bars)
	return bars, nil
}

func (s *Store) getCached(ctx context.Context, key string) ([]domain.MarketBar, bool) {
	if s.redis == nil {
		return nil, false
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Debug().Err(err).Str("key", key).Msg("redis read failed")
		}
		return nil, false
	}
	var bars []domain.MarketBar
	if err := json.Unmarshal(data, &bars); err != nil || len(bars) == 0 {
		return nil, false
	}
	return bars, true
}

func (s *Store) setCached(ctx context.Context, key string, bars []domain.MarketBar) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(bars)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.opts.RedisTTL).Err(); err != nil {
		s.logger.Debug().Err(err).Str("key", key).Msg("redis write failed")
	}
}

// candidateSymbols tries a numeric ticker as given, then with each Korean
// listing suffix. Other tickers are used as given.
func candidateSymbols(ticker string) []string {
	if ticker == "" {
		return []string{ticker}
	}
	for _, r := range ticker {
		if !unicode.IsDigit(r) {
			return []string{ticker}
		}
	}
	out := make([]string, 0, len(krxSuffixes)+1)
	out = append(out, ticker)
	for _, suffix := range krxSuffixes {
		out = append(out, ticker+suffix)
	}
	return out
}

// Benchmark serves bars of a fixed index symbol through a Store.
type Benchmark struct {
	store  *Store
	symbol string
}

func NewBenchmark(store *Store, symbol string) *Benchmark {
	return &Benchmark{store: store, symbol: symbol}
}

func (b *Benchmark) Symbol() string { return b.symbol }

func (b *Benchmark) GetBenchmarkBars(ctx context.Context, start, end time.Time) ([]domain.MarketBar, error) {
	return b.store.GetBars(ctx, b.symbol, start, end)
}
