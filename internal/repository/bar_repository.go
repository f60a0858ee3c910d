package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"trading-mirror/internal/domain"
)

const createMarketBarsTable = `
CREATE TABLE IF NOT EXISTS market_bars (
    ticker      TEXT        NOT NULL,
    interval    TEXT        NOT NULL,
    bar_time    TIMESTAMPTZ NOT NULL,
    open        DOUBLE PRECISION NOT NULL,
    high        DOUBLE PRECISION NOT NULL,
    low         DOUBLE PRECISION NOT NULL,
    close       DOUBLE PRECISION NOT NULL,
    volume      DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (ticker, interval, bar_time)
);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BarRepository archives fetched OHLCV bars so analyses can still run when
// the market data provider is down.
type BarRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBarRepository(pool PgxPool, tracer trace.Tracer) *BarRepository {
	return &BarRepository{pool: pool, tracer: tracer}
}

func (r *BarRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "bar-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createMarketBarsTable)
	return err
}

func (r *BarRepository) UpsertBars(ctx context.Context, ticker, interval string, bars []domain.MarketBar) error {
	if len(bars) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "bar-repo.upsert-bars")
	defer span.End()
	span.SetAttributes(attribute.String("ticker", ticker), attribute.Int("bars", len(bars)))

	batch := &pgx.Batch{}
	for _, b := range bars {
		batch.Queue(
			`INSERT INTO market_bars (ticker, interval, bar_time, open, high, low, close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (ticker, interval, bar_time) DO UPDATE SET
			     open = EXCLUDED.open,
			     high = EXCLUDED.high,
			     low = EXCLUDED.low,
			     close = EXCLUDED.close,
			     volume = EXCLUDED.volume`,
			ticker, interval, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range bars {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetBarsInRange returns archived bars oldest first.
func (r *BarRepository) GetBarsInRange(ctx context.Context, ticker, interval string, from, to time.Time) ([]domain.MarketBar, error) {
	_, span := r.tracer.Start(ctx, "bar-repo.get-bars-in-range")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT bar_time, open, high, low, close, volume
		 FROM market_bars
		 WHERE ticker = $1 AND interval = $2 AND bar_time >= $3 AND bar_time <= $4
		 ORDER BY bar_time ASC`,
		ticker, interval, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []domain.MarketBar
	for rows.Next() {
		var b domain.MarketBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		b.Date = b.Date.UTC()
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
