package repository

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

var ErrTagNotFound = errors.New("strategy tag not found")

const createStrategyTagsTable = `
CREATE TABLE IF NOT EXISTS strategy_tags (
    trade_id    TEXT        PRIMARY KEY,
    tag         TEXT        NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// StrategyTagRepository stores the user's strategy label per trade id.
type StrategyTagRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewStrategyTagRepository(pool PgxPool, tracer trace.Tracer) *StrategyTagRepository {
	return &StrategyTagRepository{pool: pool, tracer: tracer}
}

func (r *StrategyTagRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "strategy-tag-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createStrategyTagsTable)
	return err
}

// SetTag upserts the tag. An empty tag removes it.
func (r *StrategyTagRepository) SetTag(ctx context.Context, tradeID, tag string) error {
	_, span := r.tracer.Start(ctx, "strategy-tag-repo.set-tag")
	defer span.End()

	tag = strings.TrimSpace(tag)
	if tag == "" {
		_, err := r.pool.Exec(ctx, `DELETE FROM strategy_tags WHERE trade_id = $1`, tradeID)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO strategy_tags (trade_id, tag) VALUES ($1, $2)
		 ON CONFLICT (trade_id) DO UPDATE SET tag = EXCLUDED.tag, updated_at = NOW()`,
		tradeID, tag,
	)
	return err
}

func (r *StrategyTagRepository) GetTag(ctx context.Context, tradeID string) (string, error) {
	tags, err := r.GetTags(ctx, []string{tradeID})
	if err != nil {
		return "", err
	}
	tag, ok := tags[tradeID]
	if !ok {
		return "", ErrTagNotFound
	}
	return tag, nil
}

// GetTags returns the tags that exist for tradeIDs. Missing ids are absent
// from the map.
func (r *StrategyTagRepository) GetTags(ctx context.Context, tradeIDs []string) (map[string]string, error) {
	_, span := r.tracer.Start(ctx, "strategy-tag-repo.get-tags")
	defer span.End()

	tags := make(map[string]string, len(tradeIDs))
	if len(tradeIDs) == 0 {
		return tags, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT trade_id, tag FROM strategy_tags WHERE trade_id = ANY($1)`,
		tradeIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, err
		}
		tags[id] = tag
	}
	return tags, rows.Err()
}
