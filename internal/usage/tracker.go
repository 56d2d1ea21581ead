// Package usage accounts for vision/generator token spend, upserting one
// running-total row per (day, model) to the Postgres database via bun.
package usage

import (
	"context"
	"fmt"

	"github.com/auracore/styleforge/internal/database/models"
	"github.com/uptrace/bun"
)

// Tracker records per-day, per-model token usage and cost.
type Tracker interface {
	RecordUsage(ctx context.Context, date, model string, promptTokens, completionTokens int64, costUSD float64) error
}

// PostgresTracker is a Tracker backed by the ai_usage_daily table.
type PostgresTracker struct {
	db *bun.DB
}

// NewPostgresTracker wraps an open bun connection.
func NewPostgresTracker(db *bun.DB) *PostgresTracker {
	return &PostgresTracker{db: db}
}

// RecordUsage upserts the day's running totals for model, adding this
// call's tokens and cost to any already recorded.
func (t *PostgresTracker) RecordUsage(ctx context.Context, date, model string, promptTokens, completionTokens int64, costUSD float64) error {
	row := &models.AIUsageDaily{
		Date:             date,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		RequestCount:     1,
		CostUSD:          costUSD,
	}

	_, err := t.db.NewInsert().Model(row).
		On("CONFLICT (date, model) DO UPDATE").
		Set("prompt_tokens = ai_usage_daily.prompt_tokens + EXCLUDED.prompt_tokens").
		Set("completion_tokens = ai_usage_daily.completion_tokens + EXCLUDED.completion_tokens").
		Set("request_count = ai_usage_daily.request_count + EXCLUDED.request_count").
		Set("cost_usd = ai_usage_daily.cost_usd + EXCLUDED.cost_usd").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert ai usage: %w", err)
	}

	return nil
}
