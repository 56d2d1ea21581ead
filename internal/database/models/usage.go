package models

import "github.com/uptrace/bun"

// AIUsageDaily is a running daily total of vision/generator token spend,
// upserted once per (date, model) pair by internal/usage.Tracker.
type AIUsageDaily struct {
	bun.BaseModel `bun:"table:ai_usage_daily,alias:au"`

	Date             string  `bun:",pk"`
	Model            string  `bun:",pk"`
	PromptTokens     int64   `bun:",notnull"`
	CompletionTokens int64   `bun:",notnull"`
	RequestCount     int64   `bun:",notnull"`
	CostUSD          float64 `bun:"type:numeric(10,4),notnull"`
}
