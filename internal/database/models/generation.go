package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Generation is one prompt-to-image request submitted to a generator
// adapter. It owns 0..N GenerationAssets.
type Generation struct {
	bun.BaseModel `bun:"table:generations,alias:g"`

	ID             uuid.UUID             `bun:",pk,type:uuid"`
	UserID         string                `bun:",notnull"`
	PromptText     string                `bun:",notnull"`
	NegativePrompt string                `bun:",notnull"`
	Metadata       map[string]any        `bun:"type:jsonb,notnull"`
	ProviderID     string                `bun:""`
	Status         enum.GenerationStatus `bun:",notnull"`
	Cost           float64               `bun:"type:numeric(10,4),notnull"`
	CreatedAt      time.Time             `bun:",notnull,nullzero,default:current_timestamp"`
	CompletedAt    *time.Time            `bun:""`
}

// GenerationAsset is one produced image belonging to a Generation.
type GenerationAsset struct {
	bun.BaseModel `bun:"table:generation_assets,alias:ga"`

	ID           uuid.UUID `bun:",pk,type:uuid"`
	GenerationID uuid.UUID `bun:",notnull,type:uuid"`
	URL          string    `bun:",notnull"`
	PromptIndex  int       `bun:",notnull"`
	ProviderID   string    `bun:""`
	FileSize     int64     `bun:""`
	CreatedAt    time.Time `bun:",notnull,nullzero,default:current_timestamp"`
}
