package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokensUsed maps a weight category to the tokens chosen for it in the
// generation a FeedbackEvent responds to — exactly the `chosen` map from
// the originating prompt's metadata.
type TokensUsed map[enum.WeightCategory][]string

// FeedbackEvent is one append-only user signal tied to a generated image.
type FeedbackEvent struct {
	bun.BaseModel `bun:"table:feedback_events,alias:fe"`

	ID           uuid.UUID         `bun:",pk,type:uuid"`
	UserID       string            `bun:",notnull"`
	ImageID      uuid.UUID         `bun:",notnull,type:uuid"`
	GenerationID uuid.UUID         `bun:",notnull,type:uuid"`
	Type         enum.FeedbackType `bun:",notnull"`
	TokensUsed   TokensUsed        `bun:"type:jsonb,notnull"`
	Reward       float64           `bun:"type:numeric(3,2),notnull"`
	TimeViewedMS *int64            `bun:""`
	CreatedAt    time.Time         `bun:",notnull,nullzero,default:current_timestamp"`
}
