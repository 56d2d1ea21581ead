package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/uptrace/bun"
)

// TokenWeight is the per-(user, category, token) learned scalar the
// weight store updates from feedback and the prompt builder samples from.
type TokenWeight struct {
	bun.BaseModel `bun:"table:token_weights,alias:tw"`

	UserID           string              `bun:",pk"`
	Category         enum.WeightCategory `bun:",pk"`
	Token            string              `bun:",pk"`
	Weight           float64             `bun:"type:numeric(3,2),notnull"`
	UsageCount       int64               `bun:",notnull"`
	PositiveFeedback int64               `bun:",notnull"`
	NegativeFeedback int64               `bun:",notnull"`
	UpdatedAt        time.Time           `bun:",notnull,nullzero,default:current_timestamp"`
}

// Alpha is the Beta-distribution success parameter the prompt builder's
// Thompson sampling reads: 1 + positive feedback.
func (t *TokenWeight) Alpha() float64 {
	return 1 + float64(t.PositiveFeedback)
}

// Beta is the Beta-distribution failure parameter: 1 + negative feedback.
func (t *TokenWeight) Beta() float64 {
	return 1 + float64(t.NegativeFeedback)
}

// DefaultTokenWeight returns a freshly-initialized weight row for a
// (user, category, token) triple not yet referenced.
func DefaultTokenWeight(userID string, category enum.WeightCategory, token string) *TokenWeight {
	return &TokenWeight{
		UserID:   userID,
		Category: category,
		Token:    token,
		Weight:   1.0,
	}
}
