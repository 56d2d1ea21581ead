package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AestheticTheme is one recurring aesthetic descriptor across a user's
// portfolio.
type AestheticTheme struct {
	Name           string  `json:"name"`
	Count          int     `json:"count"`
	Strength       float64 `json:"strength"`
	FrequencyLabel string  `json:"frequency_label"`
}

// ConstructionPattern is one recurring construction term.
type ConstructionPattern struct {
	Name           string `json:"name"`
	Count          int    `json:"count"`
	FrequencyLabel string `json:"frequency_label"`
}

// SignaturePiece is a high-confidence representative garment.
type SignaturePiece struct {
	Type       string  `json:"type"`
	Fabric     string  `json:"fabric"`
	Silhouette string  `json:"silhouette"`
	Confidence float64 `json:"confidence"`
}

// ModelGenderPreference is the portfolio-derived gender setting the
// model-gender arbiter reads.
type ModelGenderPreference struct {
	Setting        enum.ModelGenderSetting  `json:"setting"`
	DetectedGender *enum.GenderPresentation `json:"detected_gender"`
	Confidence     float64                  `json:"confidence"`
	ManualOverride bool                     `json:"manual_override"`
	UpdatedAt      time.Time                `json:"updated_at"`
}

// Distributions maps a distribution category to a value->frequency map,
// each distribution summing to 1 after normalization.
type Distributions map[enum.DistributionCategory]map[string]float64

// StyleProfile is the one-per-user derived state synthesized from every
// descriptor in a user's portfolios. It can be fully rebuilt from
// descriptors and is replaced, not appended to, on every synthesis.
type StyleProfile struct {
	bun.BaseModel `bun:"table:style_profiles,alias:sp"`

	ID                    uuid.UUID             `bun:",pk,type:uuid"`
	UserID                string                `bun:",unique,notnull"`
	PortfolioID           uuid.UUID             `bun:",notnull,type:uuid"`
	Distributions         Distributions         `bun:"type:jsonb,notnull"`
	AestheticThemes       []AestheticTheme      `bun:"type:jsonb,notnull"`
	ConstructionPatterns  []ConstructionPattern `bun:"type:jsonb,notnull"`
	SignaturePieces       []SignaturePiece      `bun:"type:jsonb,notnull"`
	StyleTags             []string              `bun:"type:jsonb,notnull"`
	GarmentTypes          []string              `bun:"type:jsonb,notnull"`
	StyleDescription      string                `bun:",notnull"`
	AvgConfidence         float64               `bun:"type:numeric(4,3),notnull"`
	AvgCompleteness       float64               `bun:"type:numeric(5,2),notnull"`
	ModelGenderPreference ModelGenderPreference `bun:"type:jsonb,notnull"`
	UpdatedAt             time.Time             `bun:",notnull,nullzero,default:current_timestamp"`
}
