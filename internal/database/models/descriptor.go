package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/types"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UltraDetailedDescriptor is the forensic analysis of one image, owned
// 1:1 by a PortfolioImage. Quality columns are sized wider than their
// clamped semantic bound: overall_confidence in [0,1] maps onto
// numeric(4,3) (range [0,9.999]), so that a pre-clamp overflow from an
// upstream bug is coerced rather than truncated by the database.
type UltraDetailedDescriptor struct {
	bun.BaseModel `bun:"table:ultra_detailed_descriptors,alias:d"`

	ID                     uuid.UUID                  `bun:",pk,type:uuid"`
	ImageID                uuid.UUID                  `bun:",unique,notnull,type:uuid"`
	UserID                 string                     `bun:",notnull"`
	ExecutiveSummary       types.ExecutiveSummary     `bun:"type:jsonb,notnull"`
	Garments               []types.Garment            `bun:"type:jsonb,notnull"`
	ModelDemographics      types.ModelDemographics    `bun:"type:jsonb,notnull"`
	Photography            types.Photography          `bun:"type:jsonb,notnull"`
	StylingContext         types.StylingContext       `bun:"type:jsonb,notnull"`
	ContextualAttributes   types.ContextualAttributes `bun:"type:jsonb,notnull"`
	TechnicalFashionNotes  *string                    `bun:""`
	Metadata               types.Metadata             `bun:"type:jsonb,notnull"`
	OverallConfidence      float64                    `bun:"type:numeric(4,3),notnull"`
	CompletenessPercentage float64                    `bun:"type:numeric(5,2),notnull"`
	CreatedAt              time.Time                  `bun:",notnull,nullzero,default:current_timestamp"`
}

// ToTree reassembles the persisted row into the types.Tree the rest of
// the pipeline operates on.
func (d *UltraDetailedDescriptor) ToTree() types.Tree {
	return types.Tree{
		ExecutiveSummary:      d.ExecutiveSummary,
		Garments:              d.Garments,
		ModelDemographics:     d.ModelDemographics,
		Photography:           d.Photography,
		StylingContext:        d.StylingContext,
		ContextualAttributes:  d.ContextualAttributes,
		TechnicalFashionNotes: d.TechnicalFashionNotes,
		Metadata:              d.Metadata,
	}
}
