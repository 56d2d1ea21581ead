package models

import (
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Portfolio is a uniquely identified image collection owned by one user.
type Portfolio struct {
	bun.BaseModel `bun:"table:portfolios,alias:p"`

	ID         uuid.UUID             `bun:",pk,type:uuid"`
	UserID     string                `bun:",notnull"`
	Title      string                `bun:",notnull"`
	Status     enum.ProcessingStatus `bun:",notnull"`
	ImageCount int                   `bun:",notnull"`
	CreatedAt  time.Time             `bun:",notnull,nullzero,default:current_timestamp"`
}

// PortfolioImage is one source image within a Portfolio. ContentHash
// dedupes within a portfolio: (portfolio_id, content_hash) is unique.
type PortfolioImage struct {
	bun.BaseModel `bun:"table:portfolio_images,alias:pi"`

	ID          uuid.UUID `bun:",pk,type:uuid"`
	PortfolioID uuid.UUID `bun:",notnull,type:uuid"`
	ContentHash string    `bun:",notnull"`
	URL         string    `bun:",notnull"`
	Width       int       `bun:""`
	Height      int       `bun:""`
	UploadedAt  time.Time `bun:",notnull,nullzero,default:current_timestamp"`
}
