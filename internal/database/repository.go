package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/auracore/styleforge/internal/database/dbretry"
	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository is the single data-access surface the descriptor, profile,
// weight, and usage packages depend on. Tests construct one against a
// bun.DB backed by a test container or skip persistence entirely via
// their own fakes.
type Repository struct {
	db *bun.DB
}

// NewRepository wraps an open bun connection.
func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreatePortfolio inserts a new portfolio in the pending state.
func (r *Repository) CreatePortfolio(ctx context.Context, userID, title string) (*models.Portfolio, error) {
	p := &models.Portfolio{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
		Status: enum.ProcessingStatusPending,
	}

	if _, err := r.db.NewInsert().Model(p).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert portfolio: %w", err)
	}

	return p, nil
}

// SetPortfolioImageCount records how many accepted images a portfolio
// holds after upload deduplication.
func (r *Repository) SetPortfolioImageCount(ctx context.Context, portfolioID uuid.UUID, count int) error {
	_, err := r.db.NewUpdate().Model((*models.Portfolio)(nil)).
		Set("image_count = ?", count).
		Where("id = ?", portfolioID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update portfolio image count: %w", err)
	}

	return nil
}

// Portfolio loads one portfolio by id.
func (r *Repository) Portfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error) {
	p := new(models.Portfolio)

	if err := r.db.NewSelect().Model(p).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, fmt.Errorf("select portfolio: %w", err)
	}

	return p, nil
}

// UpdatePortfolioStatus transitions a portfolio's processing status.
func (r *Repository) UpdatePortfolioStatus(ctx context.Context, id uuid.UUID, status enum.ProcessingStatus) error {
	_, err := r.db.NewUpdate().Model((*models.Portfolio)(nil)).
		Set("status = ?", status).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update portfolio status: %w", err)
	}

	return nil
}

// AddPortfolioImage inserts one image, deduplicating on
// (portfolio_id, content_hash): a re-upload of the same image keeps the
// existing row, overwrites only its url, and returns that row.
func (r *Repository) AddPortfolioImage(ctx context.Context, portfolioID uuid.UUID, contentHash, url string, width, height int) (*models.PortfolioImage, error) {
	img := &models.PortfolioImage{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		ContentHash: contentHash,
		URL:         url,
		Width:       width,
		Height:      height,
	}

	_, err := r.db.NewInsert().Model(img).
		On("CONFLICT (portfolio_id, content_hash) DO UPDATE").
		Set("url = EXCLUDED.url").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert portfolio image: %w", err)
	}

	return img, nil
}

// PortfolioImages returns every image belonging to a portfolio.
func (r *Repository) PortfolioImages(ctx context.Context, portfolioID uuid.UUID) ([]*models.PortfolioImage, error) {
	var images []*models.PortfolioImage

	err := r.db.NewSelect().Model(&images).Where("portfolio_id = ?", portfolioID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select portfolio images: %w", err)
	}

	return images, nil
}

// SaveDescriptor upserts the descriptor for an image, replacing any prior
// attempt (the retry path writes the better of two attempts under the
// same image_id).
func (r *Repository) SaveDescriptor(ctx context.Context, d *models.UltraDetailedDescriptor) error {
	_, err := r.db.NewInsert().Model(d).
		On("CONFLICT (image_id) DO UPDATE").
		Set("executive_summary = EXCLUDED.executive_summary").
		Set("garments = EXCLUDED.garments").
		Set("model_demographics = EXCLUDED.model_demographics").
		Set("photography = EXCLUDED.photography").
		Set("styling_context = EXCLUDED.styling_context").
		Set("contextual_attributes = EXCLUDED.contextual_attributes").
		Set("technical_fashion_notes = EXCLUDED.technical_fashion_notes").
		Set("metadata = EXCLUDED.metadata").
		Set("overall_confidence = EXCLUDED.overall_confidence").
		Set("completeness_percentage = EXCLUDED.completeness_percentage").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert descriptor: %w", err)
	}

	return nil
}

// DescriptorsForPortfolio loads every descriptor belonging to a
// portfolio's images, the Profile Synthesizer's sole read path.
func (r *Repository) DescriptorsForPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*models.UltraDetailedDescriptor, error) {
	var descriptors []*models.UltraDetailedDescriptor

	err := r.db.NewSelect().Model(&descriptors).
		Where("image_id IN (SELECT id FROM portfolio_images WHERE portfolio_id = ?)", portfolioID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select descriptors for portfolio: %w", err)
	}

	return descriptors, nil
}

// SaveStyleProfile upserts a user's profile under ON CONFLICT(user_id):
// re-synthesis replaces the row by key instead of appending.
func (r *Repository) SaveStyleProfile(ctx context.Context, p *models.StyleProfile) error {
	return dbretry.Transaction(ctx, r.db, 3, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(p).
			On("CONFLICT (user_id) DO UPDATE").
			Set("portfolio_id = EXCLUDED.portfolio_id").
			Set("distributions = EXCLUDED.distributions").
			Set("aesthetic_themes = EXCLUDED.aesthetic_themes").
			Set("construction_patterns = EXCLUDED.construction_patterns").
			Set("signature_pieces = EXCLUDED.signature_pieces").
			Set("style_tags = EXCLUDED.style_tags").
			Set("garment_types = EXCLUDED.garment_types").
			Set("style_description = EXCLUDED.style_description").
			Set("avg_confidence = EXCLUDED.avg_confidence").
			Set("avg_completeness = EXCLUDED.avg_completeness").
			// model_gender_preference.setting is preserved when the existing
			// row has manual_override=true; the caller (profile synthesizer)
			// is responsible for carrying the prior setting forward onto p
			// before calling SaveStyleProfile, so this upsert always writes
			// the full column.
			Set("model_gender_preference = EXCLUDED.model_gender_preference").
			Set("updated_at = now()").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("upsert style profile: %w", err)
		}

		return nil
	})
}

// StyleProfileByUser loads a user's profile, or (nil, nil) if none
// exists yet.
func (r *Repository) StyleProfileByUser(ctx context.Context, userID string) (*models.StyleProfile, error) {
	profile := new(models.StyleProfile)

	err := r.db.NewSelect().Model(profile).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select style profile: %w", err)
	}

	return profile, nil
}

// TokenWeight loads one weight row, or a fresh default if absent.
func (r *Repository) TokenWeight(ctx context.Context, userID string, category enum.WeightCategory, token string) (*models.TokenWeight, error) {
	weight := new(models.TokenWeight)

	err := r.db.NewSelect().Model(weight).
		Where("user_id = ? AND category = ? AND token = ?", userID, category, token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultTokenWeight(userID, category, token), nil
		}
		return nil, fmt.Errorf("select token weight: %w", err)
	}

	return weight, nil
}

// TokenWeightsForCategory loads every weight row for a user, optionally
// filtered to one category.
func (r *Repository) TokenWeightsForCategory(ctx context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error) {
	var weights []*models.TokenWeight

	q := r.db.NewSelect().Model(&weights).Where("user_id = ?", userID)
	if category != nil {
		q = q.Where("category = ?", *category)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("select token weights: %w", err)
	}

	return weights, nil
}

// UpsertTokenWeight writes a weight row. Concurrent updates to the same
// (user, category, token) tuple serialize through ON CONFLICT's row-level
// lock.
func (r *Repository) UpsertTokenWeight(ctx context.Context, w *models.TokenWeight) error {
	_, err := r.db.NewInsert().Model(w).
		On("CONFLICT (user_id, category, token) DO UPDATE").
		Set("weight = EXCLUDED.weight").
		Set("usage_count = EXCLUDED.usage_count").
		Set("positive_feedback = EXCLUDED.positive_feedback").
		Set("negative_feedback = EXCLUDED.negative_feedback").
		Set("updated_at = now()").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert token weight: %w", err)
	}

	return nil
}

// RecentFeedbackEvent looks up the latest feedback event recorded for the
// same (user, image, type) within the dedupe window; the caller compares
// tokens_used to decide whether the submission is a duplicate.
func (r *Repository) RecentFeedbackEvent(ctx context.Context, userID string, imageID uuid.UUID, feedbackType enum.FeedbackType, within time.Duration) (*models.FeedbackEvent, error) {
	event := new(models.FeedbackEvent)

	err := r.db.NewSelect().Model(event).
		Where("user_id = ? AND image_id = ? AND type = ? AND created_at > ?",
			userID, imageID, feedbackType, time.Now().Add(-within)).
		Order("created_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select recent feedback event: %w", err)
	}

	return event, nil
}

// SaveFeedbackEvent appends one feedback event to the log.
func (r *Repository) SaveFeedbackEvent(ctx context.Context, e *models.FeedbackEvent) error {
	if _, err := r.db.NewInsert().Model(e).Exec(ctx); err != nil {
		return fmt.Errorf("insert feedback event: %w", err)
	}

	return nil
}

// CreateGeneration inserts a new generation in the pending state.
func (r *Repository) CreateGeneration(ctx context.Context, g *models.Generation) error {
	if _, err := r.db.NewInsert().Model(g).Exec(ctx); err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}

	return nil
}

// CompleteGeneration marks a generation completed and records its assets
// and cost inside one transaction.
func (r *Repository) CompleteGeneration(ctx context.Context, generationID uuid.UUID, cost float64, assets []*models.GenerationAsset) error {
	return dbretry.Transaction(ctx, r.db, 3, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		_, err := tx.NewUpdate().Model((*models.Generation)(nil)).
			Set("status = ?", enum.GenerationStatusCompleted).
			Set("cost = ?", cost).
			Set("completed_at = ?", now).
			Where("id = ?", generationID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update generation status: %w", err)
		}

		if len(assets) > 0 {
			if _, err := tx.NewInsert().Model(&assets).Exec(ctx); err != nil {
				return fmt.Errorf("insert generation assets: %w", err)
			}
		}

		return nil
	})
}
