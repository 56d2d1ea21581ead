// Package descriptor implements ultra-detailed forensic image analysis:
// submitting portfolio images to a vision model, parsing and validating
// the structured response, scoring its confidence/completeness, and
// retrying low-quality attempts.
package descriptor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/database/types"
	"github.com/auracore/styleforge/internal/vision"
	"github.com/auracore/styleforge/pkg/utils"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	defaultConfidenceFloor   = 0.70
	defaultCompletenessFloor = 70.0
)

// ExtractionFailure is returned when the vision adapter call fails, or
// when its response cannot be parsed into a valid descriptor after one
// repair attempt or lists no garments.
type ExtractionFailure struct {
	ImageID uuid.UUID
	Reason  string
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("extraction failed for image %s: %s", e.ImageID, e.Reason)
}

// ProgressUpdate is reported after each image during portfolio analysis.
type ProgressUpdate struct {
	Current            int
	Total              int
	Percentage         float64
	Message            string
	AvgConfidenceSoFar float64
}

// PortfolioResult is analyze_portfolio's return value.
type PortfolioResult struct {
	Analyzed        int
	Failed          int
	AvgConfidence   float64
	AvgCompleteness float64
}

// repository is the narrow data-access surface Extractor depends on.
type repository interface {
	Portfolio(ctx context.Context, id uuid.UUID) (*models.Portfolio, error)
	PortfolioImages(ctx context.Context, portfolioID uuid.UUID) ([]*models.PortfolioImage, error)
	SaveDescriptor(ctx context.Context, d *models.UltraDetailedDescriptor) error
	UpdatePortfolioStatus(ctx context.Context, id uuid.UUID, status enum.ProcessingStatus) error
}

// Extractor produces UltraDetailedDescriptors from portfolio images.
type Extractor struct {
	adapter           vision.Adapter
	repo              repository
	logger            *zap.Logger
	qualityLogger     *zap.Logger
	concurrency       int64
	model             string
	confidenceFloor   float64
	completenessFloor float64
}

// Config configures an Extractor.
type Config struct {
	Concurrency       int64 // default 3, hard cap 10
	Model             string
	ConfidenceFloor   float64 // default 0.70
	CompletenessFloor float64 // default 70
}

// NewExtractor builds an Extractor.
func NewExtractor(adapter vision.Adapter, repo repository, logger, qualityLogger *zap.Logger, cfg Config) *Extractor {
	c := cfg.Concurrency
	if c <= 0 {
		c = 3
	}
	if c > 10 {
		c = 10
	}

	confidenceFloor := cfg.ConfidenceFloor
	if confidenceFloor <= 0 {
		confidenceFloor = defaultConfidenceFloor
	}

	completenessFloor := cfg.CompletenessFloor
	if completenessFloor <= 0 {
		completenessFloor = defaultCompletenessFloor
	}

	return &Extractor{
		adapter:           adapter,
		repo:              repo,
		logger:            logger.Named("descriptor_extractor"),
		qualityLogger:     qualityLogger,
		concurrency:       c,
		model:             cfg.Model,
		confidenceFloor:   confidenceFloor,
		completenessFloor: completenessFloor,
	}
}

// AnalyzeImage submits one image to the vision adapter, parses and
// validates the response, and applies the low-quality retry policy,
// keeping whichever attempt scores higher.
func (e *Extractor) AnalyzeImage(ctx context.Context, image *models.PortfolioImage) (*models.UltraDetailedDescriptor, error) {
	first, firstRaw, err := e.attempt(ctx, image.URL, buildSystemPrompt(), buildUserPrompt())
	if err != nil {
		return nil, &ExtractionFailure{ImageID: image.ID, Reason: err.Error()}
	}

	best := first
	bestScore := qualityScore(first)

	if first.OverallConfidence < e.confidenceFloor || first.CompletenessPercentage < e.completenessFloor {
		weaknesses := e.describeWeaknesses(first)

		retryPrompt := buildRetryPrompt(string(firstRaw), weaknesses)

		second, _, err := e.attempt(ctx, image.URL, buildSystemPrompt(), retryPrompt)
		if err == nil {
			secondScore := qualityScore(second)
			if secondScore > bestScore {
				best = second
				bestScore = secondScore
			}
		}

		e.logQuality(image.ID, best, "low_confidence_retry")
	}

	descriptor := &models.UltraDetailedDescriptor{
		ID:                     uuid.New(),
		ImageID:                image.ID,
		ExecutiveSummary:       best.tree.ExecutiveSummary,
		Garments:               best.tree.Garments,
		ModelDemographics:      best.tree.ModelDemographics,
		Photography:            best.tree.Photography,
		StylingContext:         best.tree.StylingContext,
		ContextualAttributes:   best.tree.ContextualAttributes,
		TechnicalFashionNotes:  normalizeNotes(best.tree.TechnicalFashionNotes),
		Metadata:               best.tree.Metadata,
		OverallConfidence:      utils.ClampConfidence(best.OverallConfidence),
		CompletenessPercentage: utils.ClampCompleteness(best.CompletenessPercentage),
	}

	return descriptor, nil
}

type scoredAttempt struct {
	tree                   types.Tree
	OverallConfidence      float64
	CompletenessPercentage float64
}

func qualityScore(a scoredAttempt) float64 {
	return a.OverallConfidence * a.CompletenessPercentage / 100
}

func (e *Extractor) attempt(ctx context.Context, imageURL, systemPrompt, userPrompt string) (scoredAttempt, []byte, error) {
	schema := utils.GenerateSchema[types.Tree]()

	start := time.Now()

	raw, err := e.adapter.Analyze(ctx, imageURL, systemPrompt, userPrompt, schema)
	if err != nil {
		return scoredAttempt{}, nil, fmt.Errorf("vision adapter call: %w", err)
	}

	tree, err := ParseTree(raw)
	if err != nil {
		return scoredAttempt{}, nil, fmt.Errorf("parse response: %w", err)
	}

	if len(tree.Garments) == 0 {
		return scoredAttempt{}, nil, fmt.Errorf("descriptor has no garments")
	}

	tree.Metadata.PromptVersion = promptVersion
	tree.Metadata.ElapsedMS = time.Since(start).Milliseconds()
	if e.model != "" {
		tree.Metadata.ModelID = e.model
	}

	return scoredAttempt{
		tree:                   tree,
		OverallConfidence:      OverallConfidence(tree),
		CompletenessPercentage: CompletenessPercentage(tree),
	}, raw, nil
}

func (e *Extractor) describeWeaknesses(a scoredAttempt) []string {
	var weaknesses []string

	if a.OverallConfidence < e.confidenceFloor {
		weaknesses = append(weaknesses, "low overall confidence")
	}
	if a.CompletenessPercentage < e.completenessFloor {
		weaknesses = append(weaknesses, "incomplete field coverage")
	}

	return weaknesses
}

func (e *Extractor) logQuality(imageID uuid.UUID, a scoredAttempt, reason string) {
	if e.qualityLogger == nil {
		return
	}

	e.qualityLogger.Info("low quality descriptor",
		zap.String("image_id", imageID.String()),
		zap.String("reason", reason),
		zap.Float64("overall_confidence", a.OverallConfidence),
		zap.Float64("completeness_percentage", a.CompletenessPercentage),
	)
}

// AnalyzePortfolio analyzes every image of a portfolio with bounded
// concurrency, reporting progress after each image. Per-image failures
// never abort the portfolio.
func (e *Extractor) AnalyzePortfolio(ctx context.Context, portfolioID uuid.UUID, progressSink func(ProgressUpdate)) (PortfolioResult, error) {
	portfolio, err := e.repo.Portfolio(ctx, portfolioID)
	if err != nil {
		return PortfolioResult{}, fmt.Errorf("load portfolio: %w", err)
	}

	images, err := e.repo.PortfolioImages(ctx, portfolioID)
	if err != nil {
		return PortfolioResult{}, fmt.Errorf("load portfolio images: %w", err)
	}

	if err := e.repo.UpdatePortfolioStatus(ctx, portfolioID, enum.ProcessingStatusAnalyzing); err != nil {
		return PortfolioResult{}, fmt.Errorf("mark portfolio analyzing: %w", err)
	}

	var (
		analyzed, failed int
		confidenceSum    float64
		completenessSum  float64
		mu               sync.Mutex
		allErrs          error
	)

	sem := semaphore.NewWeighted(e.concurrency)
	p := pool.New().WithContext(ctx)

	total := len(images)

	for _, image := range images {
		p.Go(func(ctx context.Context) error {
			if err := sem.Acquire(ctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			d, err := e.AnalyzeImage(ctx, image)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failed++
				allErrs = multierr.Append(allErrs, err)
				e.logQuality(image.ID, scoredAttempt{}, "image_failed")
			} else {
				d.UserID = portfolio.UserID
				if saveErr := e.repo.SaveDescriptor(ctx, d); saveErr != nil {
					failed++
					allErrs = multierr.Append(allErrs, saveErr)
				} else {
					analyzed++
					confidenceSum += d.OverallConfidence
					completenessSum += d.CompletenessPercentage
				}
			}

			current := analyzed + failed
			avgSoFar := 0.0
			if analyzed > 0 {
				avgSoFar = confidenceSum / float64(analyzed)
			}

			if progressSink != nil {
				progressSink(ProgressUpdate{
					Current:            current,
					Total:              total,
					Percentage:         percentage(current, total),
					Message:            fmt.Sprintf("analyzed image %d/%d", current, total),
					AvgConfidenceSoFar: avgSoFar,
				})
			}

			return nil
		})
	}

	_ = p.Wait()

	finalStatus := enum.ProcessingStatusReady
	if analyzed == 0 && failed > 0 {
		finalStatus = enum.ProcessingStatusFailed
	}

	if err := e.repo.UpdatePortfolioStatus(ctx, portfolioID, finalStatus); err != nil {
		return PortfolioResult{}, fmt.Errorf("mark portfolio status: %w", err)
	}

	result := PortfolioResult{Analyzed: analyzed, Failed: failed}
	if analyzed > 0 {
		result.AvgConfidence = confidenceSum / float64(analyzed)
		result.AvgCompleteness = completenessSum / float64(analyzed)
	}

	return result, allErrs
}

func percentage(current, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(current) / float64(total) * 100
}

// normalizeNotes tidies the model's free-text technical notes field by
// collapsing runs of three or more newlines to a single blank line before
// the descriptor is persisted; spaces within a line are left as they are.
func normalizeNotes(notes *string) *string {
	if notes == nil {
		return nil
	}

	normalized := utils.CompressWhitespacePreserveNewlines(*notes)

	return &normalized
}
