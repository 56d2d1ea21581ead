// Package orchestrator wires the descriptor extractor, profile
// synthesizer, prompt builder, weight store and generator adapter into
// one user-facing surface: portfolio analysis, prompt generation, image
// generation, and feedback submission, each with its own
// error-propagation policy.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/descriptor"
	"github.com/auracore/styleforge/internal/generator"
	"github.com/auracore/styleforge/internal/profile"
	"github.com/auracore/styleforge/internal/prompt"
	"github.com/auracore/styleforge/internal/usage"
	"github.com/auracore/styleforge/internal/weights"
	"github.com/auracore/styleforge/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// repository is the narrow data-access surface the orchestrator itself
// needs, beyond what it delegates to the extractor/synthesizer/builder.
type repository interface {
	CreatePortfolio(ctx context.Context, userID, title string) (*models.Portfolio, error)
	AddPortfolioImage(ctx context.Context, portfolioID uuid.UUID, contentHash, url string, width, height int) (*models.PortfolioImage, error)
	SetPortfolioImageCount(ctx context.Context, portfolioID uuid.UUID, count int) error
	CreateGeneration(ctx context.Context, g *models.Generation) error
	CompleteGeneration(ctx context.Context, generationID uuid.UUID, cost float64, assets []*models.GenerationAsset) error
}

// Orchestrator is the pipeline's single entry point.
type Orchestrator struct {
	repo             repository
	extractor        *descriptor.Extractor
	synthesizer      *profile.Synthesizer
	builder          *prompt.Builder
	weights          *weights.Store
	generatorAdapter generator.Adapter
	usage            usage.Tracker
	logger           *zap.Logger
}

// New builds an Orchestrator from its already-constructed collaborators.
func New(
	repo repository,
	extractor *descriptor.Extractor,
	synthesizer *profile.Synthesizer,
	builder *prompt.Builder,
	weightStore *weights.Store,
	generatorAdapter generator.Adapter,
	usageTracker usage.Tracker,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		repo:             repo,
		extractor:        extractor,
		synthesizer:      synthesizer,
		builder:          builder,
		weights:          weightStore,
		generatorAdapter: generatorAdapter,
		usage:            usageTracker,
		logger:           logger.Named("orchestrator"),
	}
}

// IngestPortfolio creates a portfolio, registers its images, runs
// descriptor extraction over it reporting progress via progressSink, and
// finishes by synthesizing the user's style profile from whatever
// descriptors were extracted. Per-image extraction failures are contained
// by the extractor; this call only fails on portfolio-level errors
// (create/status/profile writes).
func (o *Orchestrator) IngestPortfolio(
	ctx context.Context,
	userID, title string,
	images []ImageUpload,
	progressSink func(descriptor.ProgressUpdate),
) (descriptor.PortfolioResult, error) {
	portfolio, err := o.repo.CreatePortfolio(ctx, userID, title)
	if err != nil {
		return descriptor.PortfolioResult{}, fmt.Errorf("create portfolio: %w", err)
	}

	accepted := make(map[string]struct{}, len(images))
	for _, img := range images {
		if _, err := o.repo.AddPortfolioImage(ctx, portfolio.ID, img.ContentHash, img.URL, img.Width, img.Height); err != nil {
			return descriptor.PortfolioResult{}, fmt.Errorf("add portfolio image %s: %w", img.URL, err)
		}
		accepted[img.ContentHash] = struct{}{}
	}

	if err := o.repo.SetPortfolioImageCount(ctx, portfolio.ID, len(accepted)); err != nil {
		return descriptor.PortfolioResult{}, fmt.Errorf("record portfolio image count: %w", err)
	}

	result, err := o.extractor.AnalyzePortfolio(ctx, portfolio.ID, progressSink)
	if err != nil {
		o.logger.Warn("portfolio analysis completed with per-image failures",
			zap.String("portfolio_id", portfolio.ID.String()), zap.Error(err))
	}

	if result.Analyzed > 0 {
		if _, err := o.synthesizer.Synthesize(ctx, userID, portfolio.ID); err != nil {
			return result, fmt.Errorf("synthesize profile after ingest: %w", err)
		}
	}

	return result, nil
}

// ImageUpload is one image handed to IngestPortfolio before extraction.
type ImageUpload struct {
	ContentHash string
	URL         string
	Width       int
	Height      int
}

// SynthesizeProfile is ProfileIncomplete's counterpart: it builds and
// persists a StyleProfile from a portfolio's descriptors (the
// Synthesizer itself performs the save), surfacing the synthesizer's
// error (e.g. no descriptors yet) directly to the caller.
func (o *Orchestrator) SynthesizeProfile(ctx context.Context, userID string, portfolioID uuid.UUID) (*models.StyleProfile, error) {
	sp, err := o.synthesizer.Synthesize(ctx, userID, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("synthesize profile: %w", err)
	}

	return sp, nil
}

// GeneratePrompt builds one weighted prompt package for a user. The
// Prompt Builder itself handles the BrandDNAMissing/is_exploration
// fallback silently; no error is surfaced for a missing profile.
func (o *Orchestrator) GeneratePrompt(ctx context.Context, userID string, opts prompt.Options) (prompt.Package, error) {
	pkg, err := o.builder.GeneratePrompt(ctx, userID, opts)
	if err != nil {
		return prompt.Package{}, fmt.Errorf("build prompt: %w", err)
	}

	return pkg, nil
}

// GenerationOutcome is RequestGeneration's result: either a Package's
// worth of generated assets, or a user-safe error the caller may display
// as-is — the adapter's error kind mapped to a user-safe message.
type GenerationOutcome struct {
	GenerationID uuid.UUID
	Package      prompt.Package
	Images       []generator.Image
}

// RequestGeneration builds a prompt, submits it to the generator
// adapter, and persists the resulting Generation + assets. invalid_input
// and quota_exceeded provider errors surface immediately (never
// retried); rate_limited/provider_unavailable are attempted up to 3 times
// in all, with a linearly growing pause after each failure, before
// surfacing.
func (o *Orchestrator) RequestGeneration(ctx context.Context, userID string, opts prompt.Options, settings generator.Settings) (GenerationOutcome, error) {
	pkg, err := o.GeneratePrompt(ctx, userID, opts)
	if err != nil {
		return GenerationOutcome{}, err
	}

	generationID := uuid.New()
	generation := &models.Generation{
		ID:             generationID,
		UserID:         userID,
		PromptText:     pkg.Positive,
		NegativePrompt: pkg.Negative,
		Metadata:       metadataToMap(pkg.Metadata),
		ProviderID:     settings.Provider,
		Status:         enum.GenerationStatusPending,
	}

	if err := o.repo.CreateGeneration(ctx, generation); err != nil {
		return GenerationOutcome{}, fmt.Errorf("create generation: %w", err)
	}

	result, err := o.generateWithRetry(ctx, pkg, settings)
	if err != nil {
		return GenerationOutcome{}, UserSafeError(err)
	}

	if o.usage != nil && result.Cost > 0 {
		provider := settings.Provider
		if provider == "" {
			provider = "generator"
		}

		if err := o.usage.RecordUsage(ctx, time.Now().Format("2006-01-02"), provider, 0, 0, result.Cost); err != nil {
			o.logger.Warn("failed to record generation cost", zap.Error(err))
		}
	}

	assets := make([]*models.GenerationAsset, len(result.Images))
	for i, img := range result.Images {
		assets[i] = &models.GenerationAsset{
			ID:           uuid.New(),
			GenerationID: generationID,
			URL:          img.URL,
			PromptIndex:  i,
		}
	}

	if err := o.repo.CompleteGeneration(ctx, generationID, result.Cost, assets); err != nil {
		return GenerationOutcome{}, fmt.Errorf("complete generation: %w", err)
	}

	return GenerationOutcome{GenerationID: generationID, Package: pkg, Images: result.Images}, nil
}

// BatchOutcome is RequestBatch's result: the successful subset of a
// requested batch, with Partial set when any prompt failed.
type BatchOutcome struct {
	Outcomes []GenerationOutcome
	Failed   int
	Partial  bool
}

// RequestBatch generates count images from one options template, giving
// each prompt a distinct variation seed and generation index so variation
// arises from the sampler rather than deduplication. Failures never mask
// successes: the successful subset is returned with Partial set, and an
// error only when every prompt failed. A quota-exceeded provider error
// stops the batch early, since the remaining prompts would hit the same
// wall. Cancellation stops the batch at the next prompt boundary.
func (o *Orchestrator) RequestBatch(ctx context.Context, userID string, opts prompt.Options, settings generator.Settings, count int) (BatchOutcome, error) {
	var (
		outcome BatchOutcome
		lastErr error
	)

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			outcome.Failed += count - i
			lastErr = ctx.Err()
			break
		}

		perPrompt := opts
		perPrompt.VariationSeed = opts.VariationSeed + i
		perPrompt.GenerationIndex = i

		result, err := o.RequestGeneration(ctx, userID, perPrompt, settings)
		if err != nil {
			outcome.Failed++
			lastErr = err

			o.logger.Warn("batch generation prompt failed",
				zap.Int("generation_index", i), zap.Error(err))

			var safeErr *SafeError
			if errors.As(err, &safeErr) && safeErr.Kind == generator.ErrorKindQuotaExceeded {
				outcome.Failed += count - i - 1
				break
			}

			continue
		}

		outcome.Outcomes = append(outcome.Outcomes, result)
	}

	outcome.Partial = outcome.Failed > 0

	if len(outcome.Outcomes) == 0 && lastErr != nil {
		return outcome, lastErr
	}

	return outcome, nil
}

// generateWithRetry submits to the adapter up to 3 times in all,
// resubmitting only when the provider error kind is retryable and backing
// off linearly after each failed attempt; any other error (or exhausted
// attempts) is returned as-is.
func (o *Orchestrator) generateWithRetry(ctx context.Context, pkg prompt.Package, settings generator.Settings) (*generator.Result, error) {
	const maxAttempts = 3

	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := o.generatorAdapter.Generate(ctx, pkg.Positive, pkg.Negative, settings)
		if err == nil {
			return result, nil
		}

		lastErr = err

		var providerErr *generator.ProviderError
		if !errors.As(err, &providerErr) || !providerErr.Kind.IsRetryable() {
			return nil, err
		}

		o.logger.Warn("retrying generation after provider error",
			zap.String("kind", string(providerErr.Kind)), zap.Int("attempt", attempt+1))

		if result := utils.ContextSleepWithLog(ctx, time.Duration(attempt+1)*250*time.Millisecond, o.logger, "generation retry cancelled"); result == utils.SleepCancelled {
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// SubmitFeedback applies one observed user signal to token weights and
// appends it to the feedback log. tokensUsed is the feedback payload's
// category-to-tokens field; TokensUsedFromChosen rebuilds it from a
// Package's Chosen block for callers that only have the original prompt
// metadata on hand.
func (o *Orchestrator) SubmitFeedback(ctx context.Context, userID string, imageID, generationID uuid.UUID, feedbackType enum.FeedbackType, tokensUsed models.TokensUsed, timeViewedMS *int64) error {
	input := weights.FeedbackInput{
		UserID:       userID,
		ImageID:      imageID,
		GenerationID: generationID,
		Type:         feedbackType,
		TokensUsed:   tokensUsed,
		TimeViewedMS: timeViewedMS,
	}

	if err := o.weights.ProcessFeedback(ctx, input); err != nil {
		return fmt.Errorf("process feedback: %w", err)
	}

	return nil
}

func metadataToMap(m prompt.Metadata) map[string]any {
	return map[string]any{
		"user_id":                 m.UserID,
		"creativity":              m.Creativity,
		"brand_dna_strength":      m.BrandDNAStrength,
		"chosen":                  m.Chosen,
		"brand_consistency_score": m.BrandConsistencyScore,
		"variation_seed":          m.VariationSeed,
		"generation_index":        m.GenerationIndex,
		"is_exploration":          m.IsExploration,
	}
}
