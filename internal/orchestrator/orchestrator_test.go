package orchestrator_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/descriptor"
	"github.com/auracore/styleforge/internal/generator"
	"github.com/auracore/styleforge/internal/orchestrator"
	"github.com/auracore/styleforge/internal/profile"
	"github.com/auracore/styleforge/internal/prompt"
	"github.com/auracore/styleforge/internal/weights"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRepo satisfies every narrow repository interface the orchestrator
// and its collaborators (descriptor.Extractor, profile.Synthesizer,
// weights.Store) depend on, backed by plain maps.
type fakeRepo struct {
	mu sync.Mutex

	portfolios  map[uuid.UUID]*models.Portfolio
	images      map[uuid.UUID][]*models.PortfolioImage
	descriptors map[uuid.UUID][]*models.UltraDetailedDescriptor
	profiles    map[string]*models.StyleProfile
	weights     map[string]*models.TokenWeight
	feedback    []*models.FeedbackEvent
	generations map[uuid.UUID]*models.Generation
	assets      map[uuid.UUID][]*models.GenerationAsset
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		portfolios:  map[uuid.UUID]*models.Portfolio{},
		images:      map[uuid.UUID][]*models.PortfolioImage{},
		descriptors: map[uuid.UUID][]*models.UltraDetailedDescriptor{},
		profiles:    map[string]*models.StyleProfile{},
		weights:     map[string]*models.TokenWeight{},
		generations: map[uuid.UUID]*models.Generation{},
		assets:      map[uuid.UUID][]*models.GenerationAsset{},
	}
}

func (r *fakeRepo) CreatePortfolio(_ context.Context, userID, title string) (*models.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &models.Portfolio{ID: uuid.New(), UserID: userID, Title: title, Status: enum.ProcessingStatusPending}
	r.portfolios[p.ID] = p
	return p, nil
}

func (r *fakeRepo) AddPortfolioImage(_ context.Context, portfolioID uuid.UUID, contentHash, url string, width, height int) (*models.PortfolioImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	img := &models.PortfolioImage{ID: uuid.New(), PortfolioID: portfolioID, ContentHash: contentHash, URL: url, Width: width, Height: height}
	r.images[portfolioID] = append(r.images[portfolioID], img)
	return img, nil
}

func (r *fakeRepo) SetPortfolioImageCount(_ context.Context, portfolioID uuid.UUID, count int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.portfolios[portfolioID]; ok {
		p.ImageCount = count
	}
	return nil
}

func (r *fakeRepo) Portfolio(_ context.Context, id uuid.UUID) (*models.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.portfolios[id], nil
}

func (r *fakeRepo) PortfolioImages(_ context.Context, portfolioID uuid.UUID) ([]*models.PortfolioImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.images[portfolioID], nil
}

func (r *fakeRepo) SaveDescriptor(_ context.Context, d *models.UltraDetailedDescriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.descriptors[d.ImageID] = append(r.descriptors[d.ImageID], d)
	return nil
}

func (r *fakeRepo) UpdatePortfolioStatus(_ context.Context, id uuid.UUID, status enum.ProcessingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.portfolios[id]; ok {
		p.Status = status
	}
	return nil
}

func (r *fakeRepo) DescriptorsForPortfolio(_ context.Context, portfolioID uuid.UUID) ([]*models.UltraDetailedDescriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.UltraDetailedDescriptor
	for _, img := range r.images[portfolioID] {
		out = append(out, r.descriptors[img.ID]...)
	}
	return out, nil
}

func (r *fakeRepo) StyleProfileByUser(_ context.Context, userID string) (*models.StyleProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[userID], nil
}

func (r *fakeRepo) SaveStyleProfile(_ context.Context, p *models.StyleProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.UserID] = p
	return nil
}

func (r *fakeRepo) CreateGeneration(_ context.Context, g *models.Generation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations[g.ID] = g
	return nil
}

func (r *fakeRepo) CompleteGeneration(_ context.Context, generationID uuid.UUID, cost float64, assets []*models.GenerationAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.generations[generationID]
	if !ok {
		return nil
	}
	g.Status = enum.GenerationStatusCompleted
	g.Cost = cost
	r.assets[generationID] = assets
	return nil
}

func (r *fakeRepo) weightKey(userID string, category enum.WeightCategory, token string) string {
	return userID + "|" + string(category) + "|" + token
}

func (r *fakeRepo) TokenWeight(_ context.Context, userID string, category enum.WeightCategory, token string) (*models.TokenWeight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.weights[r.weightKey(userID, category, token)]; ok {
		return w, nil
	}
	return models.DefaultTokenWeight(userID, category, token), nil
}

func (r *fakeRepo) TokenWeightsForCategory(_ context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.TokenWeight
	for _, w := range r.weights {
		if w.UserID != userID {
			continue
		}
		if category != nil && w.Category != *category {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (r *fakeRepo) UpsertTokenWeight(_ context.Context, w *models.TokenWeight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.weights[r.weightKey(w.UserID, w.Category, w.Token)] = w
	return nil
}

func (r *fakeRepo) RecentFeedbackEvent(_ context.Context, userID string, imageID uuid.UUID, feedbackType enum.FeedbackType, within time.Duration) (*models.FeedbackEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.feedback) - 1; i >= 0; i-- {
		e := r.feedback[i]
		if e.UserID == userID && e.ImageID == imageID && e.Type == feedbackType && time.Since(e.CreatedAt) < within {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) SaveFeedbackEvent(_ context.Context, e *models.FeedbackEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.CreatedAt = time.Now()
	r.feedback = append(r.feedback, e)
	return nil
}

func newOrchestrator(repo *fakeRepo, gen generator.Adapter) *orchestrator.Orchestrator {
	extractor := descriptor.NewExtractor(&noopVisionAdapter{}, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{})
	synthesizer := profile.NewSynthesizer(repo)
	weightStore := weights.NewStore(repo, nil, zap.NewNop())
	builder := prompt.NewBuilder(repo, weightStore, zap.NewNop(), prompt.BuilderConfig{})

	return orchestrator.New(repo, extractor, synthesizer, builder, weightStore, gen, nil, zap.NewNop())
}

type noopVisionAdapter struct{}

func (noopVisionAdapter) Analyze(_ context.Context, _, _, _ string, _ any) (json.RawMessage, error) {
	return nil, assert.AnError
}

func TestRequestGeneration_Success(t *testing.T) {
	repo := newFakeRepo()
	gen := &generator.Fake{Result: &generator.Result{
		Images: []generator.Image{{URL: "https://example.test/out.png", Width: 1024, Height: 1536}},
		Cost:   0.04,
	}}

	o := newOrchestrator(repo, gen)

	creativity := 0.5
	outcome, err := o.RequestGeneration(context.Background(), "user-1", prompt.Options{Creativity: &creativity, VariationSeed: 1}, generator.Settings{Provider: "fake"})
	require.NoError(t, err)

	assert.Len(t, outcome.Images, 1)
	assert.Len(t, gen.Calls, 1)
	assert.NotEmpty(t, repo.assets[outcome.GenerationID])
	assert.Equal(t, enum.GenerationStatusCompleted, repo.generations[outcome.GenerationID].Status)
}

func TestRequestGeneration_InvalidInput_NoRetry(t *testing.T) {
	repo := newFakeRepo()
	gen := &generator.Fake{Err: &generator.ProviderError{Kind: generator.ErrorKindInvalidInput, Message: "bad size"}}

	o := newOrchestrator(repo, gen)

	creativity := 0.5
	_, err := o.RequestGeneration(context.Background(), "user-2", prompt.Options{Creativity: &creativity}, generator.Settings{})
	require.Error(t, err)

	var safe *orchestrator.SafeError
	require.ErrorAs(t, err, &safe)
	assert.Equal(t, generator.ErrorKindInvalidInput, safe.Kind)
	assert.Len(t, gen.Calls, 1, "invalid_input must never be retried")
}

func TestRequestGeneration_RateLimited_RetriesThenSucceeds(t *testing.T) {
	repo := newFakeRepo()
	gen := &retryOnceThenSucceed{}

	o := newOrchestrator(repo, gen)

	creativity := 0.5
	outcome, err := o.RequestGeneration(context.Background(), "user-3", prompt.Options{Creativity: &creativity}, generator.Settings{})
	require.NoError(t, err)
	assert.Equal(t, 2, gen.calls)
	assert.Len(t, outcome.Images, 1)
}

type retryOnceThenSucceed struct {
	calls int
}

func (g *retryOnceThenSucceed) Generate(_ context.Context, _, _ string, _ generator.Settings) (*generator.Result, error) {
	g.calls++
	if g.calls == 1 {
		return nil, &generator.ProviderError{Kind: generator.ErrorKindRateLimited, Message: "slow down"}
	}
	return &generator.Result{Images: []generator.Image{{URL: "https://example.test/retry.png"}}}, nil
}

func TestRequestBatch_PartialFailureReturnsSuccessfulSubset(t *testing.T) {
	repo := newFakeRepo()
	gen := &failEveryOther{}

	o := newOrchestrator(repo, gen)

	creativity := 0.5
	batch, err := o.RequestBatch(context.Background(), "user-6", prompt.Options{Creativity: &creativity}, generator.Settings{}, 4)
	require.NoError(t, err)

	assert.Len(t, batch.Outcomes, 2)
	assert.Equal(t, 2, batch.Failed)
	assert.True(t, batch.Partial)

	indices := make([]int, len(batch.Outcomes))
	for i, outcome := range batch.Outcomes {
		indices[i] = outcome.Package.Metadata.GenerationIndex
	}
	assert.Equal(t, []int{0, 2}, indices, "each prompt keeps its own generation index")
}

// failEveryOther rejects even-numbered calls (the 2nd, 4th, ...) with a
// non-retryable error.
type failEveryOther struct {
	calls int
}

func (g *failEveryOther) Generate(_ context.Context, _, _ string, _ generator.Settings) (*generator.Result, error) {
	g.calls++
	if g.calls%2 == 0 {
		return nil, &generator.ProviderError{Kind: generator.ErrorKindInvalidInput, Message: "rejected"}
	}
	return &generator.Result{Images: []generator.Image{{URL: "https://example.test/batch.png"}}}, nil
}

func TestRequestBatch_AllFailedSurfacesError(t *testing.T) {
	repo := newFakeRepo()
	gen := &generator.Fake{Err: &generator.ProviderError{Kind: generator.ErrorKindQuotaExceeded, Message: "quota"}}

	o := newOrchestrator(repo, gen)

	creativity := 0.5
	batch, err := o.RequestBatch(context.Background(), "user-7", prompt.Options{Creativity: &creativity}, generator.Settings{}, 3)
	require.Error(t, err)

	var safe *orchestrator.SafeError
	require.ErrorAs(t, err, &safe)
	assert.Equal(t, generator.ErrorKindQuotaExceeded, safe.Kind)
	assert.Empty(t, batch.Outcomes)
	assert.Equal(t, 3, batch.Failed)
	assert.Len(t, gen.Calls, 1, "quota exhaustion must stop the batch early")
}

func TestSubmitFeedback_UpdatesWeightsAndLogsEvent(t *testing.T) {
	repo := newFakeRepo()
	o := newOrchestrator(repo, &generator.Fake{})

	tokensUsed := prompt.TokensUsedFromChosen(prompt.Chosen{
		Lighting:     "soft diffused lighting",
		Camera:       "eye-level front angle",
		StyleContext: "contemporary",
		Pose:         "full length shot",
	})

	imageID := uuid.New()
	generationID := uuid.New()

	err := o.SubmitFeedback(context.Background(), "user-4", imageID, generationID, enum.FeedbackTypeGenerateSimilar, tokensUsed, nil)
	require.NoError(t, err)

	require.Len(t, repo.feedback, 1)
	assert.Equal(t, 1.5, repo.feedback[0].Reward)

	w, err := repo.TokenWeight(context.Background(), "user-4", enum.WeightCategoryLighting, "soft diffused lighting")
	require.NoError(t, err)
	assert.Greater(t, w.Weight, 1.0, "a positive-reward feedback event must raise the token's weight")
}

func TestSubmitFeedback_DuplicateWithinWindow_Discarded(t *testing.T) {
	repo := newFakeRepo()
	o := newOrchestrator(repo, &generator.Fake{})

	tokensUsed := prompt.TokensUsedFromChosen(prompt.Chosen{Lighting: "soft diffused lighting"})
	imageID, generationID := uuid.New(), uuid.New()

	require.NoError(t, o.SubmitFeedback(context.Background(), "user-5", imageID, generationID, enum.FeedbackTypeLike, tokensUsed, nil))
	require.NoError(t, o.SubmitFeedback(context.Background(), "user-5", imageID, generationID, enum.FeedbackTypeLike, tokensUsed, nil))

	assert.Len(t, repo.feedback, 1, "duplicate submission within the dedupe window must not double-apply")
}
