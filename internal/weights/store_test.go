package weights_test

import (
	"context"
	"testing"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/weights"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	weights map[string]*models.TokenWeight
	events  []*models.FeedbackEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{weights: make(map[string]*models.TokenWeight)}
}

func (f *fakeRepo) key(userID string, category enum.WeightCategory, token string) string {
	return userID + "|" + string(category) + "|" + token
}

func (f *fakeRepo) TokenWeight(_ context.Context, userID string, category enum.WeightCategory, token string) (*models.TokenWeight, error) {
	if w, ok := f.weights[f.key(userID, category, token)]; ok {
		copied := *w
		return &copied, nil
	}
	return models.DefaultTokenWeight(userID, category, token), nil
}

func (f *fakeRepo) TokenWeightsForCategory(_ context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error) {
	var out []*models.TokenWeight
	for _, w := range f.weights {
		if w.UserID != userID {
			continue
		}
		if category != nil && w.Category != *category {
			continue
		}
		copied := *w
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeRepo) UpsertTokenWeight(_ context.Context, w *models.TokenWeight) error {
	copied := *w
	f.weights[f.key(w.UserID, w.Category, w.Token)] = &copied
	return nil
}

func (f *fakeRepo) RecentFeedbackEvent(_ context.Context, userID string, imageID uuid.UUID, feedbackType enum.FeedbackType, within time.Duration) (*models.FeedbackEvent, error) {
	cutoff := time.Now().Add(-within)
	for i := len(f.events) - 1; i >= 0; i-- {
		e := f.events[i]
		if e.UserID == userID && e.ImageID == imageID && e.Type == feedbackType && e.CreatedAt.After(cutoff) {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SaveFeedbackEvent(_ context.Context, e *models.FeedbackEvent) error {
	e.CreatedAt = time.Now()
	f.events = append(f.events, e)
	return nil
}

func TestProcessFeedbackScenario4(t *testing.T) {
	repo := newFakeRepo()
	store := weights.NewStore(repo, nil, zap.NewNop())

	imageID := uuid.New()
	generationID := uuid.New()
	tokensUsed := models.TokensUsed{enum.WeightCategoryLighting: {"cinematic lighting"}}

	require.NoError(t, store.ProcessFeedback(context.Background(), weights.FeedbackInput{
		UserID: "user-x", ImageID: imageID, GenerationID: generationID,
		Type: enum.FeedbackTypeSave, TokensUsed: tokensUsed,
	}))

	w, err := repo.TokenWeight(context.Background(), "user-x", enum.WeightCategoryLighting, "cinematic lighting")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w.Weight, 1e-9)
	assert.Equal(t, int64(1), w.PositiveFeedback)
	assert.Equal(t, int64(1), w.UsageCount)

	require.NoError(t, store.ProcessFeedback(context.Background(), weights.FeedbackInput{
		UserID: "user-x", ImageID: uuid.New(), GenerationID: generationID,
		Type: enum.FeedbackTypeGenerateSimilar, TokensUsed: tokensUsed,
	}))

	w, err = repo.TokenWeight(context.Background(), "user-x", enum.WeightCategoryLighting, "cinematic lighting")
	require.NoError(t, err)
	assert.InDelta(t, 1.05, w.Weight, 1e-9)

	require.NoError(t, store.ProcessFeedback(context.Background(), weights.FeedbackInput{
		UserID: "user-x", ImageID: uuid.New(), GenerationID: generationID,
		Type: enum.FeedbackTypeDislike, TokensUsed: tokensUsed,
	}))

	w, err = repo.TokenWeight(context.Background(), "user-x", enum.WeightCategoryLighting, "cinematic lighting")
	require.NoError(t, err)
	assert.InDelta(t, 0.895, w.Weight, 1e-9)
}

func TestProcessFeedbackDedupeWithinWindow(t *testing.T) {
	repo := newFakeRepo()
	store := weights.NewStore(repo, nil, zap.NewNop())

	imageID := uuid.New()
	tokensUsed := models.TokensUsed{enum.WeightCategoryLighting: {"cinematic lighting"}}
	input := weights.FeedbackInput{
		UserID: "user-x", ImageID: imageID, GenerationID: uuid.New(),
		Type: enum.FeedbackTypeSave, TokensUsed: tokensUsed,
	}

	require.NoError(t, store.ProcessFeedback(context.Background(), input))
	require.NoError(t, store.ProcessFeedback(context.Background(), input))

	w, err := repo.TokenWeight(context.Background(), "user-x", enum.WeightCategoryLighting, "cinematic lighting")
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.UsageCount, "duplicate submission must not double-apply")
}

func TestSelectTokensTopK(t *testing.T) {
	repo := newFakeRepo()
	ctx := context.Background()

	_ = repo.UpsertTokenWeight(ctx, &models.TokenWeight{UserID: "u", Category: enum.WeightCategoryStyle, Token: "a", Weight: 1.8})
	_ = repo.UpsertTokenWeight(ctx, &models.TokenWeight{UserID: "u", Category: enum.WeightCategoryStyle, Token: "b", Weight: 1.9})
	_ = repo.UpsertTokenWeight(ctx, &models.TokenWeight{UserID: "u", Category: enum.WeightCategoryStyle, Token: "c", Weight: 0.5})

	store := weights.NewStore(repo, nil, zap.NewNop())

	tokens, err := store.SelectTokens(ctx, "u", enum.WeightCategoryStyle, 2, false)
	require.NoError(t, err)
	assert.Len(t, tokens, 2)
}
