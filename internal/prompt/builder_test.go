package prompt_test

import (
	"context"
	"strings"
	"testing"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProfiles struct {
	profiles map[string]*models.StyleProfile
}

func (f *fakeProfiles) StyleProfileByUser(_ context.Context, userID string) (*models.StyleProfile, error) {
	return f.profiles[userID], nil
}

type fakeWeights struct {
	rows []*models.TokenWeight
}

func (f *fakeWeights) GetWeights(_ context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error) {
	var out []*models.TokenWeight
	for _, r := range f.rows {
		if r.UserID != userID {
			continue
		}
		if category != nil && r.Category != *category {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func gender(setting enum.ModelGenderSetting) models.ModelGenderPreference {
	return models.ModelGenderPreference{Setting: setting}
}

func TestGeneratePrompt_NoProfile_ExplorationInvariants(t *testing.T) {
	builder := prompt.NewBuilder(&fakeProfiles{profiles: map[string]*models.StyleProfile{}}, &fakeWeights{}, zap.NewNop(), prompt.BuilderConfig{})

	creativity := 1.11

	for i := range 10 {
		pkg, err := builder.GeneratePrompt(context.Background(), "user-1", prompt.Options{
			Creativity:    &creativity,
			VariationSeed: i,
			UseCache:      boolPtr(false),
		})
		require.NoError(t, err)

		assert.True(t, pkg.Metadata.IsExploration)
		assertInvariants(t, pkg)
	}
}

func TestGeneratePrompt_MatureProfile_BrandConsistency(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.StyleProfile{
		"user-2": {
			UserID: "user-2",
			Distributions: models.Distributions{
				enum.DistributionCategoryGarments: {"dress": 0.6, "blazer": 0.4},
				enum.DistributionCategoryColors:    {"navy": 0.5, "cream": 0.3, "black": 0.2},
				enum.DistributionCategoryFabrics:   {"cashmere": 0.6, "wool": 0.4},
			},
			AestheticThemes: []models.AestheticTheme{
				{Name: "sporty chic", Strength: 0.8},
			},
			ModelGenderPreference: gender(enum.ModelGenderSettingAuto),
		},
	}}

	builder := prompt.NewBuilder(profiles, &fakeWeights{}, zap.NewNop(), prompt.BuilderConfig{})

	creativity := 0.3
	pkg, err := builder.GeneratePrompt(context.Background(), "user-2", prompt.Options{
		Creativity:    &creativity,
		VariationSeed: 1,
		UseCache:      boolPtr(false),
		UserModifiers: []string{"sporty chic"},
	})
	require.NoError(t, err)

	assert.False(t, pkg.Metadata.IsExploration)
	assertInvariants(t, pkg)
	assert.Contains(t, pkg.Positive, "sporty chic")
}

func TestGeneratePrompt_BothGenderAlternates(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.StyleProfile{
		"user-3": {UserID: "user-3", ModelGenderPreference: gender(enum.ModelGenderSettingBoth)},
	}}

	builder := prompt.NewBuilder(profiles, &fakeWeights{}, zap.NewNop(), prompt.BuilderConfig{})

	want := []string{"female", "male", "female", "male"}

	for i, expected := range want {
		creativity := 0.5
		pkg, err := builder.GeneratePrompt(context.Background(), "user-3", prompt.Options{
			Creativity:      &creativity,
			GenerationIndex: i,
			VariationSeed:   i,
			UseCache:        boolPtr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, expected, pkg.Metadata.Chosen.ModelGender)
	}
}

func TestGeneratePrompt_Deterministic_AtZeroCreativity(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.StyleProfile{}}
	builder := prompt.NewBuilder(profiles, &fakeWeights{}, zap.NewNop(), prompt.BuilderConfig{})

	creativity := 0.0001
	opts := prompt.Options{Creativity: &creativity, VariationSeed: 7, UseCache: boolPtr(false)}

	first, err := builder.GeneratePrompt(context.Background(), "user-4", opts)
	require.NoError(t, err)

	second, err := builder.GeneratePrompt(context.Background(), "user-4", opts)
	require.NoError(t, err)

	assert.Equal(t, first.Positive, second.Positive)
	assert.Equal(t, first.Metadata.Chosen, second.Metadata.Chosen)
}

func TestGeneratePrompt_CacheHit(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[string]*models.StyleProfile{}}
	builder := prompt.NewBuilder(profiles, &fakeWeights{}, zap.NewNop(), prompt.BuilderConfig{})

	creativity := 0.5
	opts := prompt.Options{Creativity: &creativity, VariationSeed: 2}

	first, err := builder.GeneratePrompt(context.Background(), "user-5", opts)
	require.NoError(t, err)

	second, err := builder.GeneratePrompt(context.Background(), "user-5", opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func assertInvariants(t *testing.T, pkg prompt.Package) {
	t.Helper()

	assert.Contains(t, pkg.Positive, "model facing camera")
	assert.Contains(t, pkg.Positive, "front-facing pose")
	assert.NotEmpty(t, pkg.Metadata.Chosen.Garment)
	assert.NotEmpty(t, pkg.Metadata.Chosen.Colors)
	assert.NotEmpty(t, pkg.Metadata.Chosen.StyleContext)
	assert.Contains(t, strings.ToLower(pkg.Metadata.Chosen.Camera), "front")

	assert.Contains(t, pkg.Negative, "back view")
	assert.Contains(t, pkg.Negative, "rear view")
	assert.Contains(t, pkg.Negative, "turned away")
}

func boolPtr(b bool) *bool { return &b }
