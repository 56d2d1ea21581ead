package profile_test

import (
	"context"
	"testing"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/database/types"
	"github.com/auracore/styleforge/internal/profile"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	descriptors []*models.UltraDetailedDescriptor
	profiles    map[string]*models.StyleProfile
}

func newFakeRepo(descriptors []*models.UltraDetailedDescriptor) *fakeRepo {
	return &fakeRepo{descriptors: descriptors, profiles: map[string]*models.StyleProfile{}}
}

func (f *fakeRepo) DescriptorsForPortfolio(_ context.Context, _ uuid.UUID) ([]*models.UltraDetailedDescriptor, error) {
	return f.descriptors, nil
}

func (f *fakeRepo) StyleProfileByUser(_ context.Context, userID string) (*models.StyleProfile, error) {
	return f.profiles[userID], nil
}

func (f *fakeRepo) SaveStyleProfile(_ context.Context, p *models.StyleProfile) error {
	f.profiles[p.UserID] = p
	return nil
}

func strptr(s string) *string { return &s }

func floatptr(f float64) *float64 { return &f }

func sampleDescriptor(confidence, completeness float64, garmentType, aesthetic string) *models.UltraDetailedDescriptor {
	feminine := enum.GenderPresentationFeminine

	return &models.UltraDetailedDescriptor{
		ID:      uuid.New(),
		ImageID: uuid.New(),
		ExecutiveSummary: types.ExecutiveSummary{
			DominantAesthetic: strptr(aesthetic),
		},
		Garments: []types.Garment{
			{
				Type:       strptr(garmentType),
				Fabric:     types.Fabric{PrimaryMaterial: strptr("cashmere")},
				Silhouette: types.Silhouette{OverallShape: strptr("fitted")},
				Confidence: floatptr(confidence),
			},
		},
		ModelDemographics:      types.ModelDemographics{GenderPresentation: &feminine},
		OverallConfidence:      confidence,
		CompletenessPercentage: completeness,
	}
}

func TestSynthesizeNoDescriptorsReturnsIncomplete(t *testing.T) {
	repo := newFakeRepo(nil)
	s := profile.NewSynthesizer(repo)

	_, err := s.Synthesize(context.Background(), "user-1", uuid.New())
	require.ErrorIs(t, err, profile.ErrProfileIncomplete)
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	descriptors := []*models.UltraDetailedDescriptor{
		sampleDescriptor(0.9, 90, "blazer", "contemporary"),
		sampleDescriptor(0.92, 95, "blazer", "contemporary"),
	}

	repo := newFakeRepo(descriptors)
	s := profile.NewSynthesizer(repo)

	portfolioID := uuid.New()

	first, err := s.Synthesize(context.Background(), "user-1", portfolioID)
	require.NoError(t, err)

	second, err := s.Synthesize(context.Background(), "user-1", portfolioID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Distributions, second.Distributions)
	assert.Equal(t, first.AestheticThemes, second.AestheticThemes)
	assert.InDelta(t, first.AvgConfidence, second.AvgConfidence, 1e-9)
}

func TestSynthesizeNumericClamp(t *testing.T) {
	// Confidence/completeness values above declared bounds must coerce to
	// the nearest bound, never error.
	descriptors := []*models.UltraDetailedDescriptor{
		sampleDescriptor(15.5, 1200.75, "dress", "minimalist"),
	}

	repo := newFakeRepo(descriptors)
	s := profile.NewSynthesizer(repo)

	result, err := s.Synthesize(context.Background(), "user-2", uuid.New())
	require.NoError(t, err)

	assert.InDelta(t, 9.999, result.AvgConfidence, 1e-9)
	assert.InDelta(t, 999.99, result.AvgCompleteness, 1e-9)
}

func TestSynthesizeDistributionsSumToOne(t *testing.T) {
	descriptors := []*models.UltraDetailedDescriptor{
		sampleDescriptor(0.9, 90, "blazer", "contemporary"),
		sampleDescriptor(0.8, 80, "dress", "minimalist"),
	}

	repo := newFakeRepo(descriptors)
	s := profile.NewSynthesizer(repo)

	result, err := s.Synthesize(context.Background(), "user-3", uuid.New())
	require.NoError(t, err)

	sum := 0.0
	for _, freq := range result.Distributions[enum.DistributionCategoryGarments] {
		sum += freq
	}

	assert.InDelta(t, 1.0, sum, 1e-6)
}
