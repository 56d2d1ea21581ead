package descriptor_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/database/types"
	"github.com/auracore/styleforge/internal/descriptor"
	"github.com/auracore/styleforge/internal/vision"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func fullTree(confidence float64) types.Tree {
	return types.Tree{
		ExecutiveSummary: types.ExecutiveSummary{
			Description:       strPtr("A tailored navy blazer with cream trousers."),
			DominantAesthetic: strPtr("contemporary minimalist"),
			KeyGarments:       []string{"blazer", "trousers"},
		},
		Garments: []types.Garment{
			{
				Type:       strPtr("blazer"),
				Silhouette: types.Silhouette{OverallShape: strPtr("structured"), Fit: strPtr("tailored")},
				Fabric:     types.Fabric{PrimaryMaterial: strPtr("wool"), Weight: strPtr("mid"), Drape: strPtr("structured"), Finish: strPtr("matte")},
				ColorPalette: []types.ColorEntry{
					{Name: strPtr("navy"), Hex: strPtr("#1b2a4a"), Coverage: floatPtr(0.8)},
				},
				Construction: types.Construction{Seams: strPtr("clean"), Stitching: strPtr("topstitched"), Closures: strPtr("button"), Hardware: strPtr("horn buttons")},
				Confidence:   floatPtr(confidence),
			},
		},
		ModelDemographics: types.ModelDemographics{
			Ethnicity:          strPtr("not_visible"),
			BodyType:           strPtr("average"),
			Proportions:        strPtr("balanced"),
			GenderPresentation: genderPtr(enum.GenderPresentationFeminine),
		},
		Photography: types.Photography{
			ShotComposition: types.ShotComposition{Type: strPtr("full length")},
			Pose:            types.Pose{Gaze: strPtr("camera"), Head: strPtr("level"), BodyPosition: strPtr("front-facing")},
			Lighting:        types.Lighting{Type: strPtr("studio"), Direction: strPtr("front")},
			CameraAngle:     types.CameraAngle{Horizontal: strPtr("front"), Vertical: strPtr("eye level")},
			Background:      types.Background{Type: strPtr("studio backdrop")},
		},
		StylingContext: types.StylingContext{
			Accessories:      []string{"leather belt"},
			StylingApproach:  strPtr("minimal"),
			OverallAesthetic: strPtr("contemporary"),
		},
		ContextualAttributes: types.ContextualAttributes{
			MoodAesthetic: strPtr("polished"),
			Season:        strPtr("fall"),
			Occasion:      strPtr("office"),
		},
		TechnicalFashionNotes: strPtr("clean tailoring throughout"),
		Metadata: types.Metadata{
			ModelID:       "gpt-4o",
			PromptVersion: "v1",
			ElapsedMS:     120,
		},
	}
}

func genderPtr(g enum.GenderPresentation) *enum.GenderPresentation { return &g }

func marshalTree(t *testing.T, tree types.Tree) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(tree)
	require.NoError(t, err)
	return raw
}

type fakeDescriptorRepo struct {
	images      []*models.PortfolioImage
	saved       []*models.UltraDetailedDescriptor
	statusCalls []enum.ProcessingStatus
}

func (f *fakeDescriptorRepo) Portfolio(_ context.Context, id uuid.UUID) (*models.Portfolio, error) {
	return &models.Portfolio{ID: id, UserID: "user-1", Status: enum.ProcessingStatusPending}, nil
}

func (f *fakeDescriptorRepo) PortfolioImages(_ context.Context, _ uuid.UUID) ([]*models.PortfolioImage, error) {
	return f.images, nil
}

func (f *fakeDescriptorRepo) SaveDescriptor(_ context.Context, d *models.UltraDetailedDescriptor) error {
	f.saved = append(f.saved, d)
	return nil
}

func (f *fakeDescriptorRepo) UpdatePortfolioStatus(_ context.Context, _ uuid.UUID, status enum.ProcessingStatus) error {
	f.statusCalls = append(f.statusCalls, status)
	return nil
}

func TestAnalyzeImage_HighConfidence_NoRetry(t *testing.T) {
	adapter := &vision.Fake{Responses: []json.RawMessage{marshalTree(t, fullTree(0.95))}}
	repo := &fakeDescriptorRepo{}
	extractor := descriptor.NewExtractor(adapter, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{})

	image := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/a.jpg"}

	d, err := extractor.AnalyzeImage(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, image.ID, d.ImageID)
	assert.InDelta(t, 0.95, d.OverallConfidence, 0.001)
	assert.Len(t, adapter.Requests, 1, "a confident first attempt must not trigger a retry")
}

func TestAnalyzeImage_LowConfidence_RetriesAndKeepsBest(t *testing.T) {
	adapter := &vision.Fake{Responses: []json.RawMessage{
		marshalTree(t, fullTree(0.4)),
		marshalTree(t, fullTree(0.9)),
	}}
	repo := &fakeDescriptorRepo{}
	extractor := descriptor.NewExtractor(adapter, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{})

	image := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/b.jpg"}

	d, err := extractor.AnalyzeImage(context.Background(), image)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, d.OverallConfidence, 0.001)
	assert.Len(t, adapter.Requests, 2)
}

func TestAnalyzeImage_NoGarments_IsExtractionFailure(t *testing.T) {
	empty := types.Tree{}
	adapter := &vision.Fake{Responses: []json.RawMessage{marshalTree(t, empty)}}
	repo := &fakeDescriptorRepo{}
	extractor := descriptor.NewExtractor(adapter, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{})

	image := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/c.jpg"}

	_, err := extractor.AnalyzeImage(context.Background(), image)
	require.Error(t, err)

	var failure *descriptor.ExtractionFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, image.ID, failure.ImageID)
}

func TestAnalyzePortfolio_MixedSuccessAndFailure_NeverAborts(t *testing.T) {
	goodImage := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/good.jpg"}
	badImage := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/bad.jpg"}

	repo := &fakeDescriptorRepo{images: []*models.PortfolioImage{goodImage, badImage}}

	adapter := &vision.Fake{Responses: []json.RawMessage{
		marshalTree(t, fullTree(0.9)),
		marshalTree(t, types.Tree{}),
	}}

	extractor := descriptor.NewExtractor(adapter, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{Concurrency: 2})

	var updates []descriptor.ProgressUpdate
	result, err := extractor.AnalyzePortfolio(context.Background(), uuid.New(), func(u descriptor.ProgressUpdate) {
		updates = append(updates, u)
	})

	require.Error(t, err, "the aggregated per-image error is still returned")
	assert.Equal(t, 1, result.Analyzed)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, repo.saved, 1)
	assert.NotEmpty(t, updates)
	assert.Equal(t, enum.ProcessingStatusReady, repo.statusCalls[len(repo.statusCalls)-1])
}

func TestAnalyzePortfolio_AllFail_MarksPortfolioFailed(t *testing.T) {
	badImage := &models.PortfolioImage{ID: uuid.New(), URL: "https://example.test/bad.jpg"}
	repo := &fakeDescriptorRepo{images: []*models.PortfolioImage{badImage}}
	adapter := &vision.Fake{Responses: []json.RawMessage{marshalTree(t, types.Tree{})}}

	extractor := descriptor.NewExtractor(adapter, repo, zap.NewNop(), zap.NewNop(), descriptor.Config{})

	result, err := extractor.AnalyzePortfolio(context.Background(), uuid.New(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, result.Analyzed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, enum.ProcessingStatusFailed, repo.statusCalls[len(repo.statusCalls)-1])
}
