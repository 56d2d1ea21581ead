package prompt

import (
	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
)

// category identifies one of the eight dimensions the Thompson-sampling
// selection algorithm chooses a value for.
type category string

const (
	categoryGarment      category = "garment"
	categoryFabric       category = "fabric"
	categoryColor        category = "color"
	categoryShotType     category = "shot_type"
	categoryLighting     category = "lighting"
	categoryCameraAngle  category = "camera_angle"
	categoryBackground   category = "background"
	categoryStyleContext category = "style_context"
)

// spec describes one sampled category: where its profile frequency comes
// from, which weight-store bucket backs its token weights (nil if none
// of the six persisted weight categories maps cleanly onto it), which
// brand-DNA signature set it checks against, and its built-in defaults
// used when the profile and weight store both have nothing to offer.
type categorySpec struct {
	distribution   *enum.DistributionCategory
	weightCategory *enum.WeightCategory
	signatureKind  string
	defaults       []string
}

func distCategory(c enum.DistributionCategory) *enum.DistributionCategory { return &c }
func weightCat(c enum.WeightCategory) *enum.WeightCategory                { return &c }

// categorySpecs maps each sampled category to its spec. The weight-store
// mapping is an implementer decision recorded in DESIGN.md: the persisted
// TokenWeight vocabulary (lighting, composition, style, quality, mood,
// modelPose) is coarser than the builder's eight sampling dimensions, so
// garment/fabric/color have no weight-store counterpart (w_v defaults to
// 0.5 for them) and shot-type/camera/background share categories with
// the closest semantic fit.
var categorySpecs = map[category]categorySpec{
	categoryGarment: {
		distribution: distCategory(enum.DistributionCategoryGarments),
		defaults:     []string{"blazer", "dress", "jacket", "trousers", "skirt", "coat", "jumpsuit", "blouse"},
	},
	categoryFabric: {
		distribution:  distCategory(enum.DistributionCategoryFabrics),
		signatureKind: "fabrics",
		defaults:      []string{"wool", "cotton", "silk", "linen", "cashmere"},
	},
	categoryColor: {
		distribution:  distCategory(enum.DistributionCategoryColors),
		signatureKind: "colors",
		defaults:      []string{"black", "white", "navy", "cream", "charcoal grey"},
	},
	categoryShotType: {
		weightCategory: weightCat(enum.WeightCategoryModelPose),
		defaults:       []string{"three-quarter length shot", "full length shot", "waist-up shot", "editorial full shot"},
	},
	categoryLighting: {
		weightCategory: weightCat(enum.WeightCategoryLighting),
		defaults:       []string{"soft diffused lighting", "natural window lighting", "studio strobe lighting", "golden hour lighting"},
	},
	categoryCameraAngle: {
		weightCategory: weightCat(enum.WeightCategoryComposition),
		defaults:       []string{"eye-level front angle", "slightly elevated front angle", "low front angle"},
	},
	categoryBackground: {
		weightCategory: weightCat(enum.WeightCategoryMood),
		defaults:       []string{"clean studio background", "minimal neutral backdrop", "soft gradient backdrop"},
	},
	categoryStyleContext: {
		weightCategory: weightCat(enum.WeightCategoryStyle),
		signatureKind:  "style_context",
		defaults:       []string{"contemporary", "minimalist", "classic", "editorial"},
	},
}

// silhouetteDefaults and fitDefaults fill the primary-garment template's
// "{silhouette}, {fit} {type}" for every sampled garment type; the
// profile's signature pieces are not consulted.
var silhouetteDefaults = map[string]string{
	"blazer":   "structured shoulder",
	"dress":    "fitted bodice",
	"jacket":   "relaxed shoulder",
	"trousers": "straight leg",
	"skirt":    "a-line",
	"coat":     "oversized",
	"jumpsuit": "tailored",
	"blouse":   "relaxed",
}

var fitDefaults = map[string]string{
	"blazer":   "tailored",
	"dress":    "fitted",
	"jacket":   "relaxed",
	"trousers": "straight",
	"skirt":    "fitted",
	"coat":     "oversized",
	"jumpsuit": "tailored",
	"blouse":   "relaxed",
}

var finishDefaults = []string{"matte", "satin", "brushed", "textured"}

var lightingDirections = []string{"the left", "above", "the front", "a soft diffuser"}

var cameraHeights = []string{"eye level", "chest height", "waist height"}

// TokensUsedFromChosen rebuilds the weight-store's category->token map a
// feedback event needs from a Package's Chosen block, using the same
// sampled-category-to-weight-category mapping categorySpecs declares.
// Garment, fabric, color, and model_gender have no weight-store
// counterpart and are omitted.
func TokensUsedFromChosen(c Chosen) models.TokensUsed {
	out := models.TokensUsed{}

	add := func(cat category, value string) {
		if value == "" {
			return
		}
		if wc := categorySpecs[cat].weightCategory; wc != nil {
			out[*wc] = append(out[*wc], value)
		}
	}

	add(categoryShotType, c.Pose)
	add(categoryLighting, c.Lighting)
	add(categoryCameraAngle, c.Camera)
	add(categoryBackground, c.Background)
	add(categoryStyleContext, c.StyleContext)

	return out
}
