// Package types declares the structured descriptor tree shared by the
// descriptor extractor (which parses vision-model output into it) and the
// persisted descriptor row (which stores its sections as jsonb columns).
package types

import "github.com/auracore/styleforge/internal/database/enum"

// Tree is the full structured annotation of one image, mirroring the wire
// contract the vision adapter is asked to return. Every leaf is typed
// rather than left as a free-form map so bounds and non-invented-unknown
// invariants can be enforced on a concrete schema instead of walking an
// untyped tree.
type Tree struct {
	ExecutiveSummary      ExecutiveSummary     `json:"executive_summary"`
	Garments              []Garment            `json:"garments"`
	ModelDemographics     ModelDemographics    `json:"model_demographics"`
	Photography           Photography          `json:"photography"`
	StylingContext        StylingContext       `json:"styling_context"`
	ContextualAttributes  ContextualAttributes `json:"contextual_attributes"`
	TechnicalFashionNotes *string              `json:"technical_fashion_notes"`
	Metadata              Metadata             `json:"metadata"`
}

// ExecutiveSummary is the one-sentence description section.
type ExecutiveSummary struct {
	Description       *string  `json:"description"`
	DominantAesthetic *string  `json:"dominant_aesthetic"`
	KeyGarments       []string `json:"key_garments"`
}

// Garment is one ordered garment entry; index 0 is the primary garment.
type Garment struct {
	Type         *string      `json:"type"`
	Silhouette   Silhouette   `json:"silhouette"`
	Fabric       Fabric       `json:"fabric"`
	ColorPalette []ColorEntry `json:"color_palette"`
	Construction Construction `json:"construction"`
	SleeveLength *string      `json:"sleeve_length"`
	Collar       *string      `json:"collar"`
	Length       *string      `json:"length"`
	Confidence   *float64     `json:"confidence"`
}

// Silhouette describes a garment's overall shape.
type Silhouette struct {
	OverallShape *string `json:"overall_shape"`
	Fit          *string `json:"fit"`
}

// Fabric describes a garment's material.
type Fabric struct {
	PrimaryMaterial *string `json:"primary_material"`
	Weight          *string `json:"weight"`
	Drape           *string `json:"drape"`
	Finish          *string `json:"finish"`
}

// ColorEntry is one palette entry.
type ColorEntry struct {
	Name     *string  `json:"name"`
	Hex      *string  `json:"hex"`
	Coverage *float64 `json:"coverage"`
}

// Construction describes a garment's build details.
type Construction struct {
	Seams     *string `json:"seams"`
	Stitching *string `json:"stitching"`
	Closures  *string `json:"closures"`
	Hardware  *string `json:"hardware"`
}

// ModelDemographics describes the pictured model, respectfully and only
// to the extent visible.
type ModelDemographics struct {
	Ethnicity          *string                  `json:"ethnicity"`
	BodyType           *string                  `json:"body_type"`
	Proportions        *string                  `json:"proportions"`
	GenderPresentation *enum.GenderPresentation `json:"gender_presentation"`
}

// Photography describes the shot itself.
type Photography struct {
	ShotComposition ShotComposition `json:"shot_composition"`
	Pose            Pose            `json:"pose"`
	Lighting        Lighting        `json:"lighting"`
	CameraAngle     CameraAngle     `json:"camera_angle"`
	Background      Background      `json:"background"`
}

// ShotComposition describes the framing.
type ShotComposition struct {
	Type *string `json:"type"`
}

// Pose describes the model's pose.
type Pose struct {
	Gaze         *string `json:"gaze"`
	Head         *string `json:"head"`
	BodyPosition *string `json:"body_position"`
}

// Lighting describes the shot's lighting.
type Lighting struct {
	Type      *string `json:"type"`
	Direction *string `json:"direction"`
}

// CameraAngle describes the shot's camera angle.
type CameraAngle struct {
	Horizontal *string `json:"horizontal"`
	Vertical   *string `json:"vertical"`
}

// Background describes the shot's background.
type Background struct {
	Type *string `json:"type"`
}

// StylingContext describes accessories and styling choices.
type StylingContext struct {
	Accessories      []string `json:"accessories"`
	StylingApproach  *string  `json:"styling_approach"`
	OverallAesthetic *string  `json:"overall_aesthetic"`
}

// ContextualAttributes describes mood, season, and occasion.
type ContextualAttributes struct {
	MoodAesthetic *string `json:"mood_aesthetic"`
	Season        *string `json:"season"`
	Occasion      *string `json:"occasion"`
}

// Metadata holds provenance fields not part of the visual analysis.
type Metadata struct {
	ModelID          string   `json:"model_id"`
	PromptVersion    string   `json:"prompt_version"`
	UncertainDetails []string `json:"uncertain_details"`
	ElapsedMS        int64    `json:"elapsed_ms"`
}
