package prompt

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/auracore/styleforge/internal/profile"
)

// composeSections assembles the positive prompt's fixed section order out
// of the sampled picks, returning both the section list (for
// composePositive) and the Chosen map reported in metadata.
func composeSections(opts Options, picks map[category]pick, gender profile.GenderPhrase, rng *rand.Rand) ([]section, Chosen) {
	garmentType := picks[categoryGarment].value
	fabric := picks[categoryFabric].value
	colors := picks[categoryColor].value
	shotType := picks[categoryShotType].value
	lighting := picks[categoryLighting].value
	cameraAngle := sanitizeCameraAngle(picks[categoryCameraAngle].value)
	background := picks[categoryBackground].value
	styleContext := picks[categoryStyleContext].value

	silhouette := garmentSilhouette(garmentType)
	fit := garmentFit(garmentType)
	finish := pickOne(rng, finishDefaults)
	direction := pickOne(rng, lightingDirections)
	height := pickOne(rng, cameraHeights)

	sections := []section{
		{text: styleContext, weight: 1.4},
		{text: fmt.Sprintf("%s, %s %s", silhouette, fit, garmentType), weight: 1.3},
		{text: fmt.Sprintf("in %s, with %s finish", fabric, finish), weight: 1.2},
		{text: fmt.Sprintf("%s palette", colors), weight: 1.3},
		{text: shotType, weight: 1.3},
		{text: "model facing camera", weight: 1.3, mandatory: true},
		{text: "front-facing pose", weight: 1.2, mandatory: true},
		{text: gender.Phrase, weight: 1.3},
		{text: fmt.Sprintf("%s lighting from %s", lighting, direction), weight: 1.1},
		{text: cameraAngle, weight: 1.2},
		{text: fmt.Sprintf("at %s", height), weight: 1.0},
		{text: background, weight: 1.0},
	}

	if opts.Season != "" {
		sections = append(sections, section{text: fmt.Sprintf("%s season styling", opts.Season), weight: 1.0})
	}
	if opts.Occasion != "" {
		sections = append(sections, section{text: fmt.Sprintf("for %s", opts.Occasion), weight: 1.0})
	}

	sections = append(sections,
		section{text: "professional fashion photography", weight: 1.3},
		section{text: "high detail", weight: 1.2},
		section{text: "8k", weight: 1.1},
		section{text: "sharp focus", weight: 1.0},
		section{text: "studio quality", weight: 1.0},
	)

	respectUserIntent := opts.RespectUserIntent == nil || *opts.RespectUserIntent
	if respectUserIntent && opts.ParsedUserPromptText != "" {
		sections = append(sections, section{text: opts.ParsedUserPromptText, weight: 1.1, mandatory: true})
	}

	if len(opts.UserModifiers) > 0 {
		sections = append(sections, section{text: strings.Join(opts.UserModifiers, ", "), weight: 1.1, mandatory: true})
	}

	chosen := Chosen{
		Garment:      garmentType,
		Fabric:       fabric,
		Colors:       colors,
		Pose:         shotType,
		Lighting:     lighting,
		Camera:       cameraAngle,
		Background:   background,
		StyleContext: styleContext,
		ModelGender:  gender.Presentation,
	}

	return sections, chosen
}

func garmentSilhouette(garmentType string) string {
	if s, ok := silhouetteDefaults[garmentType]; ok {
		return s
	}
	return "tailored silhouette"
}

func garmentFit(garmentType string) string {
	if f, ok := fitDefaults[garmentType]; ok {
		return f
	}
	return "fitted"
}

func pickOne(rng *rand.Rand, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[rng.Intn(len(options))]
}
