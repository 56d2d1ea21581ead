package profile

import "github.com/auracore/styleforge/internal/database/models"

// BrandDNA is derived in-memory from a StyleProfile at prompt time and
// never persisted: re-deriving it is cheap and keeps the style profile
// itself the single source of truth.
type BrandDNA struct {
	PrimaryAesthetic       string
	SecondaryAesthetic     string
	SignatureColors        []string
	SignatureFabrics       []string
	SignatureConstructions []string
	PhotographyPreferences map[string]string
	BrandStrength          float64
}

// DeriveBrandDNA computes a BrandDNA snapshot from a StyleProfile.
func DeriveBrandDNA(p *models.StyleProfile) BrandDNA {
	dna := BrandDNA{PhotographyPreferences: map[string]string{}}

	if len(p.AestheticThemes) > 0 {
		dna.PrimaryAesthetic = p.AestheticThemes[0].Name
	}
	if len(p.AestheticThemes) > 1 {
		dna.SecondaryAesthetic = p.AestheticThemes[1].Name
	}

	dna.SignatureColors = topKeys(p.Distributions["colors"], 4)
	dna.SignatureFabrics = topKeys(p.Distributions["fabrics"], 3)
	dna.SignatureConstructions = topNames(p.ConstructionPatterns, 5)

	dna.BrandStrength = weightedThemeStrength(p.AestheticThemes)

	return dna
}

// weightedThemeStrength sums the strength of the top two aesthetic
// themes, weighted by rank, clamped to [0,1].
func weightedThemeStrength(themes []models.AestheticTheme) float64 {
	strength := 0.0

	for i, theme := range themes {
		if i >= 2 {
			break
		}

		weight := 1.0
		if i == 1 {
			weight = 0.5
		}

		strength += theme.Strength * weight
	}

	if strength > 1 {
		strength = 1
	}

	return strength
}

// IsSignature reports whether value is among a category's signature set
// in dna, used by the prompt builder's Thompson-sampling score to weight
// brand-DNA-matching candidates.
func (dna BrandDNA) IsSignature(category, value string) bool {
	var set []string

	switch category {
	case "colors":
		set = dna.SignatureColors
	case "fabrics":
		set = dna.SignatureFabrics
	case "constructions":
		set = dna.SignatureConstructions
	case "style_context":
		return value != "" && (value == dna.PrimaryAesthetic || value == dna.SecondaryAesthetic)
	default:
		return false
	}

	for _, v := range set {
		if v == value {
			return true
		}
	}

	return false
}

func topKeys(dist map[string]float64, n int) []string {
	type kv = struct {
		k string
		v float64
	}

	pairs := make([]kv, 0, len(dist))
	for k, v := range dist {
		pairs = append(pairs, kv{k, v})
	}

	sortByValueDesc(pairs)

	if n > len(pairs) {
		n = len(pairs)
	}

	out := make([]string, n)
	for i := range n {
		out[i] = pairs[i].k
	}

	return out
}

func topNames(patterns []models.ConstructionPattern, n int) []string {
	if n > len(patterns) {
		n = len(patterns)
	}

	out := make([]string, n)
	for i := range n {
		out[i] = patterns[i].Name
	}

	return out
}

func sortByValueDesc(pairs []struct {
	k string
	v float64
}) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && (pairs[j].v > pairs[j-1].v || (pairs[j].v == pairs[j-1].v && pairs[j].k < pairs[j-1].k)); j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
