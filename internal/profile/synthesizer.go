// Package profile aggregates a portfolio's descriptors into a
// StyleProfile: attribute distributions, aesthetic themes, construction
// patterns, signature pieces, Brand DNA, and the model-gender preference.
package profile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/pkg/utils"
	"github.com/google/uuid"
)

// ErrProfileIncomplete is returned when synthesis is requested before any
// descriptor exists for the portfolio.
var ErrProfileIncomplete = errors.New("profile synthesis requested before descriptors exist")

const (
	distributionFloor  = 0.01
	signatureThreshold = 0.85
	topThemes          = 10
	topConstructions   = 10
	maxSignaturePieces = 10
)

// repository is the narrow data-access surface Synthesizer depends on.
type repository interface {
	DescriptorsForPortfolio(ctx context.Context, portfolioID uuid.UUID) ([]*models.UltraDetailedDescriptor, error)
	StyleProfileByUser(ctx context.Context, userID string) (*models.StyleProfile, error)
	SaveStyleProfile(ctx context.Context, p *models.StyleProfile) error
}

// Synthesizer builds and persists StyleProfiles.
type Synthesizer struct {
	repo repository
}

// NewSynthesizer wraps a repository.
func NewSynthesizer(repo repository) *Synthesizer {
	return &Synthesizer{repo: repo}
}

// Synthesize aggregates every descriptor of portfolioID into userID's
// StyleProfile and persists it, replacing any prior profile for the user.
// Idempotent: re-running with the same descriptor set replaces the row
// with byte-equal JSON fields.
func (s *Synthesizer) Synthesize(ctx context.Context, userID string, portfolioID uuid.UUID) (*models.StyleProfile, error) {
	descriptors, err := s.repo.DescriptorsForPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load descriptors: %w", err)
	}

	if len(descriptors) == 0 {
		return nil, ErrProfileIncomplete
	}

	existing, err := s.repo.StyleProfileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load existing profile: %w", err)
	}

	distributions := buildDistributions(descriptors)
	themes := buildAestheticThemes(descriptors)
	constructions := buildConstructionPatterns(descriptors)
	signatures := buildSignaturePieces(descriptors)
	styleTags, garmentTypes := buildTagLists(descriptors)
	avgConfidence, avgCompleteness := averageQuality(descriptors)

	profile := &models.StyleProfile{
		ID:                   uuid.New(),
		UserID:               userID,
		PortfolioID:          portfolioID,
		Distributions:        distributions,
		AestheticThemes:      themes,
		ConstructionPatterns: constructions,
		SignaturePieces:      signatures,
		StyleTags:            styleTags,
		GarmentTypes:         garmentTypes,
		AvgConfidence:        utils.ClampAvgConfidence(avgConfidence),
		AvgCompleteness:      utils.ClampAvgCompleteness(avgCompleteness),
	}

	if existing != nil {
		profile.ID = existing.ID
	}

	profile.StyleDescription = buildStyleDescription(themes, garmentTypes, constructions, len(descriptors), profile.AvgConfidence)
	profile.ModelGenderPreference = updateGenderPreference(existing, descriptors)

	if err := s.repo.SaveStyleProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	return profile, nil
}

func buildDistributions(descriptors []*models.UltraDetailedDescriptor) models.Distributions {
	counts := map[enum.DistributionCategory]map[string]int{
		enum.DistributionCategoryGarments:    {},
		enum.DistributionCategoryColors:      {},
		enum.DistributionCategoryFabrics:     {},
		enum.DistributionCategorySilhouettes: {},
	}

	for _, d := range descriptors {
		for _, g := range d.Garments {
			if g.Type != nil {
				counts[enum.DistributionCategoryGarments][canonicalize(*g.Type)]++
			}
			if g.Fabric.PrimaryMaterial != nil {
				counts[enum.DistributionCategoryFabrics][canonicalize(*g.Fabric.PrimaryMaterial)]++
			}
			if g.Silhouette.OverallShape != nil {
				counts[enum.DistributionCategorySilhouettes][canonicalize(*g.Silhouette.OverallShape)]++
			}
			for _, c := range g.ColorPalette {
				if c.Name != nil {
					counts[enum.DistributionCategoryColors][canonicalize(*c.Name)]++
				}
			}
		}
	}

	distributions := make(models.Distributions, len(counts))
	for category, categoryCounts := range counts {
		distributions[category] = normalizeDistribution(categoryCounts)
	}

	return distributions
}

// normalizeDistribution converts raw counts to a probability
// distribution, drops values below distributionFloor, and renormalizes
// so the remaining values sum to 1.
func normalizeDistribution(counts map[string]int) map[string]float64 {
	total := 0
	for _, c := range counts {
		total += c
	}

	if total == 0 {
		return map[string]float64{}
	}

	dist := make(map[string]float64, len(counts))
	for k, c := range counts {
		freq := float64(c) / float64(total)
		if freq >= distributionFloor {
			dist[k] = freq
		}
	}

	sum := 0.0
	for _, v := range dist {
		sum += v
	}

	if sum == 0 {
		return dist
	}

	for k, v := range dist {
		dist[k] = v / sum
	}

	return dist
}

func buildAestheticThemes(descriptors []*models.UltraDetailedDescriptor) []models.AestheticTheme {
	counts := map[string]int{}

	for _, d := range descriptors {
		if d.ExecutiveSummary.DominantAesthetic != nil {
			counts[canonicalize(*d.ExecutiveSummary.DominantAesthetic)]++
		}
		if d.StylingContext.OverallAesthetic != nil {
			counts[canonicalize(*d.StylingContext.OverallAesthetic)]++
		}
	}

	total := len(descriptors)

	themes := make([]models.AestheticTheme, 0, len(counts))
	for name, count := range counts {
		if name == "" {
			continue
		}

		strength := 0.0
		if total > 0 {
			strength = float64(count) / float64(total)
		}

		themes = append(themes, models.AestheticTheme{
			Name:           name,
			Count:          count,
			Strength:       strength,
			FrequencyLabel: frequencyLabel(strength),
		})
	}

	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Strength != themes[j].Strength {
			return themes[i].Strength > themes[j].Strength
		}
		return themes[i].Name < themes[j].Name
	})

	if len(themes) > topThemes {
		themes = themes[:topThemes]
	}

	return themes
}

func buildConstructionPatterns(descriptors []*models.UltraDetailedDescriptor) []models.ConstructionPattern {
	counts := map[string]int{}

	for _, d := range descriptors {
		for _, g := range d.Garments {
			terms := []*string{g.Fabric.PrimaryMaterial, g.Construction.Stitching, g.Silhouette.OverallShape}
			for _, t := range terms {
				if t != nil && *t != "" {
					counts[canonicalize(*t)]++
				}
			}
		}
	}

	patterns := make([]models.ConstructionPattern, 0, len(counts))
	for name, count := range counts {
		patterns = append(patterns, models.ConstructionPattern{
			Name:           name,
			Count:          count,
			FrequencyLabel: frequencyLabel(float64(count) / float64(max(len(descriptors), 1))),
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Count != patterns[j].Count {
			return patterns[i].Count > patterns[j].Count
		}
		return patterns[i].Name < patterns[j].Name
	})

	if len(patterns) > topConstructions {
		patterns = patterns[:topConstructions]
	}

	return patterns
}

func buildSignaturePieces(descriptors []*models.UltraDetailedDescriptor) []models.SignaturePiece {
	type key struct{ t, f, s string }

	seen := map[key]bool{}

	var pieces []models.SignaturePiece

	for _, d := range descriptors {
		for _, g := range d.Garments {
			if g.Confidence == nil || *g.Confidence < signatureThreshold {
				continue
			}

			piece := models.SignaturePiece{Confidence: *g.Confidence}
			if g.Type != nil {
				piece.Type = canonicalize(*g.Type)
			}
			if g.Fabric.PrimaryMaterial != nil {
				piece.Fabric = canonicalize(*g.Fabric.PrimaryMaterial)
			}
			if g.Silhouette.OverallShape != nil {
				piece.Silhouette = canonicalize(*g.Silhouette.OverallShape)
			}

			k := key{piece.Type, piece.Fabric, piece.Silhouette}
			if seen[k] {
				continue
			}
			seen[k] = true

			pieces = append(pieces, piece)
		}
	}

	sort.Slice(pieces, func(i, j int) bool { return pieces[i].Confidence > pieces[j].Confidence })

	if len(pieces) > maxSignaturePieces {
		pieces = pieces[:maxSignaturePieces]
	}

	return pieces
}

func buildTagLists(descriptors []*models.UltraDetailedDescriptor) (styleTags, garmentTypes []string) {
	tagSet := map[string]bool{}
	garmentSet := map[string]bool{}

	for _, d := range descriptors {
		if d.ContextualAttributes.MoodAesthetic != nil {
			tagSet[canonicalize(*d.ContextualAttributes.MoodAesthetic)] = true
		}
		for _, g := range d.Garments {
			if g.Type != nil {
				garmentSet[canonicalize(*g.Type)] = true
			}
		}
	}

	styleTags = sortedKeys(tagSet)
	garmentTypes = sortedKeys(garmentSet)

	return styleTags, garmentTypes
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func buildStyleDescription(themes []models.AestheticTheme, garmentTypes []string, constructions []models.ConstructionPattern, n int, avgConfidence float64) string {
	themeNames := namesOf(themes, 3, func(t models.AestheticTheme) string { return t.Name })
	constructionNames := namesOf(constructions, 3, func(c models.ConstructionPattern) string { return c.Name })

	garments := garmentTypes
	if len(garments) > 5 {
		garments = garments[:5]
	}

	return fmt.Sprintf(
		"Your style is characterized by %s. You frequently feature %s with %s construction details. "+
			"Your portfolio shows %d images with %.3f average confidence.",
		joinOr(themeNames, "a versatile aesthetic"),
		joinOr(garments, "a range of garments"),
		joinOr(constructionNames, "varied"),
		n, avgConfidence,
	)
}

func namesOf[T any](items []T, n int, name func(T) string) []string {
	if n > len(items) {
		n = len(items)
	}

	out := make([]string, n)
	for i := range n {
		out[i] = name(items[i])
	}

	return out
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

func frequencyLabel(strength float64) string {
	return fmt.Sprintf("%d%%", int(strength*100+0.5))
}

func averageQuality(descriptors []*models.UltraDetailedDescriptor) (avgConfidence, avgCompleteness float64) {
	var sumConfidence, sumCompleteness float64

	for _, d := range descriptors {
		sumConfidence += d.OverallConfidence
		sumCompleteness += d.CompletenessPercentage
	}

	n := float64(len(descriptors))
	if n == 0 {
		return 0, 0
	}

	return sumConfidence / n, sumCompleteness / n
}

// updateGenderPreference recomputes detected_gender/confidence from the
// descriptor set's gender_presentation proportions. A manual_override=true
// preference keeps its setting but still gets a refreshed detected_gender
// for display.
func updateGenderPreference(existing *models.StyleProfile, descriptors []*models.UltraDetailedDescriptor) models.ModelGenderPreference {
	counts := map[enum.GenderPresentation]int{}
	total := 0

	for _, d := range descriptors {
		if d.ModelDemographics.GenderPresentation != nil {
			counts[*d.ModelDemographics.GenderPresentation]++
			total++
		}
	}

	pref := models.ModelGenderPreference{Setting: enum.ModelGenderSettingAuto}
	if existing != nil {
		pref = existing.ModelGenderPreference
	}

	if total == 0 {
		return pref
	}

	orig := pref

	var top enum.GenderPresentation
	var topProp, secondProp float64

	for g, c := range counts {
		prop := float64(c) / float64(total)
		switch {
		case prop > topProp:
			secondProp = topProp
			top, topProp = g, prop
		case prop > secondProp:
			secondProp = prop
		}
	}

	detected := top
	if topProp-secondProp < 0.15 {
		pref.Confidence = topProp
		if !pref.ManualOverride {
			pref.Setting = enum.ModelGenderSettingBoth
		}
		androgynous := enum.GenderPresentationAndrogynous
		pref.DetectedGender = &androgynous
		return stampGenderUpdate(orig, pref)
	}

	if topProp > 0.60 {
		pref.DetectedGender = &detected
	}

	pref.Confidence = topProp

	return stampGenderUpdate(orig, pref)
}

// stampGenderUpdate refreshes updated_at only when the derived preference
// actually changed, so re-synthesizing the same descriptor set writes the
// same preference bytes back.
func stampGenderUpdate(orig, pref models.ModelGenderPreference) models.ModelGenderPreference {
	if orig.Setting != pref.Setting ||
		orig.Confidence != pref.Confidence ||
		!genderEqual(orig.DetectedGender, pref.DetectedGender) {
		pref.UpdatedAt = time.Now()
	}

	return pref
}

func genderEqual(a, b *enum.GenderPresentation) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
