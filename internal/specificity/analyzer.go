// Package specificity deterministically maps a free-text generation
// command to a creativity temperature and sampling mode. It is pure —
// no I/O, no randomness — by design, so its invariants are trivially
// testable against literal inputs.
package specificity

import (
	"fmt"
	"strings"
)

// Mode is the sampling regime a command's specificity selects.
type Mode string

const (
	ModeExploratory Mode = "exploratory"
	ModeBalanced    Mode = "balanced"
	ModeSpecific    Mode = "specific"
)

// Entities are the attribute mentions a tokenizer external to this
// component has already extracted from the command text.
type Entities struct {
	Colors    []string
	Styles    []string
	Fabrics   []string
	Modifiers []string
	Count     int
}

// Result is the analyzer's deterministic output.
type Result struct {
	Score      float64
	Creativity float64
	Mode       Mode
	Reasoning  string
}

var vagueTerms = []string{"some", "random", "varied", "different", "surprise", "any"}
var preciseTerms = []string{"specifically", "exactly", "precisely"}

var technicalFabricTerms = []string{"cashmere", "gabardine", "twill", "poplin", "charmeuse"}

var technicalConstructionTerms = []string{"notched lapel", "princess seam", "welt pocket"}

// Analyze maps command and entities to a creativity temperature by
// accumulating a fixed delta per signal: descriptor count, quantity,
// vague/precise language, technical terms, and multi-layer modifiers.
func Analyze(command string, entities Entities) Result {
	lower := strings.ToLower(command)

	var reasons []string

	score := 0.0

	descriptorCount := len(entities.Colors) + len(entities.Styles) + len(entities.Fabrics) + len(entities.Modifiers)
	descriptorBonus := min(0.3*float64(descriptorCount), 0.7)
	if descriptorBonus > 0 {
		score += descriptorBonus
		reasons = append(reasons, fmt.Sprintf("%d descriptor(s) mentioned (+%.2f)", descriptorCount, descriptorBonus))
	}

	switch {
	case entities.Count == 1:
		score += 0.3
		reasons = append(reasons, "quantity of exactly 1 (+0.30)")
	case entities.Count >= 2 && entities.Count <= 4:
		score += 0.2
		reasons = append(reasons, "quantity of 2-4 (+0.20)")
	case entities.Count >= 5:
		score += 0.1
		reasons = append(reasons, "quantity of 5+ (+0.10)")
	}

	if containsAny(lower, vagueTerms) {
		score -= 0.3
		reasons = append(reasons, "vague language present (-0.30)")
	}

	if containsAny(lower, preciseTerms) {
		score += 0.3
		reasons = append(reasons, "precise language present (+0.30)")
	}

	if containsAny(lower, technicalFabricTerms) {
		score += 0.15
		reasons = append(reasons, "technical fabric term present (+0.15)")
	}

	if containsAny(lower, technicalConstructionTerms) {
		score += 0.15
		reasons = append(reasons, "technical construction term present (+0.15)")
	}

	categoriesPresent := 0
	for _, c := range [][]string{entities.Colors, entities.Styles, entities.Fabrics, entities.Modifiers} {
		if len(c) > 0 {
			categoriesPresent++
		}
	}

	if categoriesPresent >= 3 {
		score += 0.1
		reasons = append(reasons, "modifiers span 3+ categories (+0.10)")
	}

	score = clamp(score, 0, 1)

	creativity := 1.2 - 0.9*score

	mode := ModeExploratory
	switch {
	case score < 0.35:
		mode = ModeExploratory
	case score < 0.7:
		mode = ModeBalanced
	default:
		mode = ModeSpecific
	}

	reasoning := "no specificity signals found"
	if len(reasons) > 0 {
		reasoning = strings.Join(reasons, "; ")
	}

	return Result{Score: score, Creativity: creativity, Mode: mode, Reasoning: reasoning}
}

func containsAny(haystack string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}

	return false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
