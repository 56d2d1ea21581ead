package prompt

import (
	"fmt"
	"strings"
)

// section is one fixed-order positive-prompt component: its text and the
// weight it's emitted at. Mandatory sections are always emitted even at
// bare weight; optional ones are dropped entirely below weight 0.9.
type section struct {
	text      string
	weight    float64
	mandatory bool
}

// weightedToken renders one section using the prompt's weighting
// syntax: "[text:weight]" above 1.0, bare text in [0.9,1.0], and dropped
// (empty string) below 0.9 unless mandatory.
func weightedToken(s section) string {
	switch {
	case s.weight > 1.0:
		return fmt.Sprintf("[%s:%.1f]", s.text, s.weight)
	case s.weight >= 0.9 || s.mandatory:
		return s.text
	default:
		return ""
	}
}

// composePositive joins every emitted section's rendered token with
// ", ", in the fixed order the sections were supplied.
func composePositive(sections []section) string {
	tokens := make([]string, 0, len(sections))

	for _, s := range sections {
		if t := weightedToken(s); t != "" {
			tokens = append(tokens, t)
		}
	}

	return strings.Join(tokens, ", ")
}

// baseNegativeTerms is the fixed, required negative prompt: additional
// negatives may be appended, never removed.
var baseNegativeTerms = []string{
	"blurry", "low quality", "distorted", "deformed", "bad anatomy",
	"disfigured", "poorly drawn", "extra limbs", "missing limbs",
	"watermark", "signature", "text", "logo",
	"back view", "rear view", "turned away", "profile view", "side view",
}

// composeNegative builds the negative prompt from the fixed base terms
// plus any caller-supplied additions, deduplicated and order-preserving.
func composeNegative(additional []string) string {
	seen := make(map[string]bool, len(baseNegativeTerms)+len(additional))

	terms := make([]string, 0, len(baseNegativeTerms)+len(additional))

	for _, t := range baseNegativeTerms {
		if !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, t := range additional {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	return strings.Join(terms, ", ")
}

// sideBackTerms are the camera angles sanitized away, since the builder
// always composes a front-facing shot.
var sideBackTerms = []string{"side", "profile", "back", "rear", "behind"}

// sanitizeCameraAngle replaces a sampled angle naming a side/back view
// outright; otherwise "front" is appended if not already present.
func sanitizeCameraAngle(angle string) string {
	lower := strings.ToLower(angle)

	for _, t := range sideBackTerms {
		if strings.Contains(lower, t) {
			return "3/4 front angle"
		}
	}

	if strings.Contains(lower, "front") {
		return angle
	}

	return strings.TrimSpace(angle) + " front"
}
