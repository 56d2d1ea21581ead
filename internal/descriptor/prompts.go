package descriptor

import "fmt"

const promptVersion = "v1"

const basePromptDirectives = `You are a forensic fashion analyst. Analyze the provided image and return
strict JSON matching the given schema. Follow these mandatory directives:
- Use precise, specific vocabulary (not generic terms like "nice" or "cute").
- Be exhaustive: capture every visible detail, however minor.
- Be honest: use null or "not_visible" for anything you cannot determine with
  confidence. Never invent a value.
- Describe layered garments as separate entries in the garments array, index 0
  being the primary/outermost garment.
- Describe construction details (seams, stitching, closures, hardware) to the
  extent visible.
- Infer fabric weight and drape from how the material falls and moves, not
  just its apparent texture.
- Describe model demographics respectfully and only to the extent the image
  shows: ethnicity, body type, proportions, and gender presentation.
- Describe photography specs precisely: shot composition, pose, lighting,
  camera angle, background.`

// buildSystemPrompt returns the fixed system prompt for a first-pass
// analysis.
func buildSystemPrompt() string {
	return basePromptDirectives
}

// buildUserPrompt returns the first-pass user prompt.
func buildUserPrompt() string {
	return "Analyze this fashion photograph and return the complete ultra-detailed descriptor JSON."
}

// buildRetryPrompt returns a stricter second-pass prompt carrying the
// first attempt's JSON and the reasons it was flagged low quality, asking
// the model to address them specifically.
func buildRetryPrompt(previousJSON string, weaknesses []string) string {
	reasons := "general quality concerns"
	if len(weaknesses) > 0 {
		reasons = joinWeaknesses(weaknesses)
	}

	return fmt.Sprintf(`Your previous analysis was flagged for: %s.

Previous JSON:
%s

Re-analyze the image more carefully and return a complete, corrected JSON.
Be more exhaustive and specific this time, especially for the flagged
sections. Do not omit fields you can determine from the image.`, reasons, previousJSON)
}

func joinWeaknesses(weaknesses []string) string {
	out := weaknesses[0]
	for _, w := range weaknesses[1:] {
		out += ", " + w
	}
	return out
}
