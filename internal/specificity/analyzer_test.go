package specificity_test

import (
	"testing"

	"github.com/auracore/styleforge/internal/specificity"
	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmptyCommand(t *testing.T) {
	result := specificity.Analyze("", specificity.Entities{})

	assert.InDelta(t, 0.0, result.Score, 1e-9)
	assert.InDelta(t, 1.2, result.Creativity, 1e-9)
	assert.Equal(t, specificity.ModeExploratory, result.Mode)
}

func TestAnalyzeHighlySpecificCommand(t *testing.T) {
	entities := specificity.Entities{
		Colors:    []string{"navy"},
		Styles:    []string{"sporty chic"},
		Fabrics:   []string{"cashmere"},
		Modifiers: []string{"fitted"},
		Count:     1,
	}

	result := specificity.Analyze(
		"specifically make precisely one notched lapel cashmere blazer in navy",
		entities,
	)

	assert.GreaterOrEqual(t, result.Score, 1.0-1e-9)
	assert.InDelta(t, 0.3, result.Creativity, 1e-9)
	assert.Equal(t, specificity.ModeSpecific, result.Mode)
}

func TestAnalyzeExploratoryVoiceCommand(t *testing.T) {
	entities := specificity.Entities{Count: 10}

	result := specificity.Analyze("make me 10 dresses", entities)

	assert.InDelta(t, 0.1, result.Score, 1e-9)
	assert.InDelta(t, 1.11, result.Creativity, 1e-9)
	assert.Equal(t, specificity.ModeExploratory, result.Mode)
}

func TestAnalyzeVagueLanguageLowersScore(t *testing.T) {
	result := specificity.Analyze("surprise me with something random", specificity.Entities{Count: 1})
	baseline := specificity.Analyze("", specificity.Entities{Count: 1})

	assert.Less(t, result.Score, baseline.Score)
}

func TestAnalyzeReasoningIsDeterministic(t *testing.T) {
	a := specificity.Analyze("specifically one cashmere piece", specificity.Entities{Count: 1, Fabrics: []string{"cashmere"}})
	b := specificity.Analyze("specifically one cashmere piece", specificity.Entities{Count: 1, Fabrics: []string{"cashmere"}})

	assert.Equal(t, a.Reasoning, b.Reasoning)
}
