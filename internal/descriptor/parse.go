package descriptor

import (
	"bytes"
	"fmt"
	"reflect"
	"regexp"

	"github.com/auracore/styleforge/internal/database/types"
	"github.com/bytedance/sonic"
)

var (
	codeFenceRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
	trailingComma  = regexp.MustCompile(`,(\s*[}\]])`)
)

// ParseTree parses raw vision-model output into a Tree. If the first
// parse fails, it attempts one permissive repair — stripping code fences
// and trailing commas — before giving up.
func ParseTree(raw []byte) (types.Tree, error) {
	var tree types.Tree

	if err := sonic.Unmarshal(raw, &tree); err == nil {
		return tree, nil
	}

	repaired := repairJSON(raw)
	if err := sonic.Unmarshal(repaired, &tree); err != nil {
		return types.Tree{}, fmt.Errorf("parse descriptor JSON after repair: %w", err)
	}

	return tree, nil
}

func repairJSON(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)

	if m := codeFenceRegex.FindSubmatch(trimmed); m != nil {
		trimmed = bytes.TrimSpace(m[1])
	}

	trimmed = trailingComma.ReplaceAll(trimmed, []byte("$1"))

	return trimmed
}

// CompletenessPercentage computes (populated leaf fields / total leaf
// fields) * 100 over the tree's reflectable pointer/string/slice leaves.
// Unknown fields are expected to be nil/empty, never invented, so a
// missing leaf simply doesn't count toward the numerator.
func CompletenessPercentage(tree types.Tree) float64 {
	populated, total := countLeaves(reflect.ValueOf(tree))
	if total == 0 {
		return 0
	}

	return float64(populated) / float64(total) * 100
}

// OverallConfidence computes the mean of per-garment confidences,
// defaulting to 0.5 when the model provided none.
func OverallConfidence(tree types.Tree) float64 {
	if len(tree.Garments) == 0 {
		return 0.5
	}

	sum := 0.0
	counted := 0

	for _, g := range tree.Garments {
		if g.Confidence != nil {
			sum += *g.Confidence
			counted++
		}
	}

	if counted == 0 {
		return 0.5
	}

	return sum / float64(counted)
}

func countLeaves(v reflect.Value) (populated, total int) {
	switch v.Kind() {
	case reflect.Ptr:
		total++
		if !v.IsNil() {
			populated++
		}
		return populated, total
	case reflect.String:
		total++
		if v.String() != "" {
			populated++
		}
		return populated, total
	case reflect.Slice:
		total++
		if v.Len() > 0 {
			populated++
		}
		for i := 0; i < v.Len(); i++ {
			p, t := countLeaves(v.Index(i))
			populated += p
			total += t
		}
		return populated, total
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			p, t := countLeaves(v.Field(i))
			populated += p
			total += t
		}
		return populated, total
	case reflect.Int, reflect.Int64:
		total++
		if v.Int() != 0 {
			populated++
		}
		return populated, total
	default:
		return 0, 0
	}
}
