package profile

import "github.com/auracore/styleforge/pkg/utils"

var normalizer = utils.NewTextNormalizer()

// aliasTable coalesces known synonyms onto one canonical term, applied
// after lowercasing so distribution keys stay deterministic regardless of
// the vision model's word choice.
var aliasTable = map[string]string{
	"tee":           "t-shirt",
	"tshirt":        "t-shirt",
	"t shirt":       "t-shirt",
	"denim":         "jeans",
	"jean":          "jeans",
	"pants":         "trousers",
	"slacks":        "trousers",
	"sweater":       "knitwear",
	"jumper":        "knitwear",
	"pullover":      "knitwear",
	"navy blue":     "navy",
	"off-white":     "cream",
	"off white":     "cream",
	"ivory":         "cream",
	"charcoal":      "charcoal grey",
	"gray":          "grey",
	"merino":        "wool",
	"aline":         "a-line",
	"fit-and-flare": "fit and flare",
}

// canonicalize normalizes s (lowercase, diacritic-stripped) then coalesces
// known synonyms to a single canonical spelling.
func canonicalize(s string) string {
	normalized := normalizer.Normalize(s)
	if alias, ok := aliasTable[normalized]; ok {
		return alias
	}

	return normalized
}
