// Package prompt implements intelligent prompt construction: weighted
// token ordering over a fixed section order, brand-weighted Thompson
// sampling over a user's style profile and learned token weights,
// brand-DNA enforcement, model-gender arbitration, and an in-process
// cache.
package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand"
	"time"

	"github.com/auracore/styleforge/internal/database/enum"
	"github.com/auracore/styleforge/internal/database/models"
	"github.com/auracore/styleforge/internal/profile"
	"github.com/auracore/styleforge/internal/specificity"
	"github.com/auracore/styleforge/pkg/utils"
	"go.uber.org/zap"
)

const (
	cacheCapacity = 1024
	cacheTTL      = 10 * time.Minute

	defaultBrandDNAStrength = 0.8
)

// Options configures one generate_prompt call. Zero values select the
// documented defaults.
type Options struct {
	GarmentType   string
	Season        string
	Occasion      string
	Creativity    *float64
	Command       string
	Entities      specificity.Entities
	UseCache      *bool
	VariationSeed int
	UserModifiers []string

	EnforceBrandDNA   *bool
	BrandDNAStrength  *float64
	RespectUserIntent *bool

	ParsedUserPromptText string
	GenerationIndex      int

	AdditionalNegatives []string
}

// Chosen is the set of tokens the sampler picked for each prompt
// section, reported so feedback can be reassembled without re-parsing
// the positive prompt text.
type Chosen struct {
	Garment      string `json:"garment"`
	Fabric       string `json:"fabric"`
	Colors       string `json:"colors"`
	Pose         string `json:"pose"`
	Lighting     string `json:"lighting"`
	Camera       string `json:"camera"`
	Background   string `json:"background"`
	StyleContext string `json:"style_context"`
	ModelGender  string `json:"model_gender"`
}

// Metadata is the prompt package's metadata block.
type Metadata struct {
	UserID                string  `json:"user_id"`
	Creativity            float64 `json:"creativity"`
	BrandDNAStrength      float64 `json:"brand_dna_strength"`
	Chosen                Chosen  `json:"chosen"`
	BrandConsistencyScore float64 `json:"brand_consistency_score"`
	VariationSeed         int     `json:"variation_seed"`
	GenerationIndex       int     `json:"generation_index"`
	IsExploration         bool    `json:"is_exploration"`
}

// Package is one generate_prompt result, ready for submission to a
// Generator Adapter.
type Package struct {
	Positive string   `json:"positive"`
	Negative string   `json:"negative"`
	Metadata Metadata `json:"metadata"`
}

// profileStore is the narrow read surface Builder needs from the style
// profile store.
type profileStore interface {
	StyleProfileByUser(ctx context.Context, userID string) (*models.StyleProfile, error)
}

// weightSource is the narrow read surface Builder needs from the RLHF
// weight store.
type weightSource interface {
	GetWeights(ctx context.Context, userID string, category *enum.WeightCategory) ([]*models.TokenWeight, error)
}

// Builder constructs weighted prompt packages from a user's style
// profile and learned token weights. It holds no per-user state beyond
// its cache, which is itself keyed by user_id and never crosses users.
type Builder struct {
	profiles                profileStore
	weights                 weightSource
	cache                   *utils.LRUCache[string, Package]
	logger                  *zap.Logger
	defaultBrandDNAStrength float64
}

// BuilderConfig configures the cache and brand-DNA defaults a Builder
// uses; a zero value selects the package defaults (capacity
// 1024, 10-minute TTL, brand_dna_strength 0.8).
type BuilderConfig struct {
	CacheCapacity           int
	CacheTTL                time.Duration
	DefaultBrandDNAStrength float64
}

// NewBuilder builds a Builder.
func NewBuilder(profiles profileStore, weights weightSource, logger *zap.Logger, cfg BuilderConfig) *Builder {
	capacity := cfg.CacheCapacity
	if capacity <= 0 {
		capacity = cacheCapacity
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cacheTTL
	}

	strength := cfg.DefaultBrandDNAStrength
	if strength == 0 {
		strength = defaultBrandDNAStrength
	}

	return &Builder{
		profiles:                profiles,
		weights:                 weights,
		cache:                   utils.NewLRUCache[string, Package](capacity, ttl),
		logger:                  logger.Named("prompt_builder"),
		defaultBrandDNAStrength: strength,
	}
}

// GeneratePrompt implements generate_prompt: it loads
// the user's profile (falling back to a fixed defaults table when none
// exists), derives Brand DNA, samples every category via brand-weighted
// Thompson sampling, composes the fixed-order positive prompt and the
// required negative prompt, and caches the result unless caching is
// disabled.
func (b *Builder) GeneratePrompt(ctx context.Context, userID string, opts Options) (Package, error) {
	creativity, reasoning := b.resolveCreativity(opts)

	useCache := opts.UseCache == nil || *opts.UseCache
	brandDNAStrength := b.defaultBrandDNAStrength
	if opts.BrandDNAStrength != nil {
		brandDNAStrength = utils.ClampFloat(*opts.BrandDNAStrength, 0.5, 1.0)
	}
	enforceBrandDNA := opts.EnforceBrandDNA == nil || *opts.EnforceBrandDNA

	key := cacheKey(userID, opts, creativity, enforceBrandDNA, brandDNAStrength)

	if useCache {
		if cached, ok := b.cache.Get(key); ok {
			b.logger.Debug("prompt cache hit", zap.String("user_id", userID))
			return cached, nil
		}
	}

	sp, err := b.profiles.StyleProfileByUser(ctx, userID)
	if err != nil {
		return Package{}, fmt.Errorf("load style profile: %w", err)
	}

	isExploration := sp == nil

	brandStrength := 0.0
	var dna profile.BrandDNA
	var distributions models.Distributions
	var genderState profile.ModelGenderState

	if sp != nil {
		dna = profile.DeriveBrandDNA(sp)
		distributions = sp.Distributions
		genderState = profile.ModelGenderState{Setting: sp.ModelGenderPreference.Setting, DetectedGender: sp.ModelGenderPreference.DetectedGender}

		if enforceBrandDNA {
			brandStrength = brandDNAStrength * dna.BrandStrength
			if brandStrength == 0 {
				brandStrength = brandDNAStrength
			}
		}
	} else {
		genderState = profile.ModelGenderState{Setting: enum.ModelGenderSettingAuto}
	}

	rng := rand.New(rand.NewSource(seedFor(userID, opts.VariationSeed, "builder")))

	picks, err := b.pickCandidates(ctx, userID, opts, distributions, dna, creativity, brandStrength)
	if err != nil {
		return Package{}, err
	}

	genderPhrase := profile.ResolveGenderPhrase(genderState, opts.GenerationIndex)

	sections, chosen := composeSections(opts, picks, genderPhrase, rng)

	positive := composePositive(sections)
	negative := composeNegative(opts.AdditionalNegatives)

	consistency := brandConsistencyScore(picks)

	pkg := Package{
		Positive: positive,
		Negative: negative,
		Metadata: Metadata{
			UserID:                userID,
			Creativity:            creativity,
			BrandDNAStrength:      brandDNAStrength,
			Chosen:                chosen,
			BrandConsistencyScore: consistency,
			VariationSeed:         opts.VariationSeed,
			GenerationIndex:       opts.GenerationIndex,
			IsExploration:         isExploration,
		},
	}

	if useCache {
		b.cache.Set(key, pkg)
	}

	if reasoning != "" {
		b.logger.Debug("resolved creativity from specificity analyzer", zap.String("reasoning", reasoning))
	}

	return pkg, nil
}

// resolveCreativity returns opts.Creativity if the caller set it,
// otherwise runs the Specificity Analyzer over opts.Command/Entities
// (creativity defaults to the specificity analyzer's result).
func (b *Builder) resolveCreativity(opts Options) (float64, string) {
	if opts.Creativity != nil {
		return *opts.Creativity, ""
	}

	result := specificity.Analyze(utils.CompressAllWhitespace(opts.Command), opts.Entities)

	return result.Creativity, result.Reasoning
}

// pick is one sampled category's chosen value plus whether it matched a
// brand-DNA signature, used both for template composition and the
// reported brand consistency score. Categories with no signature set in
// Brand DNA are excluded from the score's denominator.
type pick struct {
	value            string
	isSignature      bool
	signatureCapable bool
}

func (b *Builder) pickCandidates(
	ctx context.Context,
	userID string,
	opts Options,
	distributions models.Distributions,
	dna profile.BrandDNA,
	creativity, brandStrength float64,
) (map[category]pick, error) {
	picks := make(map[category]pick, len(categorySpecs))

	for cat, spec := range categorySpecs {
		if cat == categoryGarment && opts.GarmentType != "" {
			picks[cat] = pick{value: opts.GarmentType, isSignature: false}
			continue
		}

		var weightRows []*models.TokenWeight
		if spec.weightCategory != nil {
			rows, err := b.weights.GetWeights(ctx, userID, spec.weightCategory)
			if err != nil {
				return nil, fmt.Errorf("load token weights: %w", err)
			}
			weightRows = rows
		}

		candidates, frequency := candidateSet(spec, distributions, weightRows)
		if cat == categoryStyleContext {
			candidates = appendMissing(candidates, dna.PrimaryAesthetic, dna.SecondaryAesthetic)
		}
		weights := weightsFor(spec, candidates, weightRows)

		var isSignature func(string) bool
		if spec.signatureKind != "" {
			isSignature = func(v string) bool { return dna.IsSignature(spec.signatureKind, v) }
		}

		rng := rand.New(rand.NewSource(seedFor(userID, opts.VariationSeed, cat)))

		best := selectCandidate(rng, candidates, creativity, brandStrength, frequency, weights, isSignature)

		if cat == categoryColor {
			picks[cat] = pickTopColors(best, candidates, rng, creativity, brandStrength, frequency, weights, isSignature)
			continue
		}

		picks[cat] = pick{value: best.value, isSignature: best.isSignature, signatureCapable: isSignature != nil}
	}

	return picks, nil
}

// candidateSet builds the union of a category's profile-distribution
// keys, the user's persisted token weights, and its built-in defaults,
// along with the profile frequency map the scoring formula reads.
func candidateSet(spec categorySpec, distributions models.Distributions, weightRows []*models.TokenWeight) ([]string, map[string]float64) {
	frequency := map[string]float64{}
	seen := map[string]bool{}

	var candidates []string

	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		candidates = append(candidates, v)
	}

	if spec.distribution != nil {
		for v, freq := range distributions[*spec.distribution] {
			frequency[v] = freq
			add(v)
		}
	}

	for _, row := range weightRows {
		add(row.Token)
	}

	for _, v := range spec.defaults {
		add(v)
	}

	return candidates, frequency
}

// weightsFor builds the persisted TokenWeight state for every candidate
// in a category backed by a weight-store bucket, defaulting absent
// candidates to weight 1.0/alpha=beta=1.
func weightsFor(spec categorySpec, candidates []string, weightRows []*models.TokenWeight) map[string]weightInputs {
	out := make(map[string]weightInputs, len(candidates))
	for _, c := range candidates {
		out[c] = defaultWeightInputs()
	}

	if spec.weightCategory == nil {
		return out
	}

	for _, row := range weightRows {
		out[row.Token] = weightInputs{
			weight:           row.Weight,
			positiveFeedback: row.PositiveFeedback,
			negativeFeedback: row.NegativeFeedback,
			present:          true,
		}
	}

	return out
}

// brandConsistencyScore averages, across every category with a Brand DNA
// signature set, whether the chosen token matched one. Categories with
// no signature set would drag the denominator without ever scoring.
func brandConsistencyScore(picks map[category]pick) float64 {
	hits, capable := 0, 0

	for _, p := range picks {
		if !p.signatureCapable {
			continue
		}
		capable++
		if p.isSignature {
			hits++
		}
	}

	if capable == 0 {
		return 0
	}

	return float64(hits) / float64(capable)
}

// appendMissing appends each value not already present in candidates,
// skipping empties.
func appendMissing(candidates []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}

		found := false
		for _, c := range candidates {
			if c == v {
				found = true
				break
			}
		}

		if !found {
			candidates = append(candidates, v)
		}
	}

	return candidates
}

// cacheKey derives the prompt cache key: hash(user_id,
// garment_type, season, occasion, round(creativity,1), brand_dna_flag,
// round(brand_dna_strength,1), variation_seed).
func cacheKey(userID string, opts Options, creativity float64, enforceBrandDNA bool, brandDNAStrength float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%.1f|%t|%.1f|%d",
		userID, opts.GarmentType, opts.Season, opts.Occasion,
		creativity, enforceBrandDNA, brandDNAStrength, opts.VariationSeed,
	)

	return hex.EncodeToString(h.Sum(nil))
}
