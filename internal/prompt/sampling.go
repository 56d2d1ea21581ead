package prompt

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
)

// seedFor derives a deterministic RNG seed by hashing (user_id,
// variation_seed, category), so the same triple always draws the same
// Thompson samples.
func seedFor(userID string, variationSeed int, cat category) int64 {
	h := fnv.New64a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(variationSeed)))
	h.Write([]byte{0})
	h.Write([]byte(cat))

	return int64(h.Sum64())
}

// sampleGamma draws from a Gamma(shape, 1) distribution via the
// Marsaglia-Tsang method, valid for shape >= 1 (true here since every
// alpha/beta is 1 + a non-negative feedback count).
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)

	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}

		v = v * v * v
		u := rng.Float64()

		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}

// sampleBeta draws from a Beta(alpha, beta) distribution via two
// independent Gamma draws: X/(X+Y) with X~Gamma(alpha), Y~Gamma(beta).
func sampleBeta(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)

	if x+y == 0 {
		return 0
	}

	return x / (x + y)
}

// candidateScore holds one candidate's inputs to the selection formula,
// computed ahead of scoring so the same run is reproducible given a fixed
// RNG stream.
type candidateScore struct {
	value       string
	score       float64
	isSignature bool
}

// selectCandidate runs brand-weighted Thompson sampling selection for
// one category: it scores every candidate with
// s_v = (1-c)*[(1-b)*theta_v + b*(0.5*p_v + 0.3*w_v + 0.2*is_signature_v)] + c*U(0,1)
// and returns the argmax, ties broken by lowest lexical order.
func selectCandidate(
	rng *rand.Rand,
	candidates []string,
	creativity, brandStrength float64,
	frequency map[string]float64,
	weights map[string]weightInputs,
	isSignature func(string) bool,
) candidateScore {
	best := candidateScore{score: math.Inf(-1)}

	for _, v := range candidates {
		w := weights[v]

		theta := sampleBeta(rng, w.alpha(), w.beta())
		p := frequency[v]
		sig := 0.0

		signature := isSignature != nil && isSignature(v)
		if signature {
			sig = 1
		}

		brandScore := 0.5*p + 0.3*w.normalizedWeight() + 0.2*sig
		s := (1-creativity)*((1-brandStrength)*theta+brandStrength*brandScore) + creativity*rng.Float64()

		if s > best.score || (s == best.score && v < best.value) {
			best = candidateScore{value: v, score: s, isSignature: signature}
		}
	}

	return best
}

// weightInputs is the per-candidate TokenWeight state the scoring formula
// reads; absent candidates use the documented defaults (weight 1.0,
// alpha=beta=1).
type weightInputs struct {
	weight           float64
	positiveFeedback int64
	negativeFeedback int64
	present          bool
}

func defaultWeightInputs() weightInputs {
	return weightInputs{weight: 1.0}
}

func (w weightInputs) alpha() float64 { return 1 + float64(w.positiveFeedback) }
func (w weightInputs) beta() float64  { return 1 + float64(w.negativeFeedback) }

// normalizedWeight maps TokenWeight.weight in [0,2] onto [0,1]; a
// candidate with no persisted weight uses 0.5, the midpoint of the
// default weight 1.0.
func (w weightInputs) normalizedWeight() float64 {
	if !w.present {
		return 0.5
	}
	return w.weight / 2
}

// pickTopColors implements the color section's "top 1-2 sampled colors"
// requirement: the first pick is the category's normal Thompson-sampled
// argmax, then a second independent draw over the remaining candidates
// fills the palette's second color when one is available.
func pickTopColors(
	first candidateScore,
	candidates []string,
	rng *rand.Rand,
	creativity, brandStrength float64,
	frequency map[string]float64,
	weights map[string]weightInputs,
	isSignature func(string) bool,
) pick {
	remaining := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c != first.value {
			remaining = append(remaining, c)
		}
	}

	if len(remaining) == 0 {
		return pick{value: first.value, isSignature: first.isSignature, signatureCapable: true}
	}

	second := selectCandidate(rng, remaining, creativity, brandStrength, frequency, weights, isSignature)

	return pick{
		value:            first.value + " and " + second.value,
		isSignature:      first.isSignature || second.isSignature,
		signatureCapable: true,
	}
}
