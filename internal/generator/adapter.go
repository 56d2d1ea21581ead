// Package generator defines the external text-to-image provider contract
// the prompt builder's output is submitted to. Real provider adapters
// (Imagen, Stable Diffusion, Gemini, DALL·E) are out of scope for the
// intelligence core; only the interface and a test fake live here.
package generator

import "context"

// ErrorKind classifies a provider failure so the orchestrator can decide
// whether to retry, surface, or map to a user-safe message.
type ErrorKind string

const (
	ErrorKindRateLimited         ErrorKind = "rate_limited"
	ErrorKindInvalidInput        ErrorKind = "invalid_input"
	ErrorKindProviderUnavailable ErrorKind = "provider_unavailable"
	ErrorKindQuotaExceeded       ErrorKind = "quota_exceeded"
	ErrorKindUnknown             ErrorKind = "unknown"
)

// ProviderError is returned by a failed Generate call.
type ProviderError struct {
	Kind    ErrorKind
	Message string
}

func (e *ProviderError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Settings is the per-request generation configuration passed to a
// provider adapter.
type Settings struct {
	Provider string
	Quality  string
	Size     string
	Steps    *int
}

// Image is one produced asset.
type Image struct {
	URL    string
	Width  int
	Height int
}

// Result is a successful Generate call's output.
type Result struct {
	Images        []Image
	RevisedPrompt string
	Cost          float64
	LatencyMS     int64
}

// Adapter is the uniform contract every external text-to-image provider
// implements. The core depends only on this interface; adding a provider
// is a new implementation, never a subclass.
type Adapter interface {
	Generate(ctx context.Context, positive, negative string, settings Settings) (*Result, error)
}

// IsRetryable reports whether kind warrants a backoff retry rather than
// immediate surfacing to the caller.
func (k ErrorKind) IsRetryable() bool {
	return k == ErrorKindRateLimited || k == ErrorKindProviderUnavailable
}
