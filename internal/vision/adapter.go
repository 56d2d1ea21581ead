// Package vision submits (image URL, prompt) pairs to a single-method
// adapter interface backed by an OpenAI-compatible structured-output
// chat completion, wrapped in a circuit breaker, a concurrency
// semaphore, and exponential backoff.
package vision

import (
	"context"
	"encoding/json"
)

// Adapter submits one image analysis request and returns the model's raw
// JSON response for the caller to parse and validate.
type Adapter interface {
	Analyze(ctx context.Context, imageURL, systemPrompt, userPrompt string, schema any) (json.RawMessage, error)
}
