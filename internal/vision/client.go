package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auracore/styleforge/internal/usage"
	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// modelPricing holds per-million-token USD pricing used to estimate the
// cost of a single Analyze call. Costs are approximate; exact provider
// billing is out of scope.
var modelPricing = map[string]struct{ prompt, completion float64 }{
	"gpt-4o":      {prompt: 2.50, completion: 10.00},
	"gpt-4o-mini": {prompt: 0.15, completion: 0.60},
}

// Settings configures the OpenAI-backed vision adapter.
type Settings struct {
	BaseURL        string
	APIKey         string
	Model          string
	MaxConcurrency int64
	Timeout        time.Duration
}

// Client is an Adapter backed by an OpenAI-compatible chat completions
// endpoint with image content parts and a JSON-schema response format.
type Client struct {
	client   openai.Client
	settings Settings
	breaker  *gobreaker.CircuitBreaker
	sem      *semaphore.Weighted
	usage    usage.Tracker
	logger   *zap.Logger
}

// NewClient builds a Client. usage may be nil to skip cost accounting
// (e.g. in tests).
func NewClient(settings Settings, tracker usage.Tracker, logger *zap.Logger) *Client {
	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(settings.BaseURL))
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vision_adapter",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	maxConcurrency := settings.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 3
	}
	if maxConcurrency > 10 {
		maxConcurrency = 10
	}

	return &Client{
		client:   openai.NewClient(opts...),
		settings: settings,
		breaker:  breaker,
		sem:      semaphore.NewWeighted(maxConcurrency),
		usage:    tracker,
		logger:   logger.Named("vision_client"),
	}
}

// Analyze submits one image-content chat completion request with a
// strict JSON-schema response format, honoring the circuit breaker and
// concurrency semaphore.
func (c *Client) Analyze(ctx context.Context, imageURL, systemPrompt, userPrompt string, schema any) (json.RawMessage, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire vision semaphore: %w", err)
	}
	defer c.sem.Release(1)

	timeout := c.settings.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := c.breaker.Execute(func() (any, error) {
		return c.completeWithRetry(callCtx, imageURL, systemPrompt, userPrompt, schema)
	})
	if err != nil {
		return nil, fmt.Errorf("vision analyze: %w", err)
	}

	return result.(json.RawMessage), nil
}

func (c *Client) completeWithRetry(ctx context.Context, imageURL, systemPrompt, userPrompt string, schema any) (json.RawMessage, error) {
	b := backoff.WithMaxRetries(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(500*time.Millisecond),
		backoff.WithMultiplier(2),
		backoff.WithMaxElapsedTime(30*time.Second),
	), 3)

	var raw json.RawMessage

	operation := func() error {
		resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: c.settings.Model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(systemPrompt),
				openai.UserMessage(buildImageContent(imageURL, userPrompt)),
			},
			ResponseFormat: buildJSONSchemaFormat(schema),
		})
		if err != nil {
			return err
		}

		if len(resp.Choices) == 0 {
			return fmt.Errorf("vision model returned no choices")
		}

		raw = json.RawMessage(resp.Choices[0].Message.Content)

		if c.usage != nil {
			cost := c.estimateCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
			_ = c.usage.RecordUsage(ctx, time.Now().Format("2006-01-02"), c.settings.Model,
				resp.Usage.PromptTokens, resp.Usage.CompletionTokens, cost)
		}

		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}

	return raw, nil
}

func (c *Client) estimateCost(promptTokens, completionTokens int64) float64 {
	pricing, ok := modelPricing[c.settings.Model]
	if !ok {
		return 0
	}

	return float64(promptTokens)/1_000_000*pricing.prompt +
		float64(completionTokens)/1_000_000*pricing.completion
}

func buildImageContent(imageURL, userPrompt string) []openai.ChatCompletionContentPartUnionParam {
	return []openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(userPrompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: imageURL}),
	}
}

func buildJSONSchemaFormat(schema any) openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:        "ultraDetailedDescriptor",
				Description: openai.String("Forensic structured annotation of one portfolio image"),
				Schema:      schema,
				Strict:      openai.Bool(true),
			},
		},
	}
}
