// Package openai wraps the OpenAI chat completions API behind a small
// interface with our own request/response types. It is used for query
// translation and per-candidate classification, both of which rely on
// JSON-schema constrained outputs.
package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	sdk "github.com/sashabaranov/go-openai"

	"github.com/hireloop/talent-search/internal/resilience"
)

// Client defines the OpenAI operations used by the pipeline.
// CloseIdleConnections releases pooled connections; the classifier calls it
// at batch boundaries after fanning out hundreds of requests.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	CloseIdleConnections()
}

// Request is our own request type for Generate.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature *float32
	// Schema, when set, constrains the response to the given JSON schema via
	// the provider's structured-output facility. Invalid shapes are rejected
	// by the API before they reach us.
	Schema *ResponseSchema
}

// ResponseSchema names a JSON schema for constrained generation.
type ResponseSchema struct {
	Name   string
	Schema json.RawMessage
}

// MarshalJSON implements the schema payload expected by the API.
func (s *ResponseSchema) MarshalJSON() ([]byte, error) {
	return s.Schema, nil
}

// Response is our own response type from Generate.
type Response struct {
	Text  string
	Model string
	Usage TokenUsage
}

// TokenUsage tracks token consumption for cost attribution.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
}

// Option configures the client.
type Option func(*sdkClient)

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(baseURL string) Option {
	return func(c *sdkClient) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client. The classifier uses
// this to widen per-host connection limits for batch fan-out.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *sdkClient) {
		c.httpClient = hc
	}
}

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *sdkClient) {
		c.retry.MaxAttempts = n
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *sdkClient) {
		c.timeout = d
	}
}

type sdkClient struct {
	client     *sdk.Client
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	retry      resilience.RetryConfig
	breaker    *resilience.CircuitBreaker
}

// NewClient creates a new OpenAI client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		httpClient: &http.Client{},
		timeout:    180 * time.Second,
		retry:      resilience.DefaultRetryConfig(),
		breaker:    resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
	}
	for _, opt := range opts {
		opt(c)
	}

	cfg := sdk.DefaultConfig(apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cfg.HTTPClient = c.httpClient
	c.client = sdk.NewClientWithConfig(cfg)

	return c
}

func (c *sdkClient) Generate(ctx context.Context, req Request) (*Response, error) {
	params := sdk.ChatCompletionRequest{
		Model: req.Model,
		Messages: []sdk.ChatCompletionMessage{
			{Role: sdk.ChatMessageRoleSystem, Content: req.System},
			{Role: sdk.ChatMessageRoleUser, Content: req.User},
		},
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = req.MaxTokens
	}
	if req.Temperature != nil {
		params.Temperature = *req.Temperature
	}
	if req.Schema != nil {
		params.ResponseFormat = &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &sdk.ChatCompletionResponseFormatJSONSchema{
				Name:   req.Schema.Name,
				Schema: req.Schema,
				Strict: true,
			},
		}
	}

	cfg := c.retry
	cfg.OnRetry = resilience.RetryLogger("openai", "generate")
	cfg.ShouldRetry = isRetryable

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*Response, error) {
		return resilience.ExecuteVal(ctx, c.breaker, func(ctx context.Context) (*Response, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			resp, err := c.client.CreateChatCompletion(callCtx, params)
			if err != nil {
				return nil, classifyErr(err)
			}
			if len(resp.Choices) == 0 {
				return nil, eris.New("openai: empty response")
			}

			return &Response{
				Text:  resp.Choices[0].Message.Content,
				Model: resp.Model,
				Usage: TokenUsage{
					InputTokens:  resp.Usage.PromptTokens,
					OutputTokens: resp.Usage.CompletionTokens,
				},
			}, nil
		})
	})
}

func (c *sdkClient) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// classifyErr marks rate-limit and server-side errors as transient so the
// retry layer picks them up.
func classifyErr(err error) error {
	var apiErr *sdk.APIError
	if eris.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.HTTPStatusCode) {
		return resilience.NewTransientError(eris.Wrap(err, "openai: generate"), apiErr.HTTPStatusCode)
	}
	return eris.Wrap(err, "openai: generate")
}

func isRetryable(err error) bool {
	if eris.Is(err, resilience.ErrCircuitOpen) {
		return false
	}
	return resilience.IsTransient(err)
}
