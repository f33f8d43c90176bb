// Package generate produces answers from retrieved context via a
// hosted chat-completion backend.
package generate

import (
	"context"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

// Generation defaults. Temperature and token cap are fixed properties
// of the answering behavior, not user configuration.
const (
	DefaultGenerateModel   = "gpt-4o-mini"
	defaultGenerateTimeout = 60 * time.Second

	answerTemperature = 0.7
	answerMaxTokens   = 300
)

// Generator produces an answer for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// OpenAIConfig holds settings for the hosted chat backend.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	BaseURL     string
	Timeout     time.Duration
}

// OpenAIGenerator answers prompts with a single-turn chat completion.
// Each prompt is sent as one user message; no history is kept between
// calls and failures are not retried.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a hosted generator. The API key is
// required; other fields fall back to defaults when zero.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, aderrors.New(aderrors.ErrCodeMissingAPIKey, "no API key configured for the chat backend").
			WithSuggestion("set the OPENAI_API_KEY environment variable or run askdoc to be prompted for one")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGenerateModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = answerTemperature
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = answerMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultGenerateTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Generate sends the prompt as one user message and returns the
// trimmed completion text.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	})
	if err != nil {
		return "", aderrors.Wrap(aderrors.ErrCodeGenerateBackend, "chat completion request failed", err).
			WithDetail("model", g.cfg.Model).
			WithSuggestion("check your API key and network connection")
	}
	if len(resp.Choices) == 0 {
		return "", aderrors.New(aderrors.ErrCodeGenerateBackend, "chat backend returned no choices").
			WithDetail("model", g.cfg.Model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ModelName returns the configured model identifier.
func (g *OpenAIGenerator) ModelName() string {
	return g.cfg.Model
}
