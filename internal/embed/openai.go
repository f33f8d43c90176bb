package embed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

// OpenAI embedding defaults.
const (
	DefaultOpenAIEmbedModel = "text-embedding-3-small"
	defaultEmbedTimeout     = 30 * time.Second
)

// OpenAIConfig holds settings for the hosted embedding backend.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	Dimensions int
	BaseURL    string
	Timeout    time.Duration
	BatchSize  int
}

// OpenAIEmbedder fetches embeddings from the OpenAI API. The request
// asks the service to truncate vectors to the configured dimension;
// truncated vectors lose unit length, so responses are re-normalized
// before use.
type OpenAIEmbedder struct {
	client *openai.Client
	cfg    OpenAIConfig
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// NewOpenAIEmbedder creates a hosted embedder. The API key is required;
// other fields fall back to defaults when zero.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, aderrors.New(aderrors.ErrCodeMissingAPIKey, "no API key configured for the embedding backend").
			WithSuggestion("set the OPENAI_API_KEY environment variable or run askdoc to be prompted for one")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIEmbedModel
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultEmbedTimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
	}, nil
}

// Embed converts a single text into a vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}
	vecs, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch converts texts into vectors, splitting the input into
// backend-sized requests. Results preserve input order.
func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("cannot embed empty text at position %d", i)
		}
	}

	results := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, vecs...)
	}
	return results, nil
}

// embedBatch performs one API request for up to BatchSize texts.
func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.cfg.Model),
		Dimensions: e.cfg.Dimensions,
	})
	if err != nil {
		return nil, aderrors.Wrap(aderrors.ErrCodeEmbedBackend, "embedding request failed", err).
			WithDetail("model", e.cfg.Model).
			WithSuggestion("check your API key and network connection")
	}
	if len(resp.Data) != len(texts) {
		return nil, aderrors.New(aderrors.ErrCodeEmbedBackend,
			fmt.Sprintf("embedding backend returned %d vectors for %d texts", len(resp.Data), len(texts))).
			WithDetail("model", e.cfg.Model)
	}

	vecs := make([][]float32, len(texts))
	for i, datum := range resp.Data {
		if len(datum.Embedding) != e.cfg.Dimensions {
			return nil, aderrors.New(aderrors.ErrCodeEmbedBackend,
				fmt.Sprintf("embedding backend returned %d dimensions, expected %d", len(datum.Embedding), e.cfg.Dimensions)).
				WithDetail("model", e.cfg.Model)
		}
		vec := make([]float32, len(datum.Embedding))
		copy(vec, datum.Embedding)
		normalizeVector(vec)
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the configured vector size.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.cfg.Dimensions
}

// ModelName returns the configured model identifier.
func (e *OpenAIEmbedder) ModelName() string {
	return e.cfg.Model
}

// Close releases client resources. The underlying HTTP client needs no
// explicit shutdown.
func (e *OpenAIEmbedder) Close() error {
	return nil
}
