package embed

import (
	"fmt"
	"os"
	"strings"
	"time"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

// Provider identifies an embedding backend.
type Provider string

// Supported providers.
const (
	ProviderOpenAI Provider = "openai"
	ProviderStatic Provider = "static"
)

// envProviderOverride forces a provider regardless of configuration.
// Used to run fully offline (ASKDOC_EMBEDDER=static).
const envProviderOverride = "ASKDOC_EMBEDDER"

// Options selects and configures an embedding backend.
type Options struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	Timeout    time.Duration

	// CacheSize enables an LRU cache in front of the backend when
	// positive. Zero disables caching.
	CacheSize int
}

// NewEmbedder builds the configured embedder. The ASKDOC_EMBEDDER
// environment variable overrides the configured provider. An empty
// provider defaults to OpenAI.
func NewEmbedder(opts Options) (Embedder, error) {
	provider := opts.Provider
	if env := os.Getenv(envProviderOverride); env != "" {
		provider = env
	}

	var inner Embedder
	switch Provider(strings.ToLower(strings.TrimSpace(provider))) {
	case ProviderStatic:
		inner = NewStaticEmbedder()
	case ProviderOpenAI, "":
		e, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     opts.APIKey,
			Model:      opts.Model,
			Dimensions: opts.Dimensions,
			BaseURL:    opts.BaseURL,
			Timeout:    opts.Timeout,
		})
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		return nil, aderrors.New(aderrors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown embedding provider %q", provider)).
			WithSuggestion(`use "openai" or "static"`)
	}

	if opts.CacheSize > 0 {
		return NewCachedEmbedder(inner, opts.CacheSize), nil
	}
	return inner, nil
}
