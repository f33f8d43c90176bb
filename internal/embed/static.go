package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"
)

const (
	staticModelName = "static-hash-512"

	// Relative contribution of whole-token hashes vs character
	// trigram hashes. Trigrams give partial credit to related word
	// forms (run/running) that whole tokens would miss.
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// stopWords are high-frequency English words that carry little signal
// for matching a question against document paragraphs.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// StaticEmbedder produces deterministic vectors by hashing tokens and
// character trigrams into fixed buckets. It needs no network access and
// no model files, so it serves offline use and tests. Vectors are far
// weaker than learned embeddings but similar texts still land closer
// together than unrelated ones.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
	dims   int
}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a hash-based embedder producing
// DefaultDimensions-sized unit vectors.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{dims: DefaultDimensions}
}

// Embed converts text into a deterministic unit vector.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, fmt.Errorf("embedder is closed")
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	vec := make([]float32, e.dims)
	tokens := tokenize(trimmed)
	for _, tok := range tokens {
		vec[hashToIndex(tok, e.dims)] += tokenWeight
		for _, gram := range ngrams(tok, ngramSize) {
			vec[hashToIndex(gram, e.dims)] += ngramWeight
		}
	}
	normalizeVector(vec)
	return vec, nil
}

// EmbedBatch embeds each text in order.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		results[i] = vec
	}
	return results, nil
}

// Dimensions returns the vector size.
func (e *StaticEmbedder) Dimensions() int {
	return e.dims
}

// ModelName returns the static model identifier.
func (e *StaticEmbedder) ModelName() string {
	return staticModelName
}

// Close marks the embedder as closed. Further Embed calls fail.
func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// tokenize lowercases text, extracts alphanumeric runs, and drops
// stop words. Single characters are kept so short identifiers and
// numbers still contribute.
func tokenize(text string) []string {
	matches := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, skip := stopWords[m]; skip {
			continue
		}
		tokens = append(tokens, m)
	}
	return tokens
}

// ngrams returns the character n-grams of a token. Tokens shorter than
// n yield the token itself.
func ngrams(token string, n int) []string {
	if len(token) <= n {
		return []string{token}
	}
	grams := make([]string, 0, len(token)-n+1)
	for i := 0; i+n <= len(token); i++ {
		grams = append(grams, token[i:i+n])
	}
	return grams
}

// hashToIndex maps a string to a bucket in [0, size).
func hashToIndex(s string, size int) int {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}
