// Package rag wires extraction, embedding, indexing, and generation
// into the question-answering pipeline. The Engine is the single
// owner of the persisted index pair; the front-end talks to it and to
// nothing below it.
package rag

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/askdoc/askdoc/internal/embed"
	aderrors "github.com/askdoc/askdoc/internal/errors"
	"github.com/askdoc/askdoc/internal/extract"
	"github.com/askdoc/askdoc/internal/generate"
	"github.com/askdoc/askdoc/internal/index"
)

// DefaultTopK is the number of chunks retrieved per question when the
// caller does not ask for a specific count.
const DefaultTopK = 3

// Config holds the Engine's persistence paths and retrieval defaults.
type Config struct {
	IndexPath  string
	ChunksPath string

	// TopK is the retrieval count applied when Query gets topK <= 0.
	// Non-positive values fall back to DefaultTopK.
	TopK int
}

// Answer is the result of one question: the generated text plus the
// retrieved chunks that grounded it, ascending by distance.
type Answer struct {
	Text      string
	Contexts  []string
	Distances []float32
}

// Engine runs the document question-answering pipeline. All
// operations are synchronous; callers see each action through to
// completion before starting the next.
type Engine struct {
	cfg       Config
	embedder  embed.Embedder
	generator generate.Generator
	extractor extract.Extractor
	idx       *index.Flat
	logger    *slog.Logger
}

// New builds an Engine, creates the data directory, and resumes from
// the persisted index pair when both files exist. A load failure is a
// construction failure so a corrupt pair surfaces at startup rather
// than on the first question.
func New(cfg Config, emb embed.Embedder, gen generate.Generator, ext extract.Extractor, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	dataDir := filepath.Dir(cfg.IndexPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, aderrors.Wrap(aderrors.ErrCodePersist, "failed to create data directory", err).
			WithDetail("path", dataDir)
	}

	e := &Engine{
		cfg:       cfg,
		embedder:  emb,
		generator: gen,
		extractor: ext,
		idx:       index.New(emb.Dimensions()),
		logger:    logger,
	}

	if fileExists(cfg.IndexPath) && fileExists(cfg.ChunksPath) {
		if err := e.idx.Load(cfg.IndexPath, cfg.ChunksPath); err != nil {
			return nil, err
		}
		logger.Info("index loaded",
			slog.String("index_path", cfg.IndexPath),
			slog.Int("chunks", e.idx.Size()))
	}

	return e, nil
}

// IndexDocument extracts, embeds, indexes, and persists one document.
// It returns the number of chunks this call added. When persisting
// fails after the chunks were added, the in-memory index is ahead of
// the on-disk pair; the error reports the failed save and the next
// successful save reconciles the two.
func (e *Engine) IndexDocument(ctx context.Context, path string) (int, error) {
	start := time.Now()
	e.logger.Info("indexing started", slog.String("path", path))

	chunks, err := e.extractor.Extract(path)
	if err != nil {
		e.logIndexingFailed(path, start, err)
		return 0, err
	}
	if len(chunks) == 0 {
		err := aderrors.New(aderrors.ErrCodeNoText, "no extractable text found in the document").
			WithDetail("path", path).
			WithSuggestion("scanned or image-only PDFs have no text layer; try a text-based PDF")
		e.logIndexingFailed(path, start, err)
		return 0, err
	}

	vectors, err := e.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		e.logIndexingFailed(path, start, err)
		return 0, err
	}

	if err := e.idx.Add(vectors, chunks); err != nil {
		e.logIndexingFailed(path, start, err)
		return 0, err
	}
	if err := e.idx.Save(e.cfg.IndexPath, e.cfg.ChunksPath); err != nil {
		e.logIndexingFailed(path, start, err)
		return 0, err
	}

	e.logger.Info("indexing completed",
		slog.String("path", path),
		slog.Int("chunks_added", len(chunks)),
		slog.Int("index_size", e.idx.Size()),
		slog.Duration("duration", time.Since(start)))
	return len(chunks), nil
}

// Query answers a question from the indexed document. It fails fast
// when nothing has been indexed, before any embedding call is made.
// topK <= 0 uses the configured default.
func (e *Engine) Query(ctx context.Context, question string, topK int) (*Answer, error) {
	start := time.Now()

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, aderrors.New(aderrors.ErrCodeBadQuery, "question is empty")
	}
	if topK <= 0 {
		topK = e.cfg.TopK
	}

	e.logger.Info("query started",
		slog.Int("question_length", len(question)),
		slog.Int("top_k", topK))

	if e.idx.Size() == 0 {
		err := aderrors.New(aderrors.ErrCodeEmptyIndex, "no document has been indexed yet").
			WithSuggestion("upload and process a document first")
		e.logQueryFailed(start, err)
		return nil, err
	}

	queryVec, err := e.embedder.Embed(ctx, question)
	if err != nil {
		e.logQueryFailed(start, err)
		return nil, err
	}

	results, err := e.idx.Search(queryVec, topK)
	if err != nil {
		e.logQueryFailed(start, err)
		return nil, err
	}

	contexts := make([]string, len(results))
	distances := make([]float32, len(results))
	for i, r := range results {
		contexts[i] = r.Chunk
		distances[i] = r.Distance
	}

	prompt := generate.BuildPrompt(question, contexts)
	text, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		e.logQueryFailed(start, err)
		return nil, err
	}

	e.logger.Info("query completed",
		slog.Int("contexts", len(contexts)),
		slog.Duration("duration", time.Since(start)))
	return &Answer{Text: text, Contexts: contexts, Distances: distances}, nil
}

// ClearIndex resets the in-memory index and removes both persisted
// files.
func (e *Engine) ClearIndex() error {
	if err := e.idx.Clear(e.cfg.IndexPath, e.cfg.ChunksPath); err != nil {
		e.logger.Error("clear failed", slog.String("error", err.Error()))
		return err
	}
	e.logger.Info("index cleared")
	return nil
}

// Size returns the number of indexed chunks.
func (e *Engine) Size() int {
	return e.idx.Size()
}

func (e *Engine) logIndexingFailed(path string, start time.Time, err error) {
	args := []any{
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)),
	}
	for k, v := range aderrors.LogAttrs(err) {
		args = append(args, slog.Any(k, v))
	}
	e.logger.Error("indexing failed", args...)
}

func (e *Engine) logQueryFailed(start time.Time, err error) {
	args := []any{slog.Duration("duration", time.Since(start))}
	for k, v := range aderrors.LogAttrs(err) {
		args = append(args, slog.Any(k, v))
	}
	e.logger.Error("query failed", args...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
