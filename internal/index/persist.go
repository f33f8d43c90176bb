package index

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	aderrors "github.com/askdoc/askdoc/internal/errors"
)

// persistFormatVersion guards against decoding index files written by
// an incompatible layout. Bump when flatSnapshot changes shape.
const persistFormatVersion = 1

// flatSnapshot is the gob-encoded on-disk form of the vector state.
// Chunks are persisted separately as plain JSON so other tooling can
// read them.
type flatSnapshot struct {
	Format  uint32
	Dim     int
	Vectors [][]float32
}

// Save persists the index as two files: the gob-encoded vector state
// at indexPath and the chunk list as a JSON string array at
// chunksPath. Each file is written to a temp file and renamed, so a
// crash never leaves a half-written file behind. The pair itself is
// not transactional.
func (f *Flat) Save(indexPath, chunksPath string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	snapshot := flatSnapshot{
		Format:  persistFormatVersion,
		Dim:     f.dim,
		Vectors: f.vectors,
	}
	err := writeFileAtomic(indexPath, func(w io.Writer) error {
		return gob.NewEncoder(w).Encode(snapshot)
	})
	if err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to save index file", err).
			WithDetail("path", indexPath)
	}

	chunks := f.chunks
	if chunks == nil {
		chunks = []string{}
	}
	err = writeFileAtomic(chunksPath, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(chunks)
	})
	if err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to save chunks file", err).
			WithDetail("path", chunksPath)
	}
	return nil
}

// Load replaces the in-memory state with the persisted pair. Both
// files must exist; the decoded state is validated before anything is
// replaced, so a failed load leaves the index unchanged.
func (f *Flat) Load(indexPath, chunksPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	indexFile, err := os.Open(indexPath)
	if err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to open index file", err).
			WithDetail("path", indexPath)
	}
	defer indexFile.Close()

	var snapshot flatSnapshot
	if err := gob.NewDecoder(indexFile).Decode(&snapshot); err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to decode index file", err).
			WithDetail("path", indexPath).
			WithSuggestion("the index file may be corrupt; clear the index and re-process the document")
	}
	if snapshot.Format != persistFormatVersion {
		return aderrors.New(aderrors.ErrCodePersist,
			fmt.Sprintf("unsupported index file format %d, expected %d", snapshot.Format, persistFormatVersion)).
			WithDetail("path", indexPath).
			WithSuggestion("clear the index and re-process the document")
	}
	if snapshot.Dim != f.dim {
		return aderrors.New(aderrors.ErrCodeDimensionMismatch,
			fmt.Sprintf("index file has %d-dimensional vectors, index expects %d", snapshot.Dim, f.dim)).
			WithDetail("path", indexPath)
	}
	for i, vec := range snapshot.Vectors {
		if len(vec) != snapshot.Dim {
			return aderrors.New(aderrors.ErrCodePersist,
				fmt.Sprintf("index file vector %d has %d dimensions, header says %d", i, len(vec), snapshot.Dim)).
				WithDetail("path", indexPath)
		}
	}

	chunksFile, err := os.Open(chunksPath)
	if err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to open chunks file", err).
			WithDetail("path", chunksPath)
	}
	defer chunksFile.Close()

	var chunks []string
	if err := json.NewDecoder(chunksFile).Decode(&chunks); err != nil {
		return aderrors.Wrap(aderrors.ErrCodePersist, "failed to decode chunks file", err).
			WithDetail("path", chunksPath).
			WithSuggestion("the chunks file may be corrupt; clear the index and re-process the document")
	}

	if len(snapshot.Vectors) != len(chunks) {
		return aderrors.New(aderrors.ErrCodeAlignment,
			fmt.Sprintf("index file has %d vectors but chunks file has %d chunks", len(snapshot.Vectors), len(chunks))).
			WithDetail("index_path", indexPath).
			WithDetail("chunks_path", chunksPath).
			WithSuggestion("clear the index and re-process the document")
	}

	f.vectors = snapshot.Vectors
	f.chunks = chunks
	return nil
}

// Clear resets the in-memory state and removes both persisted files.
// Missing files are not an error.
func (f *Flat) Clear(indexPath, chunksPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.vectors = nil
	f.chunks = nil

	for _, path := range []string{indexPath, chunksPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return aderrors.Wrap(aderrors.ErrCodePersist, "failed to remove persisted file", err).
				WithDetail("path", path)
		}
	}
	return nil
}

// writeFileAtomic writes via a temp file in the destination directory
// and renames it into place.
func writeFileAtomic(path string, write func(w io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
