// Package corpus bulk-loads pre-extracted university documents (already
// converted to text or markdown) into the knowledge base. This is a
// one-shot offline path; the reinforcement pipeline is the online one.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/OfonoA/campusGuide1/internal/chunker"
	"github.com/OfonoA/campusGuide1/internal/db"
	"github.com/OfonoA/campusGuide1/internal/vectordb"
)

// Source kinds accepted for bulk-loaded documents.
var validSources = map[string]bool{
	"manual": true,
	"policy": true,
	"faq":    true,
}

// Summary reports the outcome of one bulk load.
type Summary struct {
	Files  int `json:"files"`
	Chunks int `json:"chunks"`
}

// Loader reads document files, chunks them and feeds the vector index.
type Loader struct {
	db    *db.DB
	index *vectordb.Index
}

// NewLoader creates a corpus loader.
func NewLoader(database *db.DB, index *vectordb.Index) *Loader {
	return &Loader{db: database, index: index}
}

// Load ingests every file under root matching the glob patterns. Each file
// becomes one rag_documents record tagged with the given source kind and
// its chunks are bulk-added to the index; the index is created from the
// first batch when no persisted index exists yet.
func (l *Loader) Load(ctx context.Context, root string, patterns []string, source string) (*Summary, error) {
	if !validSources[source] {
		return nil, fmt.Errorf("invalid source %q: must be one of manual, policy, faq", source)
	}

	files, err := matchFiles(root, patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return &Summary{}, nil
	}

	bar := progressbar.Default(int64(len(files)), "loading corpus")
	summary := &Summary{}

	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			return summary, fmt.Errorf("reading %s: %w", rel, err)
		}

		chunks := chunker.Split(string(data), chunker.CorpusChunkSize, chunker.CorpusOverlap)
		if len(chunks) == 0 {
			bar.Add(1)
			continue
		}

		docID := uuid.New().String()
		_, err = l.db.ExecContext(ctx, `
			INSERT INTO rag_documents (id, source, title, source_reference)
			VALUES (?, ?, ?, ?)`,
			docID, source, filepath.Base(rel), rel)
		if err != nil {
			return summary, fmt.Errorf("recording document %s: %w", rel, err)
		}

		embeddingIDs, err := l.index.AddDocuments(ctx, chunks)
		if err != nil {
			return summary, fmt.Errorf("indexing %s: %w", rel, err)
		}
		for i, chunk := range chunks {
			_, err = l.db.ExecContext(ctx, `
				INSERT INTO document_chunks (id, document_id, chunk_text, embedding_id)
				VALUES (?, ?, ?, ?)`,
				uuid.New().String(), docID, chunk, embeddingIDs[i])
			if err != nil {
				return summary, fmt.Errorf("recording chunks for %s: %w", rel, err)
			}
		}

		summary.Files++
		summary.Chunks += len(chunks)
		bar.Add(1)
	}

	return summary, nil
}

// matchFiles resolves glob patterns to a deduplicated, sorted file list.
func matchFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"**/*.txt", "**/*.md"}
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
