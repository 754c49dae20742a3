package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"

	"github.com/OfonoA/campusGuide1/internal/embeddings"
)

const collectionName = "knowledge"

// Index is the process-wide similarity-search structure over embedded
// chunks. Exactly one logical instance exists per deployment; it is
// constructed at startup and injected into its callers. Mutating calls are
// serialized by an internal lock, reads may proceed concurrently and
// reflect the last completed persist.
//
// An Index may be unavailable (no persisted file and no seed texts). That
// is not an error: searches return nothing and insertions report
// ErrIndexUnavailable so callers can leave their rows eligible for retry.
type Index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
	path       string
	ready      bool
}

// New creates an Index handle persisting at path. No I/O happens until
// LoadOrCreate.
func New(embedder embeddings.Embedder, path string) *Index {
	return &Index{
		embedder:  embedder,
		embedFunc: embeddings.ToChromemFunc(embedder),
		path:      path,
	}
}

// Path returns the persistence location of the index.
func (ix *Index) Path() string { return ix.path }

// Exists reports whether a persisted index is present at the index path.
func (ix *Index) Exists() bool {
	_, err := os.Stat(ix.path)
	return err == nil
}

// Ready reports whether the index is loaded and accepting insertions.
func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

// Count returns the number of indexed chunks, 0 when unavailable.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return 0
	}
	return ix.collection.Count()
}

// LoadOrCreate loads the persisted index if one exists, otherwise builds a
// fresh one from the given seed texts. With no file and no seeds the index
// stays unavailable, which is not an error.
func (ix *Index) LoadOrCreate(ctx context.Context, seedTexts []string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.ready {
		return nil
	}

	if _, err := os.Stat(ix.path); err == nil {
		return ix.importLocked()
	}

	if len(seedTexts) == 0 {
		return nil
	}
	_, err := ix.createLocked(ctx, seedTexts)
	return err
}

// AddText embeds and inserts one chunk, returning the opaque embedding
// identifier the chunk is addressed by. Any failure (embedding, insert,
// persist) returns an error and no identifier; callers apply their
// partial-success policy.
func (ix *Index) AddText(ctx context.Context, text string, metadata map[string]string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.ready {
		return "", ErrIndexUnavailable
	}

	id := uuid.New().String()
	err := ix.collection.AddDocuments(ctx, []chromem.Document{{
		ID:       id,
		Content:  text,
		Metadata: metadata,
	}}, 1)
	if err != nil {
		return "", fmt.Errorf("adding text to index: %w", err)
	}

	if err := ix.persistLocked(); err != nil {
		return "", err
	}
	return id, nil
}

// AddDocuments bulk-inserts texts, creating the index from them if no
// persisted index exists yet, and persists after the merge. It returns the
// embedding identifiers assigned to the texts, in input order.
func (ix *Index) AddDocuments(ctx context.Context, texts []string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if !ix.ready {
		if _, err := os.Stat(ix.path); err == nil {
			if err := ix.importLocked(); err != nil {
				return nil, err
			}
		} else {
			return ix.createLocked(ctx, texts)
		}
	}

	docs, ids := makeDocuments(texts)
	if err := ix.collection.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("adding documents to index: %w", err)
	}
	if err := ix.persistLocked(); err != nil {
		return nil, err
	}
	return ids, nil
}

// Search returns the k most similar passages, best first. An unavailable
// index yields an empty result, never an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]Passage, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if !ix.ready {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	// chromem requires nResults <= collection size.
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := ix.collection.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	passages := make([]Passage, len(results))
	for i, r := range results {
		passages[i] = Passage{Content: r.Content, Similarity: r.Similarity}
	}
	return passages, nil
}

// Close persists the index a final time before shutdown.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.ready {
		return nil
	}
	return ix.persistLocked()
}

func (ix *Index) importLocked() error {
	db := chromem.NewDB()
	if err := db.ImportFromFile(ix.path, ""); err != nil {
		return fmt.Errorf("importing index from %s: %w", ix.path, err)
	}
	col := db.GetCollection(collectionName, ix.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found in %s", collectionName, ix.path)
	}
	ix.db = db
	ix.collection = col
	ix.ready = true
	return nil
}

func (ix *Index) createLocked(ctx context.Context, texts []string) ([]string, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, ix.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs, ids := makeDocuments(texts)
	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return nil, fmt.Errorf("seeding index: %w", err)
	}

	ix.db = db
	ix.collection = col
	ix.ready = true
	if err := ix.persistLocked(); err != nil {
		return nil, err
	}
	return ids, nil
}

func makeDocuments(texts []string) ([]chromem.Document, []string) {
	docs := make([]chromem.Document, len(texts))
	ids := make([]string, len(texts))
	for i, t := range texts {
		ids[i] = uuid.New().String()
		docs[i] = chromem.Document{ID: ids[i], Content: t}
	}
	return docs, ids
}

// persistLocked writes the index to stable storage. Called after every
// mutating operation so restarts never lose committed vectors.
func (ix *Index) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	if err := ix.db.ExportToFile(ix.path, true, ""); err != nil {
		return fmt.Errorf("persisting index to %s: %w", ix.path, err)
	}
	return nil
}
