package embeddings

import "context"

// Embedder converts one text chunk into a vector. A call may fail
// independently of other calls; the ingestion engine treats per-chunk
// failures as non-fatal.
type Embedder interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name returns the provider/model identifier, used in logs.
	Name() string
}
