package embedding

import "context"

// Embedder maps text to fixed-length vectors. Ingestion and query must use
// the same implementation and model or retrieval silently degrades; Model
// is recorded with every index record so the index can enforce it.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}
