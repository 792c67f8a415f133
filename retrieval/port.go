package retrieval

import "context"

// Embedder converts text into an embedding vector
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IndexMatch is a raw nearest-neighbor hit before threshold filtering.
// Metadata fields already carry their placeholder defaults.
type IndexMatch struct {
	ID       string
	Score    float64
	Title    string
	Company  string
	Location string
	URL      string
	Source   string
}

// VectorIndex answers nearest-neighbor queries over the postings corpus
type VectorIndex interface {
	// Query returns the topK closest postings, best match first
	Query(ctx context.Context, embedding []float32, topK int) ([]IndexMatch, error)
}
