package rag

import "context"

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator answers a question from the supplied context.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (string, error)
}

// VectorStore stores index points and answers nearest-neighbour queries.
// Upsert is all-or-nothing from the caller's point of view.
type VectorStore interface {
	EnsureCollection(ctx context.Context) error
	Upsert(ctx context.Context, points []IndexPoint) error
	Search(ctx context.Context, vector []float32, topK int) ([]SearchHit, error)
}
