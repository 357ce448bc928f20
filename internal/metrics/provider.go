// internal/metrics/provider.go
package metrics

import (
	"context"
	"time"

	"github.com/mwiater/docqa/internal/providers"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore"
)

// Operation names recorded by the decorators.
const (
	OpEmbed    = "embed"
	OpGenerate = "generate"
	OpUpsert   = "upsert"
	OpSearch   = "search"
	OpEnsure   = "ensure_collection"
)

// Embedder is a decorator that records every Embed call.
type Embedder struct {
	providers.Embedder
	aggregator *Aggregator
}

// NewEmbedder wraps wrapped so each call is recorded on aggregator.
func NewEmbedder(wrapped providers.Embedder, aggregator *Aggregator) *Embedder {
	return &Embedder{Embedder: wrapped, aggregator: aggregator}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := e.Embedder.Embed(ctx, text)
	e.aggregator.Record(OpEmbed, e.Embedder.Name(), time.Since(start), err)
	return vec, err
}

// Generator is a decorator that records every Generate call.
type Generator struct {
	providers.Generator
	aggregator *Aggregator
}

func NewGenerator(wrapped providers.Generator, aggregator *Aggregator) *Generator {
	return &Generator{Generator: wrapped, aggregator: aggregator}
}

func (g *Generator) Generate(ctx context.Context, contextText, question string) (string, error) {
	start := time.Now()
	answer, err := g.Generator.Generate(ctx, contextText, question)
	g.aggregator.Record(OpGenerate, g.Generator.Name(), time.Since(start), err)
	return answer, err
}

// Store is a decorator that records index calls. Info and Drop pass through.
type Store struct {
	vectorstore.Store
	aggregator *Aggregator
}

func NewStore(wrapped vectorstore.Store, aggregator *Aggregator) *Store {
	return &Store{Store: wrapped, aggregator: aggregator}
}

func (s *Store) EnsureCollection(ctx context.Context) error {
	start := time.Now()
	err := s.Store.EnsureCollection(ctx)
	s.aggregator.Record(OpEnsure, s.Store.Name(), time.Since(start), err)
	return err
}

func (s *Store) Upsert(ctx context.Context, points []rag.IndexPoint) error {
	start := time.Now()
	err := s.Store.Upsert(ctx, points)
	s.aggregator.Record(OpUpsert, s.Store.Name(), time.Since(start), err)
	return err
}

func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchHit, error) {
	start := time.Now()
	hits, err := s.Store.Search(ctx, vector, topK)
	s.aggregator.Record(OpSearch, s.Store.Name(), time.Since(start), err)
	return hits, err
}
