package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/docqa/internal/logging"
)

// DefaultTopK is the number of hits used to build the answer context.
const DefaultTopK = 5

// RetrievalResult is the context assembled for a question plus telemetry.
type RetrievalResult struct {
	Hits          []SearchHit
	Context       string
	Sources       []string
	RetrievalMs   int
	ContextTokens int
}

// Asker answers questions from indexed content. It only reads the index.
type Asker struct {
	embedder  Embedder
	store     VectorStore
	generator Generator
	topK      int
}

// NewAsker wires an Asker. topK <= 0 is rejected.
func NewAsker(embedder Embedder, store VectorStore, generator Generator, topK int) (*Asker, error) {
	if embedder == nil || store == nil || generator == nil {
		return nil, fmt.Errorf("%w: asker requires an embedder, a vector store and a generator", ErrInvalidConfig)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be greater than zero, got %d", ErrInvalidConfig, topK)
	}
	return &Asker{embedder: embedder, store: store, generator: generator, topK: topK}, nil
}

// Retrieve embeds the question, searches the index and assembles the context
// without calling the generator.
func (a *Asker) Retrieve(ctx context.Context, question string) (RetrievalResult, error) {
	start := time.Now()
	if strings.TrimSpace(question) == "" {
		return RetrievalResult{}, ErrInvalidQuestion
	}

	vector, err := a.embedder.Embed(ctx, question)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("embed question: %w", err)
	}
	hits, err := a.store.Search(ctx, vector, a.topK)
	if err != nil {
		return RetrievalResult{}, fmt.Errorf("search: %w", err)
	}

	contextText := AssembleContext(hits)
	return RetrievalResult{
		Hits:          hits,
		Context:       contextText,
		Sources:       CollectSources(hits),
		RetrievalMs:   int(time.Since(start) / time.Millisecond),
		ContextTokens: estimateTokens(contextText),
	}, nil
}

// Ask returns a grounded answer and its sources. Zero hits still reach the
// generator with an empty context so it can report that data is missing.
func (a *Asker) Ask(ctx context.Context, question string) (Answer, error) {
	retrieval, err := a.Retrieve(ctx, question)
	if err != nil {
		return Answer{}, err
	}
	logging.LogEvent("[ASK] %d hits, %d sources, %d context tokens in %dms", len(retrieval.Hits), len(retrieval.Sources), retrieval.ContextTokens, retrieval.RetrievalMs)

	text, err := a.generator.Generate(ctx, retrieval.Context, question)
	if err != nil {
		return Answer{}, fmt.Errorf("generate: %w", err)
	}
	return Answer{Answer: text, Sources: retrieval.Sources}, nil
}
