package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mwiater/docqa/internal/logging"
)

// DefaultEmbedConcurrency bounds in-flight embedding calls per ingestion.
const DefaultEmbedConcurrency = 4

// Ingestor runs extract -> chunk -> embed -> upsert for a single document.
type Ingestor struct {
	embedder    Embedder
	store       VectorStore
	maxWords    int
	concurrency int
}

// IngestorOption customizes an Ingestor.
type IngestorOption func(*Ingestor)

// WithMaxWords sets the per-chunk word budget.
func WithMaxWords(n int) IngestorOption {
	return func(i *Ingestor) { i.maxWords = n }
}

// WithConcurrency sets how many chunks are embedded at once. 1 embeds
// sequentially in chunk order.
func WithConcurrency(n int) IngestorOption {
	return func(i *Ingestor) { i.concurrency = n }
}

// NewIngestor wires an Ingestor. Invalid budgets are rejected here rather than
// on the first request.
func NewIngestor(embedder Embedder, store VectorStore, opts ...IngestorOption) (*Ingestor, error) {
	if embedder == nil || store == nil {
		return nil, fmt.Errorf("%w: ingestor requires an embedder and a vector store", ErrInvalidConfig)
	}
	ing := &Ingestor{
		embedder:    embedder,
		store:       store,
		maxWords:    DefaultMaxWords,
		concurrency: DefaultEmbedConcurrency,
	}
	for _, opt := range opts {
		opt(ing)
	}
	if ing.maxWords <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be greater than zero", ErrInvalidConfig)
	}
	if ing.concurrency <= 0 {
		return nil, fmt.Errorf("%w: embed concurrency must be greater than zero", ErrInvalidConfig)
	}
	return ing, nil
}

// Ingest indexes one document. Either every chunk is embedded and upserted in
// a single batch, or nothing is written.
func (i *Ingestor) Ingest(ctx context.Context, data []byte, fileName, ext string) (IngestResult, error) {
	result := IngestResult{FileName: fileName}
	if len(data) == 0 {
		return result, fmt.Errorf("%w: %s", ErrEmptyUpload, fileName)
	}
	if strings.TrimSpace(ext) == "" {
		ext = fileName
	}

	start := time.Now()
	status := func(format string, args ...any) {
		elapsed := time.Since(start).Truncate(time.Millisecond)
		logging.LogEvent("[%s] %s", elapsed, fmt.Sprintf(format, args...))
	}

	text, err := Extract(data, ext)
	if err != nil {
		return result, err
	}

	chunks, err := ChunkText(text, fileName, i.maxWords)
	if err != nil {
		return result, err
	}
	status("[INGEST] Chunked %s into %d chunks (max %d words)", fileName, len(chunks), i.maxWords)
	if len(chunks) == 0 {
		status("[INGEST] Nothing to index for %s", fileName)
		return result, nil
	}

	vectors, err := i.embedAll(ctx, chunks)
	if err != nil {
		return result, fmt.Errorf("embed %s: %w", fileName, err)
	}
	status("[INGEST] Embedded %d chunks of %s", len(vectors), fileName)

	points := make([]IndexPoint, len(chunks))
	for idx, c := range chunks {
		points[idx] = NewIndexPoint(c, vectors[idx])
	}
	if err := i.store.Upsert(ctx, points); err != nil {
		return result, fmt.Errorf("upsert %s: %w", fileName, err)
	}
	status("[INGEST] Upserted %d points for %s", len(points), fileName)

	result.ChunksCreated = len(chunks)
	result.VectorsUpserted = len(points)
	return result, nil
}

// embedAll embeds every chunk with bounded concurrency. Vectors are stored by
// chunk index, so completion order is irrelevant. The first failure cancels
// the remaining calls.
func (i *Ingestor) embedAll(ctx context.Context, chunks []Chunk) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.concurrency)
	for idx := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vec, err := i.embedder.Embed(gctx, chunks[idx].Text)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			vectors[idx] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return vectors, nil
}
