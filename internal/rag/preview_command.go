package rag

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// RunPreviewCommand retrieves context for the query and prints what the
// generator would receive, without calling it.
func RunPreviewCommand(ctx context.Context, asker *Asker, out io.Writer, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return ErrInvalidQuestion
	}
	if asker == nil {
		return fmt.Errorf("%w: asker is nil", ErrInvalidConfig)
	}

	status := func(format string, args ...any) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	status("[RAG] Preview query: %s", query)
	status("[RAG] topK: %d", asker.topK)

	result, err := asker.Retrieve(ctx, query)
	if err != nil {
		return err
	}

	status("[RAG] retrieval_ms: %d", result.RetrievalMs)
	status("[RAG] context_tokens: %d", result.ContextTokens)
	status("[RAG] sources: %s", strings.Join(result.Sources, ", "))
	status("[RAG] hits: %d", len(result.Hits))

	for i, hit := range result.Hits {
		status("[RAG] hit %d score=%.6f source=%s id=%s", i+1, hit.Score, hit.Source, hit.ID)
		status("[RAG] hit %d text: %s", i+1, hit.Text)
	}

	if result.Context != "" {
		status("[RAG] context:\n%s", strings.TrimRight(result.Context, "\n"))
	}
	return nil
}
