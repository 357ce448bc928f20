// internal/providers/provider.go

// Package providers defines the embedding and generation interfaces shared by
// the model backends, together with the grounding prompt both backends send.
package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// GroundingSystemPrompt is sent as the system message on every generation call.
const GroundingSystemPrompt = "You are a helpful assistant that answers using only the provided CONTEXT. If the answer is not in the context, say you don't have enough data."

// Embedder maps text to a vector of Dimension() floats.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	Name() string
}

// Generator produces an answer constrained to the supplied context.
type Generator interface {
	Generate(ctx context.Context, contextText, question string) (string, error)
	Name() string
}

// BuildPrompt renders the user message. An empty context is sent as is.
func BuildPrompt(contextText, question string) string {
	return fmt.Sprintf("CONTEXT:\n%s\n\nQUESTION: %s\n\nINSTRUCTIONS: Answer using only the CONTEXT above. If context is insufficient, say 'Not enough data.'", contextText, question)
}

// StatusError carries a non-2xx HTTP status from a backend.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}

// Retryable reports whether a failure is worth another attempt: rate limits,
// server errors and transport failures.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Code == 429 || status.Code >= 500
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryDelay is the backoff before attempt+1: 200ms doubled per attempt,
// capped at 5s.
func RetryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 5 {
		return 5 * time.Second
	}
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

// Do runs fn up to maxRetries+1 times while retryable(err) holds, sleeping
// RetryDelay between attempts. It stops early when ctx is done.
func Do(ctx context.Context, maxRetries int, retryable func(error) bool, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn(ctx)
		if err == nil || attempt == maxRetries || !retryable(err) {
			return err
		}
		timer := time.NewTimer(RetryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
	return err
}

// Truncate shortens backend error bodies for messages and logs.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
