package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
)

const fakeDim = 16

// fakeEmbedder hashes words into a fixed-size vector.
type fakeEmbedder struct {
	calls  atomic.Int32
	failOn string
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		if f.err != nil {
			return nil, f.err
		}
		return nil, ErrEmbeddingProvider
	}
	return hashVector(text), nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, fakeDim)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%fakeDim]++
	}
	return vec
}

type fakeStore struct {
	mu       sync.Mutex
	upserts  [][]IndexPoint
	searches int
	hits     []SearchHit
	err      error
}

func (s *fakeStore) EnsureCollection(context.Context) error { return nil }

func (s *fakeStore) Upsert(_ context.Context, points []IndexPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, points)
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ []float32, topK int) ([]SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches++
	if s.err != nil {
		return nil, s.err
	}
	if topK < len(s.hits) {
		return s.hits[:topK], nil
	}
	return s.hits, nil
}

type fakeGenerator struct {
	calls       int
	lastContext string
	lastQ       string
	answer      string
	err         error
}

func (g *fakeGenerator) Generate(_ context.Context, contextText, question string) (string, error) {
	g.calls++
	g.lastContext = contextText
	g.lastQ = question
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

var errBoom = errors.New("boom")

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}
