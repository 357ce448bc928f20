// Package memory is an in-process brute-force vector store for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore"
)

// Store keeps points in insertion order. Re-upserting an id replaces the
// point in place.
type Store struct {
	mu         sync.RWMutex
	collection rag.CollectionConfig
	created    bool
	points     []rag.IndexPoint
	byID       map[string]int
	score      func(a, b []float32) float64
}

// New returns an empty store. Euclid and Manhattan scores are negated
// distances so that higher is always more relevant.
func New(collection rag.CollectionConfig) (*Store, error) {
	if collection.VectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be greater than zero", rag.ErrInvalidConfig)
	}
	var score func(a, b []float32) float64
	switch collection.Distance {
	case "", "Cosine":
		collection.Distance = "Cosine"
		score = cosine
	case "Dot":
		score = dot
	case "Euclid":
		score = func(a, b []float32) float64 { return -euclid(a, b) }
	case "Manhattan":
		score = func(a, b []float32) float64 { return -manhattan(a, b) }
	default:
		return nil, fmt.Errorf("%w: unsupported distance %q", rag.ErrInvalidConfig, collection.Distance)
	}
	return &Store{
		collection: collection,
		byID:       make(map[string]int),
		score:      score,
	}, nil
}

func (s *Store) Name() string { return "memory" }

func (s *Store) EnsureCollection(context.Context) error {
	s.mu.Lock()
	s.created = true
	s.mu.Unlock()
	return nil
}

// Upsert validates the whole batch before taking the write lock, so a bad
// batch changes nothing.
func (s *Store) Upsert(ctx context.Context, points []rag.IndexPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := vectorstore.ValidatePoints(points, s.collection.VectorSize); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	for _, p := range points {
		p.Vector = append([]float32(nil), p.Vector...)
		if idx, ok := s.byID[p.ID]; ok {
			s.points[idx] = p
			continue
		}
		s.byID[p.ID] = len(s.points)
		s.points = append(s.points, p)
	}
	return nil
}

// Search scores every point. Ties keep insertion order.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be greater than zero, got %d", rag.ErrInvalidConfig, topK)
	}
	if len(vector) != s.collection.VectorSize {
		return nil, fmt.Errorf("%w: query vector has %d values, collection expects %d", rag.ErrDimensionMismatch, len(vector), s.collection.VectorSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	hits := make([]rag.SearchHit, len(s.points))
	for i, p := range s.points {
		hits[i] = rag.SearchHit{
			ID:     p.ID,
			Text:   p.Payload.Text,
			Source: p.Payload.Source,
			Score:  s.score(vector, p.Vector),
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (s *Store) Info(context.Context) (vectorstore.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return vectorstore.CollectionInfo{
		Name:       s.collection.Name,
		VectorSize: s.collection.VectorSize,
		Distance:   s.collection.Distance,
		Points:     len(s.points),
		Status:     "green",
		Exists:     s.created,
	}, nil
}

func (s *Store) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = nil
	s.byID = make(map[string]int)
	s.created = false
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func cosine(a, b []float32) float64 {
	var na, nb float64
	for i := range a {
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
}

func euclid(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func manhattan(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum
}
