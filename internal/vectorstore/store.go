// Package vectorstore defines the vector index contract shared by the Qdrant
// and in-memory backends.
package vectorstore

import (
	"context"

	"github.com/mwiater/docqa/internal/rag"
)

// Store is the index used by ingestion and query. It satisfies rag.VectorStore.
type Store interface {
	rag.VectorStore
	// Info reports the collection's shape and point count.
	Info(ctx context.Context) (CollectionInfo, error)
	// Drop deletes the collection and all points. Missing collections are not an error.
	Drop(ctx context.Context) error
	Name() string
}

// CollectionInfo describes a collection as seen by the backend.
type CollectionInfo struct {
	Name       string `json:"name"`
	VectorSize int    `json:"vectorSize"`
	Distance   string `json:"distance"`
	Points     int    `json:"points"`
	Status     string `json:"status,omitempty"`
	Exists     bool   `json:"exists"`
}

// ValidatePoints checks every point before anything is written so a bad
// batch writes nothing.
func ValidatePoints(points []rag.IndexPoint, dimension int) error {
	for _, p := range points {
		if err := p.Validate(dimension); err != nil {
			return err
		}
	}
	return nil
}
