package rag

import (
	"fmt"
	"strings"
)

// Chunk is a bounded, source-tagged segment of a document and the unit that
// gets embedded and indexed.
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Index  int    `json:"index"`
}

// PointPayload is stored alongside each vector in the index.
type PointPayload struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// IndexPoint is a single (id, vector, payload) record written to the index.
type IndexPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload PointPayload `json:"payload"`
}

// Validate checks the point against the collection dimension.
func (p IndexPoint) Validate(dimension int) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("point has empty id")
	}
	if strings.TrimSpace(p.Payload.Text) == "" {
		return fmt.Errorf("point %s has empty text", p.ID)
	}
	if len(p.Vector) != dimension {
		return fmt.Errorf("%w: point %s has %d values, collection expects %d", ErrDimensionMismatch, p.ID, len(p.Vector), dimension)
	}
	return nil
}

// NewIndexPoint binds a chunk to its embedding.
func NewIndexPoint(c Chunk, vector []float32) IndexPoint {
	return IndexPoint{
		ID:      c.ID,
		Vector:  vector,
		Payload: PointPayload{Text: c.Text, Source: c.Source},
	}
}

// SearchHit is a retrieved point. Score is a provider-defined similarity,
// higher is more relevant.
type SearchHit struct {
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// CollectionConfig describes the index collection.
type CollectionConfig struct {
	Name       string
	VectorSize int
	Distance   string
}

// IngestResult summarizes one ingestion.
type IngestResult struct {
	ChunksCreated   int    `json:"chunksCreated"`
	VectorsUpserted int    `json:"vectorsUpserted"`
	FileName        string `json:"fileName"`
}

// Answer is a grounded answer plus the distinct sources it was built from.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}
