// Package qdrant is a minimal REST client for a single Qdrant collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore"
)

const maxErrorBody = 300

// Config configures a Store.
type Config struct {
	URL        string
	APIKey     string
	Collection rag.CollectionConfig
	Timeout    time.Duration
}

// Store talks to Qdrant over its REST API.
type Store struct {
	url        string
	apiKey     string
	collection rag.CollectionConfig
	client     *http.Client
}

// New validates cfg and returns a Store. No request is made.
func New(cfg Config) (*Store, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, fmt.Errorf("%w: qdrant url is required", rag.ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Collection.Name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", rag.ErrInvalidConfig)
	}
	if cfg.Collection.VectorSize <= 0 {
		return nil, fmt.Errorf("%w: vector size must be greater than zero", rag.ErrInvalidConfig)
	}
	if cfg.Collection.Distance == "" {
		cfg.Collection.Distance = "Cosine"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        base,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}, nil
}

func (s *Store) Name() string { return "qdrant" }

func (s *Store) collectionURL() string {
	return s.url + "/collections/" + url.PathEscape(s.collection.Name)
}

// EnsureCollection creates the collection when it does not exist. A 409 from
// the create call means another process won the race and is accepted.
func (s *Store) EnsureCollection(ctx context.Context) error {
	status, _, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return err
	}
	if status >= 200 && status < 300 {
		return nil
	}
	if status != http.StatusNotFound {
		return s.statusError("check collection", status, nil)
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     s.collection.VectorSize,
			"distance": s.collection.Distance,
		},
	}
	status, respBody, err := s.do(ctx, http.MethodPut, s.collectionURL(), body)
	if err != nil {
		return err
	}
	switch {
	case status >= 200 && status < 300:
		logging.LogEvent("[QDRANT] created collection %s (size=%d, distance=%s)", s.collection.Name, s.collection.VectorSize, s.collection.Distance)
		return nil
	case status == http.StatusConflict:
		return nil
	default:
		return s.statusError("create collection", status, respBody)
	}
}

type pointBody struct {
	ID      string           `json:"id"`
	Vector  []float32        `json:"vector"`
	Payload rag.PointPayload `json:"payload"`
}

// Upsert writes points in one request and waits for them to be applied.
func (s *Store) Upsert(ctx context.Context, points []rag.IndexPoint) error {
	if len(points) == 0 {
		return nil
	}
	if err := vectorstore.ValidatePoints(points, s.collection.VectorSize); err != nil {
		return err
	}
	body := struct {
		Points []pointBody `json:"points"`
	}{Points: make([]pointBody, len(points))}
	for i, p := range points {
		body.Points[i] = pointBody{ID: p.ID, Vector: p.Vector, Payload: p.Payload}
	}

	status, respBody, err := s.do(ctx, http.MethodPut, s.collectionURL()+"/points?wait=true", body)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return s.statusError("upsert points", status, respBody)
	}
	return nil
}

type searchResponse struct {
	Result []struct {
		ID      json.RawMessage `json:"id"`
		Score   float64         `json:"score"`
		Payload struct {
			Text   string `json:"text"`
			Source string `json:"source"`
		} `json:"payload"`
	} `json:"result"`
}

// Search returns up to topK hits in descending score order.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]rag.SearchHit, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: topK must be greater than zero, got %d", rag.ErrInvalidConfig, topK)
	}
	if len(vector) != s.collection.VectorSize {
		return nil, fmt.Errorf("%w: query vector has %d values, collection expects %d", rag.ErrDimensionMismatch, len(vector), s.collection.VectorSize)
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	status, respBody, err := s.do(ctx, http.MethodPost, s.collectionURL()+"/points/search", body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, s.statusError("search", status, respBody)
	}

	var resp searchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %v", rag.ErrIndexUnavailable, err)
	}
	hits := make([]rag.SearchHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		hits = append(hits, rag.SearchHit{
			ID:     pointID(r.ID),
			Text:   r.Payload.Text,
			Score:  r.Score,
			Source: r.Payload.Source,
		})
	}
	return hits, nil
}

type collectionResponse struct {
	Result struct {
		Status      string `json:"status"`
		PointsCount *int   `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// Info reads the collection's configuration and point count.
func (s *Store) Info(ctx context.Context) (vectorstore.CollectionInfo, error) {
	info := vectorstore.CollectionInfo{Name: s.collection.Name}
	status, respBody, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return info, err
	}
	if status == http.StatusNotFound {
		return info, nil
	}
	if status < 200 || status > 299 {
		return info, s.statusError("collection info", status, respBody)
	}
	var resp collectionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return info, fmt.Errorf("%w: decode collection info: %v", rag.ErrIndexUnavailable, err)
	}
	info.Exists = true
	info.Status = resp.Result.Status
	info.VectorSize = resp.Result.Config.Params.Vectors.Size
	info.Distance = resp.Result.Config.Params.Vectors.Distance
	if resp.Result.PointsCount != nil {
		info.Points = *resp.Result.PointsCount
	}
	return info, nil
}

// Drop deletes the collection.
func (s *Store) Drop(ctx context.Context) error {
	status, respBody, err := s.do(ctx, http.MethodDelete, s.collectionURL(), nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound || (status >= 200 && status < 300) {
		return nil
	}
	return s.statusError("drop collection", status, respBody)
}

// do sends an optional JSON body and returns the status and full response
// body. Transport failures are reported as ErrIndexUnavailable.
func (s *Store) do(ctx context.Context, method, endpoint string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", rag.ErrIndexUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	logging.LogRequest("DOCQA->QDRANT", s.url, s.collection.Name, method+" "+endpoint)

	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, fmt.Errorf("%w: %w", rag.ErrIndexUnavailable, ctxErr)
		}
		return 0, nil, fmt.Errorf("%w: %s %s: %v", rag.ErrIndexUnavailable, method, endpoint, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: read response: %v", rag.ErrIndexUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}

func (s *Store) statusError(op string, status int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody] + "..."
	}
	if snippet == "" {
		return fmt.Errorf("%w: %s on %s: status %d", rag.ErrIndexUnavailable, op, s.collection.Name, status)
	}
	return fmt.Errorf("%w: %s on %s: status %d: %s", rag.ErrIndexUnavailable, op, s.collection.Name, status, snippet)
}

// pointID normalizes Qdrant's string or integer ids to a string.
func pointID(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatUint(n, 10)
	}
	return strings.Trim(string(raw), `"`)
}
