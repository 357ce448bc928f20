package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/docqa/internal/metrics"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore/memory"
)

type fakeIngester struct {
	calls    int
	fileName string
	ext      string
	data     []byte
	err      error
}

func (f *fakeIngester) Ingest(_ context.Context, data []byte, fileName, ext string) (rag.IngestResult, error) {
	f.calls++
	f.data, f.fileName, f.ext = data, fileName, ext
	if f.err != nil {
		return rag.IngestResult{FileName: fileName}, f.err
	}
	return rag.IngestResult{ChunksCreated: 2, VectorsUpserted: 2, FileName: fileName}, nil
}

type fakeAnswerer struct {
	calls    int
	question string
	err      error
}

func (f *fakeAnswerer) Ask(_ context.Context, question string) (rag.Answer, error) {
	f.calls++
	f.question = question
	if f.err != nil {
		return rag.Answer{}, f.err
	}
	return rag.Answer{Answer: "Refunds take 14 days.", Sources: []string{"refunds.txt"}}, nil
}

func newTestServer(t *testing.T, ing *fakeIngester, ask *fakeAnswerer, maxUpload int64) http.Handler {
	t.Helper()
	store, err := memory.New(rag.CollectionConfig{Name: "test", VectorSize: 2})
	if err != nil {
		t.Fatalf("memory.New: %v", err)
	}
	agg := metrics.NewAggregator()
	agg.Record(metrics.OpEmbed, "fake", time.Millisecond, nil)
	srv, err := New(Options{Ingestor: ing, Asker: ask, Store: store, MaxUploadBytes: maxUpload, Metrics: agg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return srv.Handler()
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write(content)
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	if body.Error == "" {
		t.Fatalf("expected error message, got %q", rec.Body.String())
	}
	return body.Error
}

func TestIngestSuccess(t *testing.T) {
	ing := &fakeIngester{}
	h := newTestServer(t, ing, &fakeAnswerer{}, 0)

	body, ctype := multipartBody(t, "file", "refunds.txt", []byte("Refunds take 14 days."))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res rag.IngestResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ChunksCreated != 2 || res.VectorsUpserted != 2 || res.FileName != "refunds.txt" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if ing.ext != ".txt" || string(ing.data) != "Refunds take 14 days." {
		t.Fatalf("unexpected ingest call: ext=%q data=%q", ing.ext, ing.data)
	}
	if !strings.Contains(rec.Body.String(), `"chunksCreated":2`) {
		t.Fatalf("expected camelCase fields, got %s", rec.Body.String())
	}
}

func TestIngestRejectsBadUploads(t *testing.T) {
	cases := []struct {
		name    string
		field   string
		file    string
		content []byte
	}{
		{"unsupported extension", "file", "policy.docx", []byte("PK")},
		{"no extension", "file", "README", []byte("text")},
		{"wrong field", "document", "refunds.txt", []byte("text")},
		{"empty file", "file", "empty.txt", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ing := &fakeIngester{}
			h := newTestServer(t, ing, &fakeAnswerer{}, 0)
			body, ctype := multipartBody(t, tc.field, tc.file, tc.content)
			req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
			req.Header.Set("Content-Type", ctype)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			decodeError(t, rec)
			if ing.calls != 0 {
				t.Fatalf("ingestor should not be called")
			}
		})
	}
}

func TestIngestNotMultipart(t *testing.T) {
	h := newTestServer(t, &fakeIngester{}, &fakeAnswerer{}, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", strings.NewReader(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestIngestTooLarge(t *testing.T) {
	ing := &fakeIngester{}
	h := newTestServer(t, ing, &fakeAnswerer{}, 1024)
	body, ctype := multipartBody(t, "file", "big.txt", bytes.Repeat([]byte("a "), 4096))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if ing.calls != 0 {
		t.Fatalf("ingestor should not be called")
	}
}

func TestIngestDownstreamFailure(t *testing.T) {
	ing := &fakeIngester{err: fmt.Errorf("embed: %w: quota", rag.ErrEmbeddingProvider)}
	h := newTestServer(t, ing, &fakeAnswerer{}, 0)
	body, ctype := multipartBody(t, "file", "refunds.txt", []byte("text"))
	req := httptest.NewRequest(http.MethodPost, "/api/ingest", body)
	req.Header.Set("Content-Type", ctype)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestChatSuccess(t *testing.T) {
	ask := &fakeAnswerer{}
	h := newTestServer(t, &fakeIngester{}, ask, 0)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"How long do refunds take?"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ans rag.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &ans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ans.Answer != "Refunds take 14 days." || len(ans.Sources) != 1 || ans.Sources[0] != "refunds.txt" {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	if ask.question != "How long do refunds take?" {
		t.Fatalf("unexpected question: %q", ask.question)
	}
}

func TestChatRejectsInvalidBodies(t *testing.T) {
	bodies := []string{
		``,
		`not json`,
		`[]`,
		`{}`,
		`{"question":42}`,
		`{"question":"   "}`,
		`{"question":""}`,
	}
	for _, body := range bodies {
		ask := &fakeAnswerer{}
		h := newTestServer(t, &fakeIngester{}, ask, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
		decodeError(t, rec)
		if ask.calls != 0 {
			t.Fatalf("body %q: asker should not be called", body)
		}
	}
}

func TestChatDownstreamFailures(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("generate: %w", rag.ErrGenerationProvider), http.StatusBadGateway},
		{fmt.Errorf("search: %w", rag.ErrIndexUnavailable), http.StatusBadGateway},
		{fmt.Errorf("embed: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("embed question: %w: openai embeddings: %w", rag.ErrEmbeddingProvider, context.DeadlineExceeded), http.StatusGatewayTimeout},
		{fmt.Errorf("generate: %w: ollama chat: %w", rag.ErrGenerationProvider, errors.Join(errors.New("status 503"), context.DeadlineExceeded)), http.StatusGatewayTimeout},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestServer(t, &fakeIngester{}, &fakeAnswerer{err: tc.err}, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"question":"q"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestCORSAndHealth(t *testing.T) {
	h := newTestServer(t, &fakeIngester{}, &fakeAnswerer{}, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("unexpected preflight response: %d %v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected health response: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("CORS header missing on normal responses")
	}
}

func TestCollectionAndMetricsEndpoints(t *testing.T) {
	h := newTestServer(t, &fakeIngester{}, &fakeAnswerer{}, 0)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/collection", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"name":"test"`) {
		t.Fatalf("unexpected collection response: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	var snap []metrics.OperationStats
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode metrics: %v", err)
	}
	if len(snap) != 1 || snap[0].Operation != metrics.OpEmbed {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestRunServesAndShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	store, _ := memory.New(rag.CollectionConfig{Name: "run", VectorSize: 2})
	srv, err := New(Options{Addr: addr, Ingestor: &fakeIngester{}, Asker: &fakeAnswerer{}, Store: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://" + addr + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	info, _ := store.Info(context.Background())
	if !info.Exists {
		t.Fatalf("Run should ensure the collection")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, rag.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}
