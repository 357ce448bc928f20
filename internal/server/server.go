// Package server exposes ingestion and question answering over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/metrics"
	"github.com/mwiater/docqa/internal/rag"
	"github.com/mwiater/docqa/internal/vectorstore"
)

const (
	defaultMaxUploadBytes = 200_000_000
	maxChatBodyBytes      = 1 << 20
	shutdownTimeout       = 10 * time.Second
)

// Ingester indexes one uploaded document.
type Ingester interface {
	Ingest(ctx context.Context, data []byte, fileName, ext string) (rag.IngestResult, error)
}

// Answerer answers a question from indexed content.
type Answerer interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
}

// Options configures a Server. Metrics may be nil.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	Ingestor       Ingester
	Asker          Answerer
	Store          vectorstore.Store
	Metrics        *metrics.Aggregator
}

// Server routes the HTTP API to the ingestion and query pipelines.
type Server struct {
	addr      string
	maxUpload int64
	ingestor  Ingester
	asker     Answerer
	store     vectorstore.Store
	metrics   *metrics.Aggregator
}

// New validates opts and returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Ingestor == nil || opts.Asker == nil || opts.Store == nil {
		return nil, fmt.Errorf("%w: server requires an ingestor, an asker and a store", rag.ErrInvalidConfig)
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	addr := opts.Addr
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		addr:      addr,
		maxUpload: maxUpload,
		ingestor:  opts.Ingestor,
		asker:     opts.Asker,
		store:     opts.Store,
		metrics:   opts.Metrics,
	}, nil
}

// Handler returns the routed API with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/ingest", s.handleIngest)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/collection", s.handleCollection)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	return withCORS(withRequestLog(mux))
}

// Run ensures the collection exists, then serves until ctx is cancelled and
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("[HTTP] listening on %s", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen on %s: %w", s.addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.LogEvent("[HTTP] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
