package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mwiater/docqa/internal/logging"
	"github.com/mwiater/docqa/internal/metrics"
	"github.com/mwiater/docqa/internal/rag"
)

// multipartMemory is how much of an upload is buffered in memory before the
// rest spills to temporary files.
const multipartMemory = 32 << 20

var chatSchema = gojsonschema.NewGoLoader(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"question": map[string]any{"type": "string"},
	},
	"required": []string{"question"},
})

type chatRequest struct {
	Question string `json:"question"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	fileName := filepath.Base(header.Filename)
	ext := rag.NormalizeExtension(fileName)
	if !rag.IsSupported(ext) {
		writeErr(w, fmt.Errorf("%w: %q (supported: %s)", rag.ErrUnsupportedFormat, ext, strings.Join(rag.SupportedExtensions(), ", ")))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}
	if len(data) == 0 {
		writeErr(w, fmt.Errorf("%w: %s", rag.ErrEmptyUpload, fileName))
		return
	}

	result, err := s.ingestor.Ingest(r.Context(), data, fileName, ext)
	if err != nil {
		logging.LogError("[INGEST] %s: %v", fileName, err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxChatBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	if err := validateChatBody(body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeErr(w, rag.ErrInvalidQuestion)
		return
	}

	answer, err := s.asker.Ask(r.Context(), req.Question)
	if err != nil {
		logging.LogError("[CHAT] %v", err)
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.Info(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.metrics.Snapshot()
	if snapshot == nil {
		snapshot = []metrics.OperationStats{}
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// validateChatBody checks the body against the chat request schema.
func validateChatBody(body []byte) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return errors.New("request body is required")
	}
	if !json.Valid(body) {
		return errors.New("invalid JSON body")
	}
	result, err := gojsonschema.Validate(chatSchema, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("invalid request: %s", strings.Join(errs, ", "))
}
