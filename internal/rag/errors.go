package rag

import "errors"

// Validation failures. Callers surface these as client errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyUpload       = errors.New("empty upload")
	ErrInvalidQuestion   = errors.New("question is required")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// Downstream failures. Callers surface these as request failures.
var (
	ErrExtraction         = errors.New("text extraction failed")
	ErrEmbeddingProvider  = errors.New("embedding provider error")
	ErrGenerationProvider = errors.New("generation provider error")
	ErrIndexUnavailable   = errors.New("vector index unavailable")
	ErrDimensionMismatch  = errors.New("vector dimension mismatch")
)

// IsValidation reports whether err was caused by bad caller input or configuration
// rather than by a downstream service.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, ErrInvalidQuestion)
}
