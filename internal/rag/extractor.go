package rag

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

var plainTextExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
}

// SupportedExtensions lists the file extensions Extract accepts.
func SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".md"}
}

// NormalizeExtension lower-cases ext and ensures a leading dot. A file name
// is accepted as well; its extension is used.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if strings.Contains(ext, ".") && !strings.HasPrefix(ext, ".") {
		ext = filepath.Ext(ext)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Extract turns a raw file into plain text based on its declared extension.
// data is only read.
func Extract(data []byte, ext string) (string, error) {
	ext = NormalizeExtension(ext)
	switch {
	case ext == ".pdf":
		return extractPDF(data)
	case isPlainText(ext):
		text := string(data)
		return strings.TrimPrefix(text, "\ufeff"), nil
	default:
		if ext == "" {
			ext = "(none)"
		}
		return "", fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
	}
}

// IsSupported reports whether Extract would accept ext.
func IsSupported(ext string) bool {
	ext = NormalizeExtension(ext)
	return ext == ".pdf" || isPlainText(ext)
}

func isPlainText(ext string) bool {
	_, ok := plainTextExtensions[ext]
	return ok
}

// extractPDF concatenates per-page text in page order, one line break
// between pages.
func extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: malformed pdf: %v", ErrExtraction, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrExtraction, err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtraction, i, err)
		}
		pages = append(pages, content)
	}
	return strings.Join(pages, "\n"), nil
}
