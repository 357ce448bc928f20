package rag

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxWords is the chunk budget used when none is configured.
const DefaultMaxWords = 350

// ChunkText splits text into consecutive chunks of at most maxWords words
// delimited by runs of space, tab, newline or carriage return. Word counts
// stand in for tokens, and the original spacing is not preserved: words are
// rejoined with single spaces.
func ChunkText(text, source string, maxWords int) ([]Chunk, error) {
	if maxWords <= 0 {
		return nil, fmt.Errorf("%w: maxWords must be greater than zero, got %d", ErrInvalidConfig, maxWords)
	}

	words := strings.FieldsFunc(text, isWordSeparator)
	if len(words) == 0 {
		return nil, nil
	}

	chunks := make([]Chunk, 0, (len(words)+maxWords-1)/maxWords)
	for start := 0; start < len(words); start += maxWords {
		end := min(start+maxWords, len(words))
		chunks = append(chunks, Chunk{
			ID:     uuid.NewString(),
			Text:   strings.Join(words[start:end], " "),
			Source: source,
			Index:  len(chunks),
		})
	}
	return chunks, nil
}

// isWordSeparator matches only ASCII space, tab, CR and LF. Other Unicode
// spaces such as NBSP stay inside a word.
func isWordSeparator(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
