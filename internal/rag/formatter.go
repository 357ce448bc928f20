package rag

import "strings"

// AssembleContext renders hits as one "- text" bullet per line, in the order
// given. No hits yields an empty context.
func AssembleContext(hits []SearchHit) string {
	if len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	for _, hit := range hits {
		b.WriteString("- ")
		b.WriteString(hit.Text)
		b.WriteString("\n")
	}
	return b.String()
}

// CollectSources returns the distinct non-blank sources of hits in
// first-occurrence order.
func CollectSources(hits []SearchHit) []string {
	sources := make([]string, 0, len(hits))
	seen := make(map[string]struct{}, len(hits))
	for _, hit := range hits {
		src := hit.Source
		if strings.TrimSpace(src) == "" {
			continue
		}
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		sources = append(sources, src)
	}
	return sources
}

// estimateTokens approximates token usage by word count.
func estimateTokens(text string) int {
	return len(strings.Fields(text))
}
