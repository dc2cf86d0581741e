package search

import (
	"strings"

	"github.com/hyperjump/binders/internal/models"
)

// Highlight truncates content to maxLen runes, adding an ellipsis when cut.
func Highlight(content string, maxLen int) string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}

// Snippet returns the first paragraph that contains a query term, or the first
// non-empty paragraph, truncated to maxLen.
func Snippet(b *models.Binder, query string, maxLen int) string {
	terms := strings.Fields(strings.ToLower(query))
	first := ""
	for _, m := range b.Modules.Text.Chunked {
		for _, chunk := range m.Chunks {
			for _, p := range chunk {
				if p == "" {
					continue
				}
				if first == "" {
					first = p
				}
				lower := strings.ToLower(p)
				for _, t := range terms {
					if strings.Contains(lower, t) {
						return Highlight(p, maxLen)
					}
				}
			}
		}
	}
	return Highlight(first, maxLen)
}
