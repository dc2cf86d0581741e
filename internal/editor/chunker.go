package editor

import (
	"context"
	"strings"
	"unicode"

	"github.com/hyperjump/binders/internal/models"
)

// Chunker splits plain text into binder chunks. Paragraphs are separated by blank
// lines and are never split; consecutive paragraphs share a chunk while the chunk
// stays within maxWords.
type Chunker struct {
	maxWords int
}

// NewChunker creates a chunker. maxWords <= 0 puts each paragraph in its own chunk.
func NewChunker(maxWords int) *Chunker {
	return &Chunker{maxWords: maxWords}
}

// Chunk returns the chunks of text, each a list of paragraphs.
func (c *Chunker) Chunk(text string) [][]string {
	var chunks [][]string
	var current []string
	words := 0
	for _, para := range Paragraphs(text) {
		n := len(strings.Fields(para))
		if len(current) > 0 && (c.maxWords <= 0 || words+n > c.maxWords) {
			chunks = append(chunks, current)
			current, words = nil, 0
		}
		current = append(current, para)
		words += n
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// Paragraphs splits text at blank lines and normalizes whitespace inside each
// paragraph. Empty paragraphs are dropped.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		if p := Preprocess(block); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Preprocess trims text and collapses runs of whitespace to one space.
func Preprocess(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// CreateFromText stores a new binder whose chunks are cut from plain text with the
// configured chunk_words limit.
func (s *Service) CreateFromText(ctx context.Context, id, languageCode, title, text string) (*models.BinderRecord, error) {
	chunks := NewChunker(s.config.ChunkWords).Chunk(text)
	return s.Create(ctx, id, languageCode, title, chunks...)
}
