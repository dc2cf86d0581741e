// Package models defines the binder document model, log entries, and search structures.
package models

import (
	"fmt"
	"time"
)

// CurrentBindersVersion is the document format written by this service.
const CurrentBindersVersion = "0.4.0"

// Module types as they appear in ModuleMeta.Type.
const (
	ModuleTypeText   = "text"
	ModuleTypeImages = "images"
)

// Binder is an immutable snapshot of a multi-language, multi-module document.
// Snapshots are never changed in place; the patching engine returns a new value.
type Binder struct {
	ID             string     `json:"id"`
	BindersVersion string     `json:"bindersVersion"`
	Languages      []Language `json:"languages"`
	Modules        Modules    `json:"modules"`
	Log            []LogEntry `json:"log,omitempty"`
}

// Language holds per-language metadata and the module keys that carry its content.
type Language struct {
	ISO639_1   string   `json:"iso639_1"`
	Title      string   `json:"storyTitle"`
	ModuleKeys []string `json:"modules"`
	Priority   int      `json:"priority"`
}

// Modules groups module metadata and the chunk-aligned text and images modules.
type Modules struct {
	Meta   []ModuleMeta `json:"meta"`
	Text   TextModules  `json:"text"`
	Images ImageModules `json:"images"`
}

// ModuleMeta describes one module. LastModifiedDate is bumped by timestamp patches.
type ModuleMeta struct {
	Key              string    `json:"key"`
	Type             string    `json:"type"`
	Format           string    `json:"format,omitempty"`
	Markup           string    `json:"markup,omitempty"`
	IsDeleted        bool      `json:"isDeleted,omitempty"`
	LastModifiedDate time.Time `json:"lastModifiedDate,omitzero"`
}

// TextModules holds all chunked rich-text modules.
type TextModules struct {
	Chunked []TextModule `json:"chunked"`
}

// ImageModules holds all chunked visual modules.
type ImageModules struct {
	Chunked []ImagesModule `json:"chunked"`
}

// Visual is one image attached to a chunk.
type Visual struct {
	URL          string `json:"url"`
	FitBehaviour string `json:"fitBehaviour"`
	BgColor      string `json:"bgColor"`
}

// ChunkCount returns the size of the aligned chunk space. Modules are expected to agree
// (see Validate); the first module found wins.
func (b *Binder) ChunkCount() int {
	if len(b.Modules.Text.Chunked) > 0 {
		return len(b.Modules.Text.Chunked[0].Chunks)
	}
	if len(b.Modules.Images.Chunked) > 0 {
		return len(b.Modules.Images.Chunked[0].Chunks)
	}
	return 0
}

// Title returns the title of the highest priority language, or "" when there are none.
func (b *Binder) Title() string {
	best := -1
	for i, l := range b.Languages {
		if best < 0 || l.Priority < b.Languages[best].Priority {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return b.Languages[best].Title
}

// MetaIndex returns the index of the meta entry for key.
func (b *Binder) MetaIndex(key string) (int, error) {
	for i, m := range b.Modules.Meta {
		if m.Key == key {
			return i, nil
		}
	}
	return -1, &ModuleNotFoundError{Key: key}
}

// Validate checks the structural invariants: language module keys resolve, editor
// states parallel the text chunks, and every chunk-aligned module has the same length.
func (b *Binder) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("binder id is required")
	}
	for _, l := range b.Languages {
		for _, key := range l.ModuleKeys {
			if _, err := b.Module(key); err != nil {
				return fmt.Errorf("language %s: %w", l.ISO639_1, err)
			}
		}
	}
	want := b.ChunkCount()
	for _, m := range b.Modules.Text.Chunked {
		if len(m.EditorStates) != len(m.Chunks) {
			return fmt.Errorf("text module %s: %d editor states for %d chunks", m.ModuleKey, len(m.EditorStates), len(m.Chunks))
		}
		if len(m.Chunks) != want {
			return fmt.Errorf("text module %s: %d chunks, want %d", m.ModuleKey, len(m.Chunks), want)
		}
	}
	for _, m := range b.Modules.Images.Chunked {
		if len(m.Chunks) != want {
			return fmt.Errorf("images module %s: %d chunks, want %d", m.ModuleKey, len(m.Chunks), want)
		}
	}
	return nil
}

// Clone returns a deep copy. The patching engine works on clones so that the
// original snapshot stays untouched.
func (b *Binder) Clone() *Binder {
	if b == nil {
		return nil
	}
	out := &Binder{
		ID:             b.ID,
		BindersVersion: b.BindersVersion,
	}
	if b.Languages != nil {
		out.Languages = make([]Language, len(b.Languages))
		for i, l := range b.Languages {
			l.ModuleKeys = cloneStrings(l.ModuleKeys)
			out.Languages[i] = l
		}
	}
	if b.Modules.Meta != nil {
		out.Modules.Meta = append([]ModuleMeta(nil), b.Modules.Meta...)
	}
	if b.Modules.Text.Chunked != nil {
		out.Modules.Text.Chunked = make([]TextModule, len(b.Modules.Text.Chunked))
		for i, m := range b.Modules.Text.Chunked {
			out.Modules.Text.Chunked[i] = m.clone()
		}
	}
	if b.Modules.Images.Chunked != nil {
		out.Modules.Images.Chunked = make([]ImagesModule, len(b.Modules.Images.Chunked))
		for i, m := range b.Modules.Images.Chunked {
			out.Modules.Images.Chunked[i] = m.clone()
		}
	}
	if b.Log != nil {
		out.Log = make([]LogEntry, len(b.Log))
		for i, e := range b.Log {
			out.Log[i] = e.clone()
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
