package models

import (
	"errors"
	"testing"
)

func TestBinder_Module(t *testing.T) {
	b := NewBinder("b1", "en", "Manual", []string{"a"}, []string{"b"})

	m, err := b.Module(DefaultTextModuleKey)
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind() != KindText || m.ChunkCount() != 2 {
		t.Errorf("text module: kind=%s chunks=%d", m.Kind(), m.ChunkCount())
	}
	if _, ok := m.(*TextModule); !ok {
		t.Errorf("expected *TextModule, got %T", m)
	}

	m, err = b.Module(DefaultImagesModuleKey)
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind() != KindImages {
		t.Errorf("images module kind = %s", m.Kind())
	}

	_, err = b.Module("missing")
	var notFound *ModuleNotFoundError
	if !errors.As(err, &notFound) || notFound.Key != "missing" {
		t.Fatalf("expected ModuleNotFoundError for missing, got %v", err)
	}
	if !errors.Is(err, ErrModuleNotFound) {
		t.Error("errors.Is(err, ErrModuleNotFound) should hold")
	}
}

func TestBinder_Validate(t *testing.T) {
	b := NewBinder("b1", "en", "Manual", []string{"a"}, []string{"b"})
	if err := b.Validate(); err != nil {
		t.Fatalf("valid binder: %v", err)
	}

	missingKey := b.Clone()
	missingKey.Languages[0].ModuleKeys = append(missingKey.Languages[0].ModuleKeys, "t9")
	if err := missingKey.Validate(); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("unresolved language module key: got %v", err)
	}

	misaligned := b.Clone()
	misaligned.Modules.Images.Chunked[0].Chunks = misaligned.Modules.Images.Chunked[0].Chunks[:1]
	if err := misaligned.Validate(); err == nil {
		t.Error("expected error for misaligned images module")
	}

	states := b.Clone()
	states.Modules.Text.Chunked[0].EditorStates = nil
	if err := states.Validate(); err == nil {
		t.Error("expected error for missing editor states")
	}

	noID := b.Clone()
	noID.ID = ""
	if err := noID.Validate(); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestBinder_CloneIsDeep(t *testing.T) {
	b := NewBinder("b1", "en", "Manual", []string{"a", "b"})
	b.Log = []LogEntry{{Version: 1, Kind: "inject-chunk", ChunkIndices: []int{0}}}
	c := b.Clone()

	c.Modules.Text.Chunked[0].Chunks[0][0] = "changed"
	c.Languages[0].ModuleKeys[0] = "x"
	c.Log[0].ChunkIndices[0] = 9
	c.Modules.Meta[0].Key = "m"

	if b.Modules.Text.Chunked[0].Chunks[0][0] != "a" {
		t.Error("clone shares paragraph storage")
	}
	if b.Languages[0].ModuleKeys[0] != DefaultTextModuleKey {
		t.Error("clone shares language module keys")
	}
	if b.Log[0].ChunkIndices[0] != 0 {
		t.Error("clone shares log chunk indices")
	}
	if b.Modules.Meta[0].Key != DefaultTextModuleKey {
		t.Error("clone shares module meta")
	}
}

func TestBinder_TitleAndLog(t *testing.T) {
	b := NewBinder("b1", "en", "English", []string{"a"})
	b.Languages = append(b.Languages, Language{ISO639_1: "nl", Title: "Nederlands", Priority: -1})
	if got := b.Title(); got != "Nederlands" {
		t.Errorf("Title() = %q, want highest priority language", got)
	}
	if b.LastLogVersion() != 0 {
		t.Errorf("empty log version = %d", b.LastLogVersion())
	}
	b.Log = []LogEntry{{Version: 3}, {Version: 7}, {Version: 5}}
	if b.LastLogVersion() != 7 {
		t.Errorf("LastLogVersion() = %d, want 7", b.LastLogVersion())
	}
	log := b.CurrentLog()
	log[0].Version = 100
	if b.Log[0].Version != 3 {
		t.Error("CurrentLog must return a copy")
	}
}

func TestBinderRecord_Summary(t *testing.T) {
	r := &BinderRecord{Binder: NewBinder("b1", "en", "Manual", []string{"a"}, []string{"b"}), Revision: 4}
	s := r.Summary()
	if s.ID != "b1" || s.Title != "Manual" || s.Chunks != 2 || s.Revision != 4 || s.BindersVersion != CurrentBindersVersion {
		t.Errorf("Summary() = %+v", s)
	}
}
