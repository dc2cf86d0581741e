package patching

import (
	"errors"
	"fmt"

	"github.com/hyperjump/binders/internal/models"
)

// Producer computes the patches to apply from the current snapshot. It must be pure
// for Update to be deterministic.
type Producer func(current *models.Binder) ([]Patch, error)

// Patches returns a producer that ignores the snapshot and yields ps.
func Patches(ps ...Patch) Producer {
	return func(*models.Binder) ([]Patch, error) {
		return ps, nil
	}
}

// Update applies the patches produced for b, in order, and returns a new snapshot.
// b is never modified. With trackChanges, each top-level patch that did not append to
// the log itself gets one log entry; without it the log is left as it was, log-update
// patches included. The first failing patch aborts the update and its error is
// returned unchanged.
func Update(b *models.Binder, producer Producer, trackChanges bool) (*models.Binder, error) {
	if b == nil {
		return nil, errors.New("update: nil binder")
	}
	if producer == nil {
		return nil, errors.New("update: nil patch producer")
	}
	patches, err := producer(b)
	if err != nil {
		return nil, err
	}
	working := b.Clone()
	a := &applier{b: working, rec: NewRecorder(working.Log), track: trackChanges}
	for _, p := range patches {
		before := a.rec.Len()
		if err := a.apply(p); err != nil {
			return nil, err
		}
		if trackChanges && a.rec.Len() == before {
			a.rec.Append(newEntry(working, p.Kind(), p.ChunkIndices(), a.moduleKey(p)))
		}
	}
	working.Log = a.rec.Entries()
	return working, nil
}

// Apply is Update with a fixed patch list.
func Apply(b *models.Binder, trackChanges bool, patches ...Patch) (*models.Binder, error) {
	return Update(b, Patches(patches...), trackChanges)
}

// applier interprets patches against a working copy it owns.
type applier struct {
	b     *models.Binder
	rec   *Recorder
	track bool
}

func (a *applier) apply(p Patch) error {
	switch v := p.(type) {
	case ChunkTextPatch:
		return a.applyChunkText(v)
	case InjectChunkPatch:
		return a.applyInject(v)
	case MergeChunksPatch:
		return a.applyMerge(v)
	case MetaTimestampPatch:
		return a.applyMetaTimestamp(v)
	case LogUpdatePatch:
		if a.track {
			a.rec.Append(v.Entry)
		}
		return nil
	case CompositePatch:
		for _, sub := range v.Patches {
			if err := a.apply(sub); err != nil {
				return err
			}
		}
		return nil
	case *CompositePatch:
		if v == nil {
			return nil
		}
		return a.apply(*v)
	case nil:
		return errors.New("update: nil patch")
	default:
		return fmt.Errorf("update: unsupported patch type %T", p)
	}
}

func (a *applier) applyChunkText(p ChunkTextPatch) error {
	if p.ModuleIndex < 0 || p.ModuleIndex >= len(a.b.Modules.Text.Chunked) {
		return &models.ModuleNotFoundError{Key: textModuleRef(p.ModuleIndex)}
	}
	m := &a.b.Modules.Text.Chunked[p.ModuleIndex]
	if p.ChunkIndex < 0 || p.ChunkIndex >= len(m.Chunks) {
		return &models.InvalidChunkIndexError{Index: p.ChunkIndex, Count: len(m.Chunks)}
	}
	m.Chunks[p.ChunkIndex] = append([]string{}, p.Paragraphs...)
	for len(m.EditorStates) < len(m.Chunks) {
		m.EditorStates = append(m.EditorStates, "")
	}
	m.EditorStates[p.ChunkIndex] = p.EditorState
	return nil
}

func (a *applier) applyInject(p InjectChunkPatch) error {
	n := a.b.ChunkCount()
	if p.AtIndex < 0 || p.AtIndex > n {
		return &models.InvalidChunkIndexError{Index: p.AtIndex, Count: n}
	}
	if err := checkInjectCount(p.Count); err != nil {
		return err
	}
	for i := range a.b.Modules.Text.Chunked {
		m := &a.b.Modules.Text.Chunked[i]
		empty := make([][]string, p.Count)
		for j := range empty {
			empty[j] = []string{}
		}
		m.Chunks = insertAt(m.Chunks, min(p.AtIndex, len(m.Chunks)), empty)
		m.EditorStates = insertAt(m.EditorStates, min(p.AtIndex, len(m.EditorStates)), make([]string, p.Count))
	}
	for i := range a.b.Modules.Images.Chunked {
		m := &a.b.Modules.Images.Chunked[i]
		empty := make([][]models.Visual, p.Count)
		for j := range empty {
			empty[j] = []models.Visual{}
		}
		m.Chunks = insertAt(m.Chunks, min(p.AtIndex, len(m.Chunks)), empty)
	}
	return nil
}

// applyMerge folds the lower of the two chunks into the upper one. Editor states are
// opaque: when both chunks carry one, the merged state is cleared so the editor
// rebuilds it from the paragraphs.
func (a *applier) applyMerge(p MergeChunksPatch) error {
	if err := checkMerge(a.b.ChunkCount(), p.Index, p.MergeUp); err != nil {
		return err
	}
	upper, lower := p.Index, p.Index+1
	if p.MergeUp {
		upper, lower = p.Index-1, p.Index
	}
	for i := range a.b.Modules.Text.Chunked {
		m := &a.b.Modules.Text.Chunked[i]
		if lower >= len(m.Chunks) {
			continue
		}
		m.Chunks[upper] = append(append([]string{}, m.Chunks[upper]...), m.Chunks[lower]...)
		m.Chunks = removeAt(m.Chunks, lower)
		if lower < len(m.EditorStates) {
			m.EditorStates[upper] = mergeEditorStates(m.EditorStates[upper], m.EditorStates[lower])
			m.EditorStates = removeAt(m.EditorStates, lower)
		}
	}
	for i := range a.b.Modules.Images.Chunked {
		m := &a.b.Modules.Images.Chunked[i]
		if lower >= len(m.Chunks) {
			continue
		}
		m.Chunks[upper] = append(append([]models.Visual{}, m.Chunks[upper]...), m.Chunks[lower]...)
		m.Chunks = removeAt(m.Chunks, lower)
	}
	return nil
}

func mergeEditorStates(upper, lower string) string {
	switch {
	case upper == "":
		return lower
	case lower == "":
		return upper
	default:
		return ""
	}
}

func (a *applier) applyMetaTimestamp(p MetaTimestampPatch) error {
	i, err := a.b.MetaIndex(p.ModuleKey)
	if err != nil {
		return err
	}
	a.b.Modules.Meta[i].LastModifiedDate = p.Timestamp
	return nil
}

// moduleKey names the module a tracked patch touched, if it is a single one.
func (a *applier) moduleKey(p Patch) string {
	switch v := p.(type) {
	case ChunkTextPatch:
		if v.ModuleIndex >= 0 && v.ModuleIndex < len(a.b.Modules.Text.Chunked) {
			return a.b.Modules.Text.Chunked[v.ModuleIndex].ModuleKey
		}
	case MetaTimestampPatch:
		return v.ModuleKey
	}
	return ""
}

func insertAt[T any](s []T, at int, items []T) []T {
	out := make([]T, 0, len(s)+len(items))
	out = append(out, s[:at]...)
	out = append(out, items...)
	return append(out, s[at:]...)
}

func removeAt[T any](s []T, at int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:at]...)
	return append(out, s[at+1:]...)
}
