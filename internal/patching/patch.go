// Package patching implements binder patches, their composition, the binder log
// recorder, and the update engine that applies patches to immutable snapshots.
//
// Patches are plain data. Constructors validate them against the snapshot they were
// built from; Update interprets them against a private copy and returns a new snapshot.
package patching

import (
	"time"

	"github.com/hyperjump/binders/internal/models"
)

// Kind tags a patch variant. The same values are recorded in log entries.
type Kind string

const (
	KindChunkText     Kind = "chunk-text-update"
	KindInjectChunk   Kind = "inject-chunk"
	KindMergeChunks   Kind = "merge-chunks"
	KindMetaTimestamp Kind = "metadata-timestamp-update"
	KindLogUpdate     Kind = "log-update"
	KindComposite     Kind = "composite"
)

// Patch describes one mutation of a binder. Implementations are the value types in
// this package; Update switches on them.
type Patch interface {
	Kind() Kind
	// ChunkIndices returns the chunk positions the patch touches, in the space of the
	// snapshot it is applied to.
	ChunkIndices() []int
}

// ChunkTextPatch replaces the paragraphs and editor state of one chunk in one text module.
type ChunkTextPatch struct {
	ModuleIndex int      `json:"moduleIndex"`
	ChunkIndex  int      `json:"chunkIndex"`
	Paragraphs  []string `json:"paragraphs"`
	EditorState string   `json:"editorState"`
}

func (ChunkTextPatch) Kind() Kind            { return KindChunkText }
func (p ChunkTextPatch) ChunkIndices() []int { return []int{p.ChunkIndex} }

// InjectChunkPatch inserts Count empty chunks at AtIndex in every chunk-aligned module.
type InjectChunkPatch struct {
	AtIndex int `json:"atIndex"`
	Count   int `json:"count"`
}

func (InjectChunkPatch) Kind() Kind { return KindInjectChunk }

func (p InjectChunkPatch) ChunkIndices() []int {
	n := max(0, min(p.Count, MaxInjectCount))
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, p.AtIndex+i)
	}
	return out
}

// MergeChunksPatch merges chunk Index with the chunk above (MergeUp) or below it.
type MergeChunksPatch struct {
	Index   int  `json:"index"`
	MergeUp bool `json:"mergeUp"`
}

func (MergeChunksPatch) Kind() Kind { return KindMergeChunks }

func (p MergeChunksPatch) ChunkIndices() []int {
	if p.MergeUp {
		return []int{p.Index - 1, p.Index}
	}
	return []int{p.Index, p.Index + 1}
}

// MetaTimestampPatch sets LastModifiedDate on a module's meta entry.
type MetaTimestampPatch struct {
	ModuleKey string    `json:"moduleKey"`
	Timestamp time.Time `json:"timestamp"`
}

func (MetaTimestampPatch) Kind() Kind          { return KindMetaTimestamp }
func (MetaTimestampPatch) ChunkIndices() []int { return nil }

// LogUpdatePatch appends Entry to the binder log. The recorder re-stamps the version
// if another entry was appended after the patch was built.
type LogUpdatePatch struct {
	Entry models.LogEntry `json:"entry"`
}

func (LogUpdatePatch) Kind() Kind { return KindLogUpdate }

func (p LogUpdatePatch) ChunkIndices() []int {
	return append([]int(nil), p.Entry.ChunkIndices...)
}

// CompositePatch applies Patches in order as one unit.
type CompositePatch struct {
	Patches []Patch `json:"-"`
}

func (CompositePatch) Kind() Kind { return KindComposite }

func (p CompositePatch) ChunkIndices() []int {
	var out []int
	seen := make(map[int]struct{})
	for _, sub := range p.Patches {
		for _, i := range sub.ChunkIndices() {
			if _, ok := seen[i]; ok {
				continue
			}
			seen[i] = struct{}{}
			out = append(out, i)
		}
	}
	return out
}
