package patching

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/binders/internal/models"
)

// MaxInjectCount bounds the number of chunks one inject patch may insert.
const MaxInjectCount = 1000

// Overridden in tests.
var (
	now   = func() time.Time { return time.Now().UTC() }
	newID = uuid.NewString
)

// PatchChunkedRichTextModuleByIndex replaces the content of chunk chunkIndex in the
// text module at moduleIndex.
func PatchChunkedRichTextModuleByIndex(b *models.Binder, moduleIndex, chunkIndex int, paragraphs []string, editorState string) (Patch, error) {
	if moduleIndex < 0 || moduleIndex >= len(b.Modules.Text.Chunked) {
		return nil, &models.ModuleNotFoundError{Key: textModuleRef(moduleIndex)}
	}
	count := len(b.Modules.Text.Chunked[moduleIndex].Chunks)
	if chunkIndex < 0 || chunkIndex >= count {
		return nil, &models.InvalidChunkIndexError{Index: chunkIndex, Count: count}
	}
	return ChunkTextPatch{
		ModuleIndex: moduleIndex,
		ChunkIndex:  chunkIndex,
		Paragraphs:  append([]string{}, paragraphs...),
		EditorState: editorState,
	}, nil
}

// PatchInjectChunk inserts count empty chunks at atIndex across all text and images
// modules. atIndex may equal the chunk count to append.
func PatchInjectChunk(b *models.Binder, atIndex, count int) (Patch, error) {
	n := b.ChunkCount()
	if atIndex < 0 || atIndex > n {
		return nil, &models.InvalidChunkIndexError{Index: atIndex, Count: n}
	}
	if err := checkInjectCount(count); err != nil {
		return nil, err
	}
	return InjectChunkPatch{AtIndex: atIndex, Count: count}, nil
}

// PatchMergeChunks merges the chunk at index into its neighbour above (mergeUp) or
// below. The first chunk cannot merge up and the last cannot merge down.
func PatchMergeChunks(b *models.Binder, index int, mergeUp bool) (Patch, error) {
	if err := checkMerge(b.ChunkCount(), index, mergeUp); err != nil {
		return nil, err
	}
	return MergeChunksPatch{Index: index, MergeUp: mergeUp}, nil
}

func checkInjectCount(count int) error {
	if count < 1 || count > MaxInjectCount {
		return fmt.Errorf("inject count must be between 1 and %d, got %d: %w", MaxInjectCount, count, models.ErrInvalidChunkIndex)
	}
	return nil
}

func checkMerge(n, index int, mergeUp bool) error {
	if index < 0 || index >= n {
		return &models.InvalidChunkIndexError{Index: index, Count: n}
	}
	if (mergeUp && index == 0) || (!mergeUp && index == n-1) {
		return &models.MergeOutOfBoundsError{Index: index, MergeUp: mergeUp, Count: n}
	}
	return nil
}

// PatchMetaTimestamp stamps the module's meta entry with the current time.
func PatchMetaTimestamp(b *models.Binder, moduleKey string) (Patch, error) {
	if _, err := b.MetaIndex(moduleKey); err != nil {
		return nil, err
	}
	return MetaTimestampPatch{ModuleKey: moduleKey, Timestamp: now()}, nil
}

// PatchUpdateBinderLog appends a log entry for an edit at chunkIndex. Its version is one
// above the highest version currently in the log. chunkIndex has no upper bound since
// an entry may describe a chunk that a merge removed.
func PatchUpdateBinderLog(b *models.Binder, chunkIndex int) (Patch, error) {
	if chunkIndex < 0 {
		return nil, &models.InvalidChunkIndexError{Index: chunkIndex, Count: b.ChunkCount()}
	}
	return LogUpdatePatch{Entry: newEntry(b, KindChunkText, []int{chunkIndex}, "")}, nil
}

// PatchEditChunk is the composite the editor sends for a paragraph edit: the text
// update, then the module timestamp, then the log entry.
func PatchEditChunk(b *models.Binder, moduleKey string, chunkIndex int, paragraphs []string, editorState string) (Patch, error) {
	moduleIndex, err := b.TextModuleIndex(moduleKey)
	if err != nil {
		return nil, err
	}
	text, err := PatchChunkedRichTextModuleByIndex(b, moduleIndex, chunkIndex, paragraphs, editorState)
	if err != nil {
		return nil, err
	}
	meta, err := PatchMetaTimestamp(b, moduleKey)
	if err != nil {
		return nil, err
	}
	log, err := PatchUpdateBinderLog(b, chunkIndex)
	if err != nil {
		return nil, err
	}
	entry := log.(LogUpdatePatch)
	entry.Entry.ModuleKey = moduleKey
	return MergePatches(text, meta, entry), nil
}

func newEntry(b *models.Binder, kind Kind, indices []int, moduleKey string) models.LogEntry {
	return models.LogEntry{
		ID:           newID(),
		Version:      b.LastLogVersion() + 1,
		Kind:         string(kind),
		ChunkIndices: indices,
		ModuleKey:    moduleKey,
		RecordedAt:   now(),
	}
}

func textModuleRef(i int) string {
	return fmt.Sprintf("text[%d]", i)
}
