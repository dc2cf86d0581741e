package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/patching"
)

// Operation names accepted in a PatchRequest.
const (
	OpText      = "text"
	OpInject    = "inject"
	OpMerge     = "merge"
	OpTimestamp = "timestamp"
	OpLog       = "log"
	OpEdit      = "edit"
)

// ErrUnknownOperation is returned for an operation name that is not supported.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is the wire form of one patch.
type Operation struct {
	Op          string   `json:"op" validate:"required,oneof=text inject merge timestamp log edit"`
	ModuleKey   string   `json:"moduleKey,omitempty"`
	ModuleIndex int      `json:"moduleIndex,omitempty" validate:"gte=0"`
	ChunkIndex  int      `json:"chunkIndex" validate:"gte=0"`
	Count       int      `json:"count,omitempty" validate:"gte=0,lte=1000"`
	MergeUp     bool     `json:"mergeUp,omitempty"`
	Paragraphs  []string `json:"paragraphs,omitempty"`
	EditorState string   `json:"editorState,omitempty"`
}

// PatchRequest is a batch of operations applied as one update.
type PatchRequest struct {
	// Revision pins the stored revision the operations were built against; 0 accepts
	// whatever is current.
	Revision     int64       `json:"revision" validate:"gte=0"`
	TrackChanges *bool       `json:"trackChanges,omitempty"`
	Operations   []Operation `json:"operations" validate:"required,min=1,dive"`
}

// Patch builds the patch for op against b.
func (op Operation) Patch(b *models.Binder) (patching.Patch, error) {
	switch op.Op {
	case OpText:
		moduleIndex := op.ModuleIndex
		if op.ModuleKey != "" {
			i, err := b.TextModuleIndex(op.ModuleKey)
			if err != nil {
				return nil, err
			}
			moduleIndex = i
		}
		return patching.PatchChunkedRichTextModuleByIndex(b, moduleIndex, op.ChunkIndex, op.Paragraphs, op.EditorState)
	case OpInject:
		count := op.Count
		if count == 0 {
			count = 1
		}
		return patching.PatchInjectChunk(b, op.ChunkIndex, count)
	case OpMerge:
		return patching.PatchMergeChunks(b, op.ChunkIndex, op.MergeUp)
	case OpTimestamp:
		return patching.PatchMetaTimestamp(b, op.ModuleKey)
	case OpLog:
		return patching.PatchUpdateBinderLog(b, op.ChunkIndex)
	case OpEdit:
		key := op.ModuleKey
		if key == "" && len(b.Modules.Text.Chunked) > 0 {
			key = b.Modules.Text.Chunked[0].ModuleKey
		}
		return patching.PatchEditChunk(b, key, op.ChunkIndex, op.Paragraphs, op.EditorState)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
	}
}

// Producer turns ops into patches. Each operation is built against the result of the
// ones before it, so an operation may address a chunk that an earlier inject created.
func Producer(ops []Operation) patching.Producer {
	return func(current *models.Binder) ([]patching.Patch, error) {
		patches := make([]patching.Patch, 0, len(ops))
		scratch := current
		for i, op := range ops {
			p, err := op.Patch(scratch)
			if err != nil {
				return nil, &OperationError{Index: i, Op: op.Op, Err: err}
			}
			if i < len(ops)-1 {
				if scratch, err = patching.Apply(scratch, false, p); err != nil {
					return nil, &OperationError{Index: i, Op: op.Op, Err: err}
				}
			}
			patches = append(patches, p)
		}
		return patches, nil
	}
}

// OperationError locates a failing operation in a request. It unwraps to the patch
// error, so errors.As still finds the typed model errors.
type OperationError struct {
	Index int
	Op    string
	Err   error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %d (%s): %v", e.Index, e.Op, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// ApplyOps applies a PatchRequest to the stored binder.
func (s *Service) ApplyOps(ctx context.Context, id string, req PatchRequest) (*models.BinderRecord, error) {
	track := s.TrackChanges()
	if req.TrackChanges != nil {
		track = *req.TrackChanges
	}
	return s.Apply(ctx, id, req.Revision, Producer(req.Operations), track)
}
