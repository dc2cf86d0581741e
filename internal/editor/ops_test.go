package editor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/patching"
)

func TestApplyOpsInjectThenEditNewChunk(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"}, []string{"c"})
	require.NoError(t, err)

	rec, err := svc.ApplyOps(ctx, "b1", PatchRequest{
		Revision: 1,
		Operations: []Operation{
			{Op: OpInject, ChunkIndex: 1},
			{Op: OpEdit, ChunkIndex: 1, Paragraphs: []string{"b"}, EditorState: "s"},
		},
	})
	require.NoError(t, err)

	text := rec.Binder.Modules.Text.Chunked[0]
	assert.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, text.Chunks)
	assert.Equal(t, []string{"", "s", ""}, text.EditorStates)
	assert.False(t, rec.Binder.Modules.Meta[0].LastModifiedDate.IsZero())

	// inject is tracked by the engine; edit carries its own log entry
	require.Len(t, rec.Binder.Log, 2)
	assert.Equal(t, string(patching.KindInjectChunk), rec.Binder.Log[0].Kind)
	assert.Equal(t, models.DefaultTextModuleKey, rec.Binder.Log[1].ModuleKey)
	assert.Equal(t, []uint64{1, 2}, []uint64{rec.Binder.Log[0].Version, rec.Binder.Log[1].Version})
}

func TestApplyOpsTrackChangesOverride(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"}, []string{"b"})
	require.NoError(t, err)

	off := false
	rec, err := svc.ApplyOps(ctx, "b1", PatchRequest{
		TrackChanges: &off,
		Operations: []Operation{
			{Op: OpMerge, ChunkIndex: 1, MergeUp: true},
			{Op: OpTimestamp, ModuleKey: models.DefaultImagesModuleKey},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Binder.ChunkCount())
	assert.Empty(t, rec.Binder.Log)
}

func TestApplyOpsErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		ops    []Operation
		target error
		index  int
	}{
		{"unknown op", []Operation{{Op: "rewrite"}}, ErrUnknownOperation, 0},
		{"merge first chunk up", []Operation{{Op: OpMerge, ChunkIndex: 0, MergeUp: true}}, models.ErrMergeOutOfBounds, 0},
		{"text out of range", []Operation{{Op: OpInject}, {Op: OpText, ChunkIndex: 5}}, models.ErrInvalidChunkIndex, 1},
		{"unknown module", []Operation{{Op: OpText, ModuleKey: "t9"}}, models.ErrModuleNotFound, 0},
		{"timestamp without module", []Operation{{Op: OpTimestamp}}, models.ErrModuleNotFound, 0},
		{"inject above limit", []Operation{{Op: OpInject}, {Op: OpInject, Count: patching.MaxInjectCount + 1}}, models.ErrInvalidChunkIndex, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApplyOps(ctx, "b1", PatchRequest{Operations: tt.ops})
			require.ErrorIs(t, err, tt.target)
			var opErr *OperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, tt.index, opErr.Index)
		})
	}

	rec, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Revision)
}

func TestApplyOpsUntrackedEditAddsNoLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)

	off := false
	rec, err := svc.ApplyOps(ctx, "b1", PatchRequest{
		TrackChanges: &off,
		Operations: []Operation{
			{Op: OpEdit, ChunkIndex: 0, Paragraphs: []string{"b"}},
			{Op: OpLog, ChunkIndex: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"b"}}, rec.Binder.Modules.Text.Chunked[0].Chunks)
	assert.Empty(t, rec.Binder.Log)
}

func TestProducerLogOperation(t *testing.T) {
	b := models.NewBinder("b1", "en", "Manual", []string{"a"})
	b.Log = []models.LogEntry{{ID: "x", Version: 7}}

	patches, err := Producer([]Operation{{Op: OpLog, ChunkIndex: 0}, {Op: OpLog, ChunkIndex: 0}})(b)
	require.NoError(t, err)
	require.Len(t, patches, 2)
	assert.Equal(t, uint64(8), patches[0].(patching.LogUpdatePatch).Entry.Version)
	assert.Equal(t, uint64(9), patches[1].(patching.LogUpdatePatch).Entry.Version)
	assert.Len(t, b.Log, 1, "building patches must not touch the snapshot")
}
