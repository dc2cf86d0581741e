package editor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/fileid"
	"github.com/hyperjump/binders/internal/keyword"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/patching"
	"github.com/hyperjump/binders/internal/search"
	"github.com/hyperjump/binders/internal/storage"
)

func newTestService(t *testing.T, mutate ...func(*config.Config)) (*Service, storage.Storage) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	for _, m := range mutate {
		m(cfg)
	}
	config.ApplyDefaults(cfg)

	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "binders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	kw, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kw.Close() })

	engine := search.NewEngine(store, kw, &cfg.Search, search.WithSpellChecker(keyword.NewSpellChecker(kw)))
	svc := New(store, kw, engine, cfg.Editor, WithUsagePaths(dir))
	return svc, store
}

func TestCreateGetDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Create(ctx, "", "en", "Manual", []string{"a"}, []string{"b"})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Binder.ID)
	assert.Equal(t, int64(1), rec.Revision)

	got, err := svc.Get(ctx, rec.Binder.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Binder.ChunkCount())

	resp, err := svc.Search(ctx, &models.SearchQuery{Query: "manual"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)

	require.NoError(t, svc.Delete(ctx, rec.Binder.ID))
	_, err = svc.Get(ctx, rec.Binder.ID)
	assert.ErrorIs(t, err, storage.ErrBinderNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, rec.Binder.ID), storage.ErrBinderNotFound)

	resp, err = svc.Search(ctx, &models.SearchQuery{Query: "manual"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestCreateRejectsFileID(t *testing.T) {
	svc, _ := newTestService(t)
	id := fileid.BinderID(filepath.Join(t.TempDir(), "manual.json"))

	_, err := svc.Create(context.Background(), id, "en", "Manual", []string{"a"})
	require.ErrorIs(t, err, ErrReservedID)

	_, err = svc.Create(context.Background(), "file:manual", "en", "Manual", []string{"a"})
	require.NoError(t, err)
}

func TestApplyPersistsSnapshotAndLog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"}, []string{"b"}, []string{"c"})
	require.NoError(t, err)

	producer := func(cur *models.Binder) ([]patching.Patch, error) {
		inject, err := patching.PatchInjectChunk(cur, 1, 1)
		if err != nil {
			return nil, err
		}
		return []patching.Patch{inject}, nil
	}
	rec, err := svc.Apply(ctx, "b1", 1, producer, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.Revision)
	assert.Equal(t, 4, rec.Binder.ChunkCount())

	entries, err := svc.Log(ctx, "b1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, string(patching.KindInjectChunk), entries[0].Kind)
	assert.Equal(t, uint64(1), entries[0].Version)

	entries, err = svc.Log(ctx, "b1", 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = svc.Log(ctx, "missing", 0)
	assert.ErrorIs(t, err, storage.ErrBinderNotFound)
}

func TestApplyPinnedRevisionConflicts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)

	inject := func(cur *models.Binder) ([]patching.Patch, error) {
		p, err := patching.PatchInjectChunk(cur, 0, 1)
		return []patching.Patch{p}, err
	}
	_, err = svc.Apply(ctx, "b1", 1, inject, false)
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "b1", 1, inject, false)
	var conflict *storage.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.Actual)

	rec, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Binder.ChunkCount(), "stale update must not be applied")
}

func TestApplyUnpinnedRetriesAfterConflict(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)

	var once sync.Once
	calls := 0
	producer := func(cur *models.Binder) ([]patching.Patch, error) {
		calls++
		// A concurrent writer commits between our read and our save.
		once.Do(func() {
			other, err := patching.Apply(cur, false, patching.InjectChunkPatch{AtIndex: 0, Count: 1})
			require.NoError(t, err)
			_, err = store.SaveBinder(ctx, other, 1)
			require.NoError(t, err)
		})
		p, err := patching.PatchInjectChunk(cur, cur.ChunkCount(), 1)
		return []patching.Patch{p}, err
	}
	rec, err := svc.Apply(ctx, "b1", 0, producer, true)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(3), rec.Revision)
	assert.Equal(t, 3, rec.Binder.ChunkCount(), "both writers' chunks are kept")
}

func TestApplyRetriesDisabled(t *testing.T) {
	svc, store := newTestService(t, func(c *config.Config) { c.Editor.ConflictRetries = -1 })
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)

	producer := func(cur *models.Binder) ([]patching.Patch, error) {
		if cur.ChunkCount() == 1 {
			_, err := store.SaveBinder(ctx, cur, 1)
			require.NoError(t, err)
		}
		return nil, nil
	}
	_, err = svc.Apply(ctx, "b1", 0, producer, false)
	assert.ErrorIs(t, err, storage.ErrVersionConflict)
}

func TestApplyPatchErrorLeavesStoreUntouched(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"}, []string{"b"})
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "b1", 0, patching.Patches(
		patching.InjectChunkPatch{AtIndex: 0, Count: 1},
		patching.MergeChunksPatch{Index: 0, MergeUp: true},
	), true)
	var oob *models.MergeOutOfBoundsError
	require.ErrorAs(t, err, &oob)

	rec, err := svc.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Revision)
	assert.Equal(t, 2, rec.Binder.ChunkCount())
	assert.Empty(t, rec.Binder.Log)
}

func TestStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "b1", "en", "Manual", []string{"a"})
	require.NoError(t, err)
	_, err = svc.ApplyOps(ctx, "b1", PatchRequest{Operations: []Operation{{Op: OpInject, ChunkIndex: 1}}})
	require.NoError(t, err)

	st, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Binders)
	assert.Equal(t, int64(1), st.LogEntries)
	assert.Equal(t, uint64(1), st.IndexedBinders)
	assert.Positive(t, st.DiskUsageBytes)
}

func TestReindex(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		_, err := store.CreateBinder(ctx, models.NewBinder(id, "en", "Title "+id))
		require.NoError(t, err)
	}
	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	st, err := svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), st.IndexedBinders)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
