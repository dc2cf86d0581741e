package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/binders/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "db", "binders.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func entry(version uint64, kind string, chunks ...int) models.LogEntry {
	return models.LogEntry{
		ID:           "e" + kind,
		Version:      version,
		Kind:         kind,
		ChunkIndices: chunks,
		RecordedAt:   time.Date(2024, 1, 1, 0, 0, int(version), 0, time.UTC),
	}
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := models.NewBinder("b1", "en", "Manual", []string{"a"}, []string{"b"})
	b.Log = []models.LogEntry{entry(1, "inject-chunk", 1)}
	rec, err := store.CreateBinder(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Revision != 1 {
		t.Errorf("revision after create: got %d", rec.Revision)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetBinder(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Binder.Title() != "Manual" || got.Binder.ChunkCount() != 2 {
		t.Errorf("got %+v", got.Binder)
	}
	if len(got.Binder.Log) != 1 || got.Binder.Log[0].ChunkIndices[0] != 1 {
		t.Errorf("log: got %+v", got.Binder.Log)
	}

	if _, err := store.CreateBinder(ctx, b); !errors.Is(err, ErrBinderExists) {
		t.Errorf("duplicate create: got %v", err)
	}

	list, err := store.ListBinders(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Chunks != 2 || list[0].Title != "Manual" {
		t.Errorf("list: got %+v", list)
	}

	if err := store.DeleteBinder(ctx, "b1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetBinder(ctx, "b1"); !errors.Is(err, ErrBinderNotFound) {
		t.Errorf("get after delete: got %v", err)
	}
	if err := store.DeleteBinder(ctx, "b1"); !errors.Is(err, ErrBinderNotFound) {
		t.Errorf("second delete: got %v", err)
	}
	n, err := store.CountLogEntries(ctx)
	if err != nil || n != 0 {
		t.Errorf("log rows after delete: %v, %d", err, n)
	}
}

func TestSQLiteStorage_SaveAppendsLogAndBumpsRevision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := models.NewBinder("b1", "en", "Manual", []string{"a"})
	b.Log = []models.LogEntry{entry(1, "inject-chunk", 0)}
	if _, err := store.CreateBinder(ctx, b); err != nil {
		t.Fatal(err)
	}

	next := b.Clone()
	next.Languages[0].Title = "Manual v2"
	next.Log = append(next.Log, entry(2, "merge-chunks", 0, 1), entry(3, "log-update", 0))
	rec, err := store.SaveBinder(ctx, next, 1)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Revision != 2 {
		t.Errorf("revision after save: got %d", rec.Revision)
	}

	since, err := store.LogEntries(ctx, "b1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(since) != 2 || since[0].Version != 2 || since[1].Version != 3 {
		t.Fatalf("entries since 1: got %+v", since)
	}
	if since[0].ChunkIndices[1] != 1 {
		t.Errorf("chunk indices: got %v", since[0].ChunkIndices)
	}

	list, err := store.ListBinders(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if list[0].Title != "Manual v2" || list[0].Revision != 2 {
		t.Errorf("summary after save: got %+v", list[0])
	}
}

func TestSQLiteStorage_SaveConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := models.NewBinder("b1", "en", "Manual", []string{"a"})
	if _, err := store.CreateBinder(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveBinder(ctx, b, 1); err != nil {
		t.Fatal(err)
	}

	_, err := store.SaveBinder(ctx, b, 1)
	var conflict *VersionConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("stale save: got %v", err)
	}
	if conflict.Expected != 1 || conflict.Actual != 2 {
		t.Errorf("conflict: got %+v", conflict)
	}
	if !errors.Is(err, ErrVersionConflict) {
		t.Error("conflict should match ErrVersionConflict")
	}

	missing := models.NewBinder("nope", "en", "x")
	if _, err := store.SaveBinder(ctx, missing, 1); !errors.Is(err, ErrBinderNotFound) {
		t.Errorf("save missing: got %v", err)
	}
}

func TestSQLiteStorage_Counts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n, err := store.CountBinders(ctx)
	if err != nil || n != 0 {
		t.Errorf("CountBinders: %v, %d", err, n)
	}
	for _, id := range []string{"x", "y"} {
		b := models.NewBinder(id, "en", id)
		b.Log = []models.LogEntry{entry(1, "inject-chunk")}
		if _, err := store.CreateBinder(ctx, b); err != nil {
			t.Fatal(err)
		}
	}
	n, _ = store.CountBinders(ctx)
	if n != 2 {
		t.Errorf("expected 2 binders, got %d", n)
	}
	n, _ = store.CountLogEntries(ctx)
	if n != 2 {
		t.Errorf("expected 2 log entries, got %d", n)
	}
}
