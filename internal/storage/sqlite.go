package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/binders/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS binders (
		id TEXT PRIMARY KEY,
		title TEXT,
		binders_version TEXT NOT NULL,
		chunk_count INTEGER NOT NULL,
		document TEXT NOT NULL,
		revision INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_binders_updated_at ON binders(updated_at);

	CREATE TABLE IF NOT EXISTS binder_log (
		binder_id TEXT NOT NULL,
		version INTEGER NOT NULL,
		id TEXT NOT NULL,
		kind TEXT NOT NULL,
		chunk_indices TEXT,
		module_key TEXT,
		recorded_at TIMESTAMP NOT NULL,
		PRIMARY KEY (binder_id, version),
		FOREIGN KEY (binder_id) REFERENCES binders(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

// encodeDocument stores the snapshot without its log; log rows live in binder_log.
func encodeDocument(b *models.Binder) (string, error) {
	doc := *b
	doc.Log = nil
	data, err := json.Marshal(&doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal binder: %w", err)
	}
	return string(data), nil
}

// CreateBinder inserts a binder at revision 1 together with its log.
func (s *SQLiteStorage) CreateBinder(ctx context.Context, b *models.Binder) (*models.BinderRecord, error) {
	doc, err := encodeDocument(b)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO binders (id, title, binders_version, chunk_count, document, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		b.ID, b.Title(), b.BindersVersion, b.ChunkCount(), doc, now, now,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return nil, fmt.Errorf("%w: %s", ErrBinderExists, b.ID)
		}
		return nil, err
	}
	if err := insertLog(ctx, tx, b.ID, b.Log, 0); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.BinderRecord{Binder: b.Clone(), Revision: 1, CreatedAt: now, UpdatedAt: now}, nil
}

// GetBinder returns the stored snapshot with its full log.
func (s *SQLiteStorage) GetBinder(ctx context.Context, id string) (*models.BinderRecord, error) {
	var rec models.BinderRecord
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document, revision, created_at, updated_at FROM binders WHERE id = ?`, id,
	).Scan(&doc, &rec.Revision, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrBinderNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var b models.Binder
	if err := json.Unmarshal([]byte(doc), &b); err != nil {
		return nil, fmt.Errorf("failed to unmarshal binder %s: %w", id, err)
	}
	log, err := s.LogEntries(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	if len(log) > 0 {
		b.Log = log
	}
	rec.Binder = &b
	return &rec, nil
}

// SaveBinder replaces the snapshot when the stored revision equals expectedRevision.
// Log entries with versions above the stored maximum are appended; older ones are
// already persisted and are left alone.
func (s *SQLiteStorage) SaveBinder(ctx context.Context, b *models.Binder, expectedRevision int64) (*models.BinderRecord, error) {
	doc, err := encodeDocument(b)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var rec models.BinderRecord
	err = tx.QueryRowContext(ctx,
		`SELECT revision, created_at FROM binders WHERE id = ?`, b.ID,
	).Scan(&rec.Revision, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrBinderNotFound, b.ID)
	}
	if err != nil {
		return nil, err
	}
	if rec.Revision != expectedRevision {
		return nil, &VersionConflictError{ID: b.ID, Expected: expectedRevision, Actual: rec.Revision}
	}

	rec.UpdatedAt = time.Now().UTC()
	rec.Revision++
	result, err := tx.ExecContext(ctx,
		`UPDATE binders SET title = ?, binders_version = ?, chunk_count = ?, document = ?, revision = ?, updated_at = ?
		 WHERE id = ? AND revision = ?`,
		b.Title(), b.BindersVersion, b.ChunkCount(), doc, rec.Revision, rec.UpdatedAt, b.ID, expectedRevision,
	)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, &VersionConflictError{ID: b.ID, Expected: expectedRevision, Actual: expectedRevision + 1}
	}

	var stored uint64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM binder_log WHERE binder_id = ?`, b.ID,
	).Scan(&stored); err != nil {
		return nil, err
	}
	if err := insertLog(ctx, tx, b.ID, b.Log, stored); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	rec.Binder = b.Clone()
	return &rec, nil
}

func insertLog(ctx context.Context, tx *sql.Tx, binderID string, entries []models.LogEntry, after uint64) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO binder_log (binder_id, version, id, kind, chunk_indices, module_key, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if e.Version <= after {
			continue
		}
		indices, err := json.Marshal(e.ChunkIndices)
		if err != nil {
			return fmt.Errorf("failed to marshal chunk indices: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, binderID, e.Version, e.ID, e.Kind, string(indices), e.ModuleKey, e.RecordedAt); err != nil {
			return fmt.Errorf("failed to append log entry %d: %w", e.Version, err)
		}
	}
	return nil
}

// DeleteBinder removes a binder and its log.
func (s *SQLiteStorage) DeleteBinder(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM binder_log WHERE binder_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM binders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrBinderNotFound, id)
	}
	return tx.Commit()
}

// ListBinders returns binder summaries, most recently updated first.
func (s *SQLiteStorage) ListBinders(ctx context.Context, offset, limit int) ([]models.BinderSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, binders_version, chunk_count, revision, updated_at
		 FROM binders ORDER BY updated_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BinderSummary
	for rows.Next() {
		var sum models.BinderSummary
		var title sql.NullString
		if err := rows.Scan(&sum.ID, &title, &sum.BindersVersion, &sum.Chunks, &sum.Revision, &sum.UpdatedAt); err != nil {
			return nil, err
		}
		sum.Title = title.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

// LogEntries returns the log entries of a binder with versions above sinceVersion,
// in version order.
func (s *SQLiteStorage) LogEntries(ctx context.Context, id string, sinceVersion uint64) ([]models.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, id, kind, chunk_indices, module_key, recorded_at
		 FROM binder_log WHERE binder_id = ? AND version > ? ORDER BY version`,
		id, sinceVersion,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LogEntry
	for rows.Next() {
		var e models.LogEntry
		var indices, moduleKey sql.NullString
		if err := rows.Scan(&e.Version, &e.ID, &e.Kind, &indices, &moduleKey, &e.RecordedAt); err != nil {
			return nil, err
		}
		if indices.Valid && indices.String != "" {
			if err := json.Unmarshal([]byte(indices.String), &e.ChunkIndices); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk indices: %w", err)
			}
		}
		e.ModuleKey = moduleKey.String
		e.RecordedAt = e.RecordedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountBinders returns the total number of binders.
func (s *SQLiteStorage) CountBinders(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM binders`).Scan(&count)
	return count, err
}

// CountLogEntries returns the total number of log entries across binders.
func (s *SQLiteStorage) CountLogEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM binder_log`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
