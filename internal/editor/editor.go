// Package editor is the binder service: it loads snapshots from storage, runs the
// patching engine, persists the result under an optimistic revision check, and keeps
// the keyword index in sync.
package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/fileid"
	"github.com/hyperjump/binders/internal/keyword"
	"github.com/hyperjump/binders/internal/migrate"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/patching"
	"github.com/hyperjump/binders/internal/search"
	"github.com/hyperjump/binders/internal/storage"
)

// ErrReservedID is returned when a caller picks an id from the path-derived namespace
// that RemoveFile deletes from.
var ErrReservedID = errors.New("binder id is reserved for imported files")

// Service coordinates storage, the keyword index and the patching engine.
type Service struct {
	storage      storage.Storage
	keywordIndex keyword.KeywordIndex
	search       *search.Engine
	config       config.EditorConfig
	usagePaths   []string
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithUsagePaths sets the files and directories summed for Status disk usage.
func WithUsagePaths(paths ...string) Option {
	return func(s *Service) { s.usagePaths = paths }
}

// New creates a Service. cfg should already have defaults applied.
func New(store storage.Storage, keywordIndex keyword.KeywordIndex, engine *search.Engine, cfg config.EditorConfig, opts ...Option) *Service {
	s := &Service{
		storage:      store,
		keywordIndex: keywordIndex,
		search:       engine,
		config:       cfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the visual defaults used when upgrading old binders.
func (s *Service) Defaults() migrate.Defaults {
	return migrate.Defaults{FitBehaviour: s.config.DefaultFitBehaviour, BgColor: s.config.DefaultBgColor}
}

// TrackChanges reports whether patches are logged when the caller does not say.
func (s *Service) TrackChanges() bool {
	return s.config.TrackChangesOrDefault()
}

// Create stores a new binder with one language and the given text chunks. An empty
// id gets a generated one.
func (s *Service) Create(ctx context.Context, id, languageCode, title string, chunks ...[]string) (*models.BinderRecord, error) {
	if id == "" {
		id = newBinderID()
	}
	if fileid.IsFileID(id) {
		return nil, fmt.Errorf("%w: %s", ErrReservedID, id)
	}
	b := models.NewBinder(id, languageCode, title, chunks...)
	rec, err := s.storage.CreateBinder(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to store binder: %w", err)
	}
	s.reindex(ctx, rec.Binder)
	s.logger.Debug("binder created", zap.String("id", id), zap.Int("chunks", b.ChunkCount()))
	return rec, nil
}

// Get returns the stored binder.
func (s *Service) Get(ctx context.Context, id string) (*models.BinderRecord, error) {
	return s.storage.GetBinder(ctx, id)
}

// List returns binder summaries.
func (s *Service) List(ctx context.Context, offset, limit int) ([]models.BinderSummary, error) {
	return s.storage.ListBinders(ctx, offset, limit)
}

// Delete removes a binder from the index and storage.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.logger.Debug("deleting binder", zap.String("id", id))
	if err := s.storage.DeleteBinder(ctx, id); err != nil {
		return err
	}
	if err := s.keywordIndex.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	s.search.Invalidate()
	return nil
}

// Log returns the log entries of a binder with versions above since.
func (s *Service) Log(ctx context.Context, id string, since uint64) ([]models.LogEntry, error) {
	entries, err := s.storage.LogEntries(ctx, id, since)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		// Tell an empty log apart from a missing binder.
		if _, err := s.storage.GetBinder(ctx, id); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Apply runs producer against the stored binder and saves the result.
// expectedRevision pins the revision the caller edited; 0 means "whatever is stored".
// A pinned revision that is no longer current fails with a *storage.VersionConflictError.
// Unpinned updates that lose a race are recomputed against the new snapshot, up to
// the configured number of retries.
func (s *Service) Apply(ctx context.Context, id string, expectedRevision int64, producer patching.Producer, trackChanges bool) (*models.BinderRecord, error) {
	pinned := expectedRevision > 0
	retries := s.config.Retries()
	if pinned {
		retries = 0
	}
	for attempt := 0; ; attempt++ {
		rec, err := s.storage.GetBinder(ctx, id)
		if err != nil {
			return nil, err
		}
		revision := rec.Revision
		if pinned {
			revision = expectedRevision
		}
		next, err := patching.Update(rec.Binder, producer, trackChanges)
		if err != nil {
			return nil, err
		}
		saved, err := s.storage.SaveBinder(ctx, next, revision)
		if errors.Is(err, storage.ErrVersionConflict) && attempt < retries {
			s.logger.Debug("retrying binder update after conflict",
				zap.String("id", id), zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		if err != nil {
			return nil, err
		}
		s.reindex(ctx, saved.Binder)
		s.logger.Debug("binder updated",
			zap.String("id", id), zap.Int64("revision", saved.Revision), zap.Int("log_entries", len(saved.Binder.Log)))
		return saved, nil
	}
}

// Search runs a keyword search over stored binders.
func (s *Service) Search(ctx context.Context, q *models.SearchQuery) (*models.SearchResponse, error) {
	return s.search.Search(ctx, q)
}

// Reindex adds every stored binder to the keyword index. Used when the index was
// created empty next to an existing database.
func (s *Service) Reindex(ctx context.Context) (int, error) {
	const page = 100
	n := 0
	for offset := 0; ; offset += page {
		summaries, err := s.storage.ListBinders(ctx, offset, page)
		if err != nil {
			return n, err
		}
		for _, sum := range summaries {
			rec, err := s.storage.GetBinder(ctx, sum.ID)
			if err != nil {
				return n, err
			}
			if err := s.keywordIndex.IndexBinder(ctx, rec.Binder); err != nil {
				return n, fmt.Errorf("failed to index binder %s: %w", sum.ID, err)
			}
			n++
		}
		if len(summaries) < page {
			break
		}
	}
	s.search.Invalidate()
	return n, nil
}

func newBinderID() string {
	return uuid.NewString()
}

// Status summarises what the service holds.
type Status struct {
	Binders        int64  `json:"binders"`
	LogEntries     int64  `json:"log_entries"`
	IndexedBinders uint64 `json:"indexed_binders"`
	DiskUsageBytes int64  `json:"disk_usage_bytes"`
}

// Status returns counts from storage and the index.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	var st Status
	var err error
	if st.Binders, err = s.storage.CountBinders(ctx); err != nil {
		return nil, err
	}
	if st.LogEntries, err = s.storage.CountLogEntries(ctx); err != nil {
		return nil, err
	}
	if st.IndexedBinders, err = s.keywordIndex.DocCount(); err != nil {
		return nil, err
	}
	if st.DiskUsageBytes, err = storage.DiskUsageBytes(s.usagePaths...); err != nil {
		return nil, err
	}
	return &st, nil
}

// reindex updates the keyword index after a committed write. Failures are logged only.
func (s *Service) reindex(ctx context.Context, b *models.Binder) {
	if err := s.keywordIndex.IndexBinder(ctx, b); err != nil {
		s.logger.Warn("failed to index binder", zap.String("id", b.ID), zap.Error(err))
		return
	}
	s.search.Invalidate()
}
