// Package storage defines the persistence interface for binders and their logs.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/binders/internal/models"
)

var (
	// ErrBinderNotFound is returned when no binder has the requested id.
	ErrBinderNotFound = errors.New("binder not found")
	// ErrBinderExists is returned by CreateBinder for a duplicate id.
	ErrBinderExists = errors.New("binder already exists")
	// ErrVersionConflict matches any *VersionConflictError.
	ErrVersionConflict = errors.New("version conflict")
)

// VersionConflictError reports a failed optimistic revision check.
type VersionConflictError struct {
	ID       string
	Expected int64
	Actual   int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict on binder %s: expected revision %d, found %d", e.ID, e.Expected, e.Actual)
}

func (e *VersionConflictError) Is(target error) bool {
	return target == ErrVersionConflict
}

// Storage defines binder persistence operations.
type Storage interface {
	// Binder operations
	CreateBinder(ctx context.Context, b *models.Binder) (*models.BinderRecord, error)
	GetBinder(ctx context.Context, id string) (*models.BinderRecord, error)
	// SaveBinder replaces the stored snapshot if its revision is still expectedRevision
	// and appends log entries newer than the stored ones.
	SaveBinder(ctx context.Context, b *models.Binder, expectedRevision int64) (*models.BinderRecord, error)
	DeleteBinder(ctx context.Context, id string) error
	ListBinders(ctx context.Context, offset, limit int) ([]models.BinderSummary, error)

	// Log operations
	LogEntries(ctx context.Context, id string, sinceVersion uint64) ([]models.LogEntry, error)

	// Stats
	CountBinders(ctx context.Context) (int64, error)
	CountLogEntries(ctx context.Context) (int64, error)

	Close() error
}
