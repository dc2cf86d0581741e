package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/binders/internal/fileid"
	"github.com/hyperjump/binders/internal/migrate"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/storage"
)

// ImportResult describes what an import did.
type ImportResult struct {
	Record *models.BinderRecord `json:"record"`
	// Created is set when no binder with this id existed before.
	Created bool `json:"created"`
	// Upgraded is set when the input used an older bindersVersion.
	Upgraded bool `json:"upgraded"`
	// Unchanged is set when the stored binder already matched the input.
	Unchanged bool `json:"unchanged"`
}

// Import decodes binder JSON of any supported version and stores it. An existing
// binder with the same id is replaced. A binder without an id gets fallbackID, or a
// generated one when fallbackID is empty.
func (s *Service) Import(ctx context.Context, data []byte, fallbackID string) (*ImportResult, error) {
	if fallbackID == "" {
		fallbackID = newBinderID()
	}
	b, upgraded, err := migrate.Decode(data, s.Defaults(), fallbackID)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Upgraded: upgraded}

	existing, err := s.storage.GetBinder(ctx, b.ID)
	switch {
	case errors.Is(err, storage.ErrBinderNotFound):
		res.Record, err = s.storage.CreateBinder(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to store binder: %w", err)
		}
		res.Created = true
	case err != nil:
		return nil, err
	case sameBinder(existing.Binder, b):
		res.Record = existing
		res.Unchanged = true
		s.logger.Debug("import unchanged", zap.String("id", b.ID))
		return res, nil
	default:
		res.Record, err = s.storage.SaveBinder(ctx, b, existing.Revision)
		if err != nil {
			return nil, err
		}
	}
	s.reindex(ctx, res.Record.Binder)
	s.logger.Debug("binder imported",
		zap.String("id", b.ID), zap.Bool("created", res.Created), zap.Bool("upgraded", upgraded))
	return res, nil
}

// ImportFile imports a binder export from path. Binders without an id get one derived
// from the absolute path. If allowedExts is non-empty, the extension must be in it.
func (s *Service) ImportFile(ctx context.Context, path string, allowedExts []string) (*ImportResult, error) {
	s.logger.Debug("importing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return nil, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	res, err := s.Import(ctx, data, fileid.BinderID(absPath))
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", absPath, err)
	}
	return res, nil
}

// RemoveFile deletes the binder that was imported from path under a path-derived id.
// Binders that carried their own id are left alone, and Create refuses ids in the
// path-derived namespace. Returns false when nothing was deleted.
func (s *Service) RemoveFile(ctx context.Context, path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("absolute path: %w", err)
	}
	err = s.Delete(ctx, fileid.BinderID(absPath))
	if errors.Is(err, storage.ErrBinderNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ImportDirectory walks dir recursively and imports each regular file whose extension
// is in allowedExts (all files when empty). Files are imported concurrently by up to
// import_workers goroutines. Returns the number of files imported and the first error.
func (s *Service) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (int, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}

	var paths []string
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		// Resolve symlinks so only regular files are imported.
		if finfo, statErr := os.Stat(path); statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return 0, err
	}

	var n atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.config.ImportWorkers, 1))
	for _, path := range paths {
		g.Go(func() error {
			if _, err := s.ImportFile(gctx, path, allowedExts); err != nil {
				return err
			}
			n.Add(1)
			return nil
		})
	}
	err = g.Wait()
	return int(n.Load()), err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// sameBinder compares the JSON forms, which is what storage round-trips.
func sameBinder(a, b *models.Binder) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}
