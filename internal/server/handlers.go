package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyperjump/binders/internal/config"
	"github.com/hyperjump/binders/internal/editor"
	"github.com/hyperjump/binders/internal/migrate"
	"github.com/hyperjump/binders/internal/models"
	"github.com/hyperjump/binders/internal/storage"
)

const maxBodyBytes = 16 << 20

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, storage.ErrBinderNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrVersionConflict), errors.Is(err, storage.ErrBinderExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidChunkIndex),
		errors.Is(err, models.ErrMergeOutOfBounds),
		errors.Is(err, models.ErrModuleNotFound),
		errors.Is(err, editor.ErrUnknownOperation),
		errors.Is(err, migrate.ErrUnsupportedVersion):
		return http.StatusUnprocessableEntity
	case errors.As(err, &validationErrs), errors.Is(err, migrate.ErrInvalidDocument),
		errors.Is(err, editor.ErrReservedID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(msg, zap.Error(err))
	} else {
		s.logger.Debug(msg, zap.Error(err))
	}
	s.respondError(w, status, err.Error())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.editor.Status(r.Context())
	if err != nil {
		s.fail(w, "status failed", err)
		return
	}
	resp := map[string]any{
		"binders":          st.Binders,
		"log_entries":      st.LogEntries,
		"indexed_binders":  st.IndexedBinders,
		"disk_usage_bytes": st.DiskUsageBytes,
		"binders_version":  models.CurrentBindersVersion,
		"track_changes":    s.editor.TrackChanges(),
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if !s.decode(w, r, &query) {
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response, err := s.editor.Search(r.Context(), &query)
	if err != nil {
		s.fail(w, "search failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	n, err := s.editor.Reindex(r.Context())
	if err != nil {
		s.fail(w, "reindex failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]int{"indexed": n})
}

type createBinderRequest struct {
	ID       string     `json:"id,omitempty"`
	Language string     `json:"language" validate:"required,len=2"`
	Title    string     `json:"title" validate:"required"`
	Chunks   [][]string `json:"chunks,omitempty" validate:"excluded_with=Text"`
	Text     string     `json:"text,omitempty"`
}

func (s *Server) handleCreateBinder(w http.ResponseWriter, r *http.Request) {
	var req createBinderRequest
	if !s.decode(w, r, &req) {
		return
	}
	var rec *models.BinderRecord
	var err error
	if req.Text != "" {
		rec, err = s.editor.CreateFromText(r.Context(), req.ID, req.Language, req.Title, req.Text)
	} else {
		rec, err = s.editor.Create(r.Context(), req.ID, req.Language, req.Title, req.Chunks...)
	}
	if err != nil {
		s.fail(w, "create binder failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleImportBinder(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.editor.Import(r.Context(), data, "")
	if err != nil {
		s.fail(w, "import binder failed", err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	s.respondJSON(w, status, res)
}

func (s *Server) handleListBinders(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.editor.List(r.Context(), offset, limit)
	if err != nil {
		s.fail(w, "list binders failed", err)
		return
	}
	if list == nil {
		list = []models.BinderSummary{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"binders": list, "offset": offset, "limit": limit})
}

func (s *Server) handleGetBinder(w http.ResponseWriter, r *http.Request) {
	rec, err := s.editor.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "get binder failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteBinder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete binder request", zap.String("id", id))
	if err := s.editor.Delete(r.Context(), id); err != nil {
		s.fail(w, "delete binder failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handlePatchBinder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req editor.PatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.logger.Debug("patch binder request",
		zap.String("id", id), zap.Int64("revision", req.Revision), zap.Int("operations", len(req.Operations)))
	rec, err := s.editor.ApplyOps(r.Context(), id, req)
	if err != nil {
		s.fail(w, "patch binder failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBinderLog(w http.ResponseWriter, r *http.Request) {
	since, err := queryInt(r, "since", 0)
	if err != nil || since < 0 {
		s.respondError(w, http.StatusBadRequest, "since must be a non-negative integer")
		return
	}
	entries, err := s.editor.Log(r.Context(), chi.URLParam(r, "id"), uint64(since))
	if err != nil {
		s.fail(w, "binder log failed", err)
		return
	}
	if entries == nil {
		entries = []models.LogEntry{}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return v, nil
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path" validate:"required"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if !s.decode(w, r, &req) {
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.fail(w, "watch add directory failed", err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.fail(w, "watch remove directory failed", err)
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

// persistWatchDirectories writes the current roots back to the config file.
func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.watchConfig == nil {
		return
	}
	s.watchConfigMu.Lock()
	defer s.watchConfigMu.Unlock()
	s.watchConfig.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.watchConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
