// Package watcher keeps binders in sync with inbox directories of exported binder
// files. New or rewritten files are imported after a debounce; removed files delete
// the binder imported from them.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives inbox changes. *editor.Service implements it through adapters in
// the server and CLI.
type Handler interface {
	ImportFile(ctx context.Context, path string) error
	RemoveFile(ctx context.Context, path string) error
}

// HandlerFuncs adapts two functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Import func(ctx context.Context, path string) error
	Remove func(ctx context.Context, path string) error
}

func (h HandlerFuncs) ImportFile(ctx context.Context, path string) error {
	if h.Import == nil {
		return nil
	}
	return h.Import(ctx, path)
}

func (h HandlerFuncs) RemoveFile(ctx context.Context, path string) error {
	if h.Remove == nil {
		return nil
	}
	return h.Remove(ctx, path)
}

// Watcher watches inbox roots and forwards matching file events to a Handler.
type Watcher struct {
	handler    Handler
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	roots   map[string][]string // root -> directories registered with fsnotify
	order   []string
	pending map[string]*time.Timer
	fsw     *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets how long a file must be quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher. extensions filters file names (empty means all files).
func New(handler Handler, extensions []string, recursive bool, opts ...Option) *Watcher {
	w := &Watcher{
		handler:    handler,
		extensions: extensions,
		recursive:  recursive,
		debounce:   defaultDebounce,
		logger:     zap.NewNop(),
		roots:      make(map[string][]string),
		pending:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching roots. It returns once the roots are registered; events are
// handled until ctx is cancelled or Stop is called. Calling Start twice is a no-op.
func (w *Watcher) Start(ctx context.Context, roots ...string) error {
	w.mu.Lock()
	if w.fsw != nil {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	for _, root := range roots {
		if err := w.AddDirectory(root, false); err != nil {
			w.Stop()
			return err
		}
	}
	w.logger.Debug("watcher started",
		zap.Strings("roots", w.Directories()), zap.Strings("extensions", w.extensions), zap.Bool("recursive", w.recursive))

	w.wg.Add(1)
	go w.run(fsw)
	return nil
}

func (w *Watcher) run(fsw *fsnotify.Watcher) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			go w.Stop()
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if w.rootOf(path) == "" {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	switch {
	case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if w.recursive {
				w.watchNewDirectory(path)
			}
			return
		}
		if matchExtension(path, w.extensions) {
			w.schedule(path)
		}
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		w.cancelPending(path)
		if matchExtension(path, w.extensions) {
			w.remove(path)
		}
	}
}

// watchNewDirectory registers a directory created under a recursive root and imports
// whatever was written into it before it was watched.
func (w *Watcher) watchNewDirectory(dir string) {
	root := w.rootOf(dir)
	added := w.addTree(dir)
	w.mu.Lock()
	if root != "" && w.fsw != nil {
		w.roots[root] = append(w.roots[root], added...)
	}
	w.mu.Unlock()
	w.sync(dir)
}

func (w *Watcher) addTree(dir string) []string {
	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	if fsw == nil {
		return nil
	}
	var added []string
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			return nil
		}
		added = append(added, path)
		return nil
	})
	return added
}

func (w *Watcher) rootOf(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, root := range w.order {
		if root == path || inDir(root, path) {
			return root
		}
	}
	return ""
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		ctx := w.ctx
		w.mu.Unlock()
		if ctx == nil || ctx.Err() != nil {
			return
		}
		w.importFile(ctx, path)
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) {
	if err := w.handler.ImportFile(ctx, path); err != nil {
		w.logger.Warn("failed to import file", zap.String("path", path), zap.Error(err))
		return
	}
	w.logger.Debug("file imported", zap.String("path", path))
}

func (w *Watcher) remove(path string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx == nil {
		return
	}
	if err := w.handler.RemoveFile(ctx, path); err != nil {
		w.logger.Warn("failed to remove binder for file", zap.String("path", path), zap.Error(err))
	}
}

// AddDirectory starts watching root, creating it if needed. With syncExisting, files
// already in root are imported in the background.
func (w *Watcher) AddDirectory(root string, syncExisting bool) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}

	w.mu.Lock()
	if w.fsw == nil {
		w.mu.Unlock()
		return nil
	}
	if _, ok := w.roots[abs]; ok {
		w.mu.Unlock()
		return nil
	}
	fsw := w.fsw
	w.mu.Unlock()

	var dirs []string
	if w.recursive {
		dirs = w.addTree(abs)
	} else if err := fsw.Add(abs); err == nil {
		dirs = []string{abs}
	} else {
		return err
	}

	w.mu.Lock()
	w.roots[abs] = dirs
	w.order = append(w.order, abs)
	w.mu.Unlock()
	w.logger.Debug("watcher directory added", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))

	if syncExisting {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.sync(abs)
		}()
	}
	return nil
}

// sync imports every matching file under dir.
func (w *Watcher) sync(dir string) {
	w.mu.Lock()
	ctx := w.ctx
	w.mu.Unlock()
	if ctx == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != dir && !w.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExtension(path, w.extensions) {
			w.importFile(ctx, path)
		}
		return nil
	})
}

// SyncExisting imports the matching files already present in every root.
func (w *Watcher) SyncExisting() {
	for _, root := range w.Directories() {
		w.sync(root)
	}
}

// RemoveDirectory stops watching root. Binders already imported from it are kept.
func (w *Watcher) RemoveDirectory(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	abs = filepath.Clean(abs)
	w.mu.Lock()
	defer w.mu.Unlock()
	dirs, ok := w.roots[abs]
	if !ok || w.fsw == nil {
		return nil
	}
	for _, d := range dirs {
		_ = w.fsw.Remove(d)
	}
	for path, t := range w.pending {
		if path == abs || inDir(abs, path) {
			t.Stop()
			delete(w.pending, path)
		}
	}
	delete(w.roots, abs)
	for i, r := range w.order {
		if r == abs {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.logger.Debug("watcher directory removed", zap.String("path", abs))
	return nil
}

// Directories returns the watched roots in the order they were added.
func (w *Watcher) Directories() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.order...)
}

// Stop cancels pending imports, closes the fsnotify watcher and waits for background
// work to finish. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw := w.fsw
	if fsw == nil {
		w.mu.Unlock()
		return
	}
	w.fsw = nil
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	_ = fsw.Close()
	w.wg.Wait()
}
