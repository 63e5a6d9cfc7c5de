package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"localcoder/internal/logging"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// skippedDirs are never watched or scanned.
var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, ".idea": true,
	".vscode": true, "__pycache__": true, ".venv": true,
}

// Watcher monitors file system changes in a directory.
type Watcher struct {
	fsWatcher  *fsnotify.Watcher
	dir        string
	patterns   []string
	debounce   time.Duration
	maxWatches int
	handler    Handler
	pending    map[string]time.Time
	mu         sync.Mutex
	done       chan struct{}
	running    bool
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// New creates a watcher for cfg.Dir. Invalid patterns are rejected.
func New(cfg Config, handler Handler) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New(cfg.Dir + " is not a directory")
	}
	for _, p := range cfg.Patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New("invalid watch pattern: " + p)
		}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:  fsWatcher,
		dir:        filepath.Clean(cfg.Dir),
		patterns:   cfg.Patterns,
		debounce:   cfg.Debounce,
		maxWatches: cfg.MaxWatches,
		handler:    handler,
		pending:    make(map[string]time.Time),
		done:       make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.maxWatches <= 0 {
		w.maxWatches = defaultMaxWatches
	}
	return w, nil
}

// Matches reports whether path, absolute or relative to the watched
// directory, matches the include patterns.
func (w *Watcher) Matches(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." || (len(rel) >= 2 && rel[:2] == "..") {
		return false
	}
	if len(w.patterns) == 0 {
		return true
	}
	rel = filepath.ToSlash(rel)
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Scan returns the existing files that match, sorted.
func (w *Watcher) Scan() ([]string, error) {
	var files []string
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != w.dir && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !isTemporary(path) && w.Matches(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Start begins watching for file changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirectories(); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processDebounce()

	logging.Info("watching directory", "dir", w.dir, "patterns", w.patterns, "dirs", len(w.fsWatcher.WatchList()))
	return nil
}

// Stop stops watching and waits for the handler to return.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()

		close(w.done)
		err = w.fsWatcher.Close()
		w.wg.Wait()
	})
	return err
}

// addDirectories adds directories to the watcher up to maxWatches.
func (w *Watcher) addDirectories() error {
	watchCount := 0
	return filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if watchCount >= w.maxWatches {
			return filepath.SkipDir
		}
		if path != w.dir && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			logging.Debug("cannot watch directory", "path", path, "error", err)
			return nil
		}
		watchCount++
		return nil
	})
}

// processEvents processes raw fsnotify events.
func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error", "error", err)
		}
	}
}

// handleEvent handles a single fsnotify event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name
	if isTemporary(path) {
		return
	}

	// New directories join the watch list
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skippedDirs[info.Name()] && len(w.fsWatcher.WatchList()) < w.maxWatches {
				_ = w.fsWatcher.Add(path)
			}
			return
		}
	}
	if event.Op == fsnotify.Chmod || !w.Matches(path) {
		return
	}

	w.mu.Lock()
	w.pending[path] = time.Now()
	w.mu.Unlock()
}

// processDebounce flushes settled events.
func (w *Watcher) processDebounce() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.flushPending()
		}
	}
}

// flushPending sends events for paths that have been stable.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if w.handler == nil || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := time.Now()
	var toSend []string
	for path, eventTime := range w.pending {
		if now.Sub(eventTime) >= w.debounce {
			toSend = append(toSend, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(toSend)
	for _, path := range toSend {
		op := OpModify
		if _, err := os.Stat(path); os.IsNotExist(err) {
			op = OpDelete
		}
		w.handler(Event{Path: path, Operation: op, Time: now})
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// isTemporary matches editor swap and backup files.
func isTemporary(path string) bool {
	base := filepath.Base(path)
	return base == "" || base[0] == '.' || base[0] == '#' || base[len(base)-1] == '~'
}
