// Package watcher monitors a notes directory for changes and keeps the
// index current without re-running a full scan.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/mdb/internal/index"
	"github.com/aidanlsb/mdb/internal/scanner"
)

// Watcher reindexes markdown files as they change on disk.
type Watcher struct {
	baseDir string
	absBase string
	db      *index.Database

	debounceDelay time.Duration
	debug         bool

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex

	onReindex func(path string, err error)
}

// Config holds configuration options for the Watcher.
type Config struct {
	BaseDir       string
	Database      *index.Database
	DebounceDelay time.Duration // Default: 100ms
	Debug         bool
	OnReindex     func(path string, err error) // Optional callback
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("base directory is required")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database is required")
	}

	absBase, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	debounce := cfg.DebounceDelay
	if debounce == 0 {
		debounce = 100 * time.Millisecond
	}

	return &Watcher{
		baseDir:       cfg.BaseDir,
		absBase:       absBase,
		db:            cfg.Database,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		pending:       make(map[string]time.Time),
		onReindex:     cfg.OnReindex,
	}, nil
}

// Start begins watching the base directory for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.addWatchRecursive(w.baseDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.baseDir, err)
	}

	w.logDebug("Watching: %s", w.baseDir)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("Watcher error: %v", err)
		}
	}
}

// ReindexFile indexes a single file and refreshes backlinks.
// This can be called directly without starting the watcher.
func (w *Watcher) ReindexFile(path string) error {
	path = w.resolvePath(path)
	if !strings.HasSuffix(path, ".md") {
		return nil
	}
	if w.shouldIgnore(path) {
		return nil
	}

	if _, err := scanner.IndexFile(path, w.db, true); err != nil {
		return fmt.Errorf("failed to index %s: %w", path, err)
	}
	if _, err := scanner.RefreshBacklinks(w.db); err != nil {
		return fmt.Errorf("failed to refresh backlinks: %w", err)
	}
	return nil
}

// RemoveFromIndex removes a file from the index and refreshes the
// backlink sets of documents that pointed at it.
func (w *Watcher) RemoveFromIndex(path string) error {
	if err := w.db.RemoveDocument(w.resolvePath(path)); err != nil {
		return err
	}
	_, err := scanner.RefreshBacklinks(w.db)
	return err
}

// resolvePath maps an event name or caller-supplied path onto the form
// the index stores: the base directory as configured, joined with the
// file's location inside it. Event names already carry the base-dir
// prefix when the configured base dir is relative, so paths are first
// absolutized and then re-rooted rather than joined blindly.
func (w *Watcher) resolvePath(path string) string {
	abs := path
	if !filepath.IsAbs(abs) {
		var err error
		if abs, err = filepath.Abs(path); err != nil {
			return filepath.Join(w.baseDir, path)
		}
	}
	rel, err := filepath.Rel(w.absBase, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Outside the base directory. A relative argument is taken as
		// base-dir-relative; an absolute one is left alone.
		if filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(w.baseDir, path)
	}
	return filepath.Join(w.baseDir, rel)
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".md") {
		// But watch new directories.
		if event.Op&fsnotify.Create != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.addWatchRecursive(path)
			}
		}
		return
	}

	if w.shouldIgnore(path) {
		return
	}

	w.logDebug("Event: %s %s", event.Op, path)

	switch {
	case event.Op&fsnotify.Write != 0, event.Op&fsnotify.Create != 0:
		w.scheduleReindex(path)
	case event.Op&fsnotify.Remove != 0, event.Op&fsnotify.Rename != 0:
		if err := w.RemoveFromIndex(path); err != nil {
			w.logDebug("Failed to remove from index: %v", err)
		}
	}
}

// scheduleReindex adds a file to the pending reindex queue with debouncing.
func (w *Watcher) scheduleReindex(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = time.Now()
}

// processDebounced processes pending reindex requests after debounce delay.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processPending()
		}
	}
}

// processPending checks for files ready to reindex (past debounce delay).
func (w *Watcher) processPending() {
	w.mu.Lock()
	now := time.Now()
	ready := make([]string, 0)

	for path, scheduledAt := range w.pending {
		if now.Sub(scheduledAt) >= w.debounceDelay {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		err := w.ReindexFile(path)
		if w.onReindex != nil {
			w.onReindex(path, err)
		}
		if err != nil {
			w.logDebug("Failed to reindex %s: %v", path, err)
		} else {
			w.logDebug("Reindexed: %s", path)
		}
	}
}

// addWatchRecursive adds a directory and all subdirectories to the watcher.
func (w *Watcher) addWatchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip errors
		}
		if info.IsDir() {
			if w.shouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsWatcher.Add(path); err != nil {
				w.logDebug("Failed to watch %s: %v", path, err)
			}
		}
		return nil
	})
}

// shouldIgnore returns true if the path should be ignored.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return false
	}

	parts := strings.Split(rel, string(filepath.Separator))
	for _, part := range parts {
		if strings.HasPrefix(part, ".") && part != "." {
			return true
		}
		if part == "node_modules" {
			return true
		}
	}
	return false
}

// shouldIgnoreDir returns true if the directory should not be watched.
func (w *Watcher) shouldIgnoreDir(path string) bool {
	if path == w.baseDir {
		return false
	}
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || base == "node_modules"
}

// logDebug logs a debug message if debug mode is enabled.
func (w *Watcher) logDebug(format string, args ...interface{}) {
	if w.debug {
		fmt.Fprintf(os.Stderr, "[mdb-watcher] "+format+"\n", args...)
	}
}
