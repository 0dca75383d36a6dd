// Package watch reports changes to the fragment files of a site directory.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fragnav/internal/logging"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc is called with the site-relative location of a changed file, such as
// "./views/home.html".
type ChangeFunc func(ctx context.Context, location string)

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Changes       int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Options configures a Watcher.
type Options struct {
	// Debounce is how long a file must stay quiet before its change is reported.
	Debounce time.Duration
	// Extensions limits the watched files. Defaults to .html and .htm.
	Extensions []string
	Logger     *zap.Logger
}

// Watcher watches a site directory tree for fragment changes.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	root        string
	onChange    ChangeFunc
	extensions  map[string]bool
	debounceMap map[string]time.Time
	debounceDur time.Duration
	logger      *zap.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// New creates a Watcher for root. onChange runs on the watcher goroutine.
func New(root string, onChange ChangeFunc, opts Options) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".html", ".htm"}
	}
	extensions := make(map[string]bool, len(exts))
	for _, e := range exts {
		extensions[strings.ToLower(e)] = true
	}
	return &Watcher{
		watcher:     fw,
		root:        root,
		onChange:    onChange,
		extensions:  extensions,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		logger:      logging.OrNop(opts.Logger),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				return err
			}
			w.logger.Debug("watching directory", zap.String("dir", path))
		}
		return nil
	})
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
	w.logger.Debug("watcher stopped")
}

// Stats returns a snapshot of the watcher activity.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err == nil {
				w.logger.Debug("watching new directory", zap.String("dir", event.Name))
			}
			return
		}
	}
	if !w.extensions[strings.ToLower(filepath.Ext(event.Name))] {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}
	w.debounceMap[event.Name] = time.Now()
}

// processDebounced reports the files that stayed quiet for the debounce window.
func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.stats.Changes += len(settled)
	w.mu.Unlock()

	for _, path := range settled {
		location, err := Location(w.root, path)
		if err != nil {
			w.logger.Warn("changed file outside site root", zap.String("path", path), zap.Error(err))
			continue
		}
		w.logger.Info("fragment changed", zap.String("location", location))
		if w.onChange != nil {
			w.onChange(ctx, location)
		}
	}
}

// Location maps a file below root to the relative location a shell navigates to.
func Location(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside %s", path, root)
	}
	return "./" + filepath.ToSlash(rel), nil
}
