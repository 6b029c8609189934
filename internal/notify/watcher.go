package notify

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher bridges writes made by other processes into a Hub.
//
// The in-process store publishes its own writes directly. A second pantry
// process writing the same database is only visible through the file
// system: FileWatcher watches the database directory and, when the database
// file or its WAL/journal changes, publishes every topic that currently has
// subscribers.
type FileWatcher struct {
	hub     *Hub
	dbPath  string
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewFileWatcher creates a watcher for the database at dbPath.
func NewFileWatcher(hub *Hub, dbPath string, logger *slog.Logger) (*FileWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	return &FileWatcher{hub: hub, dbPath: abs, watcher: w, logger: logger}, nil
}

// Run watches until ctx is cancelled or the watcher is closed.
// Blocks; run it in a goroutine.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	dir := filepath.Dir(w.dbPath)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Debug("watching database for external writes", "path", w.dbPath)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("database watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Debug("database watcher stopping")
			return nil
		}
	}
}

func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !w.relevant(event.Name) {
		return
	}
	topics := w.hub.Topics()
	w.logger.Debug("database changed externally", "path", event.Name, "topics", len(topics))
	for _, t := range topics {
		w.hub.Publish(t)
	}
}

// relevant reports whether name is the database file or one of its sidecars.
func (w *FileWatcher) relevant(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	if abs == w.dbPath {
		return true
	}
	for _, suffix := range []string{"-wal", "-journal"} {
		if abs == w.dbPath+suffix {
			return true
		}
	}
	return false
}
