package watcher

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const (
	rewatchAttempts = 5
	rewatchInterval = 200 * time.Millisecond
)

// Event reports that a watched flow log changed and should be reloaded.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher monitors flow log files for changes using OS-level notifications.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	paths  []string
}

// New creates a Watcher for the given glob patterns.
// Patterns are expanded at startup and the resulting files are watched.
func New(patterns []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 64),
	}

	for _, pattern := range patterns {
		matches, err := Expand(pattern)
		if err != nil {
			log.Printf("warning: failed to expand pattern %q: %v", pattern, err)
			continue
		}
		for _, m := range matches {
			abs, _ := filepath.Abs(m)
			if err := fsw.Add(abs); err != nil {
				log.Printf("warning: cannot watch %s: %v", abs, err)
				continue
			}
			w.paths = append(w.paths, abs)
		}
	}

	return w, nil
}

// Start forwards change events until the context is cancelled.
// Files replaced by rename or remove (as editors and exporters do) are
// re-added once they reappear, and reported as a Create.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	rewatched := make(chan string)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.emit(ctx, Event{Path: ev.Name, Op: ev.Op})
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				go w.rewatch(ctx, ev.Name, rewatched)
			}
		case path := <-rewatched:
			w.emit(ctx, Event{Path: path, Op: fsnotify.Create})
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}

// Paths returns the list of files currently being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.Events <- ev:
	case <-ctx.Done():
	}
}

// rewatch polls for a replaced file to reappear and adds it back.
func (w *Watcher) rewatch(ctx context.Context, path string, done chan<- string) {
	for i := 0; i < rewatchAttempts; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(rewatchInterval):
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := w.fsw.Add(path); err != nil {
			log.Printf("warning: cannot re-watch %s: %v", path, err)
			return
		}
		select {
		case done <- path:
		case <-ctx.Done():
		}
		return
	}
	log.Printf("gave up re-watching %s after %d attempts", path, rewatchAttempts)
}

// Expand resolves a glob pattern to matching file paths.
// Supports recursive patterns like logs/**/*.json via doublestar.
func Expand(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
