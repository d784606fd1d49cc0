// Package watch feeds relevant filesystem changes into the event bus.
package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/allenbenz/cargo-testify/internal/domain"
)

// Filter classifies a path (relative to the project root) as relevant or not.
type Filter interface {
	Relevant(path string) bool
}

// Emitter receives relevant change events.
type Emitter interface {
	Emit(ctx context.Context, event domain.ChangeEvent) error
}

// MetricsSink records watch metrics.
type MetricsSink interface {
	ChangeObserved(relevant bool)
}

/// Watcher wraps fsnotify: it registers the project tree recursively (fsnotify
// itself is not recursive), keeps up with newly created directories, and
// forwards filtered events to the emitter.
type Watcher struct {
	root    string
	fsw     *fsnotify.Watcher
	filter  Filter
	emitter Emitter
	metrics MetricsSink // optional, nil = disabled
}

// New creates a watcher rooted at the project directory. Ignored directories
// are never registered, so events inside them are not even observed.
func New(root string, filter Filter, emitter Emitter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		fsw:     fsw,
		filter:  filter,
		emitter: emitter,
	}

	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// WithMetrics attaches a metrics sink to the watcher.
func (w *Watcher) WithMetrics(sink MetricsSink) *Watcher {
	w.metrics = sink
	return w
}

// Close stops the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run forwards events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	log.Printf("watch: started (root=%s)", w.root)

	for {
		select {
		case <-ctx.Done():
			log.Println("watch: stopped")
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				log.Println("watch: event stream closed, stopping")
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watch: error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	// Chmod-only events carry no content change.
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel := w.relPath(event.Name)
	relevant := w.filter.Relevant(rel)
	if w.metrics != nil {
		w.metrics.ChangeObserved(relevant)
	}
	if !relevant {
		return
	}

	// New subdirectories must be registered to keep the watch recursive.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Printf("watch: add %s: %v", event.Name, err)
			}
		}
	}

	change := domain.ChangeEvent{Path: rel, ObservedAt: time.Now()}
	if err := w.emitter.Emit(ctx, change); err != nil {
		log.Printf("watch: dropped change for %s: %v", rel, err)
	}
}

// addRecursive registers dir and every non-ignored subdirectory below it.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && !w.filter.Relevant(w.relPath(path)) {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return path
	}
	return rel
}
