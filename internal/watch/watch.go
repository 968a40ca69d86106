// Package watch re-runs an action whenever a file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Func is the action run after the watched file settles.
type Func func(ctx context.Context) error

// Watcher watches one file through its parent directory so editors that save
// by renaming a temp file over the original are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
	onError  func(error)
	ready    func()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logger }
}

// WithErrorHandler receives errors returned by the action. Watching continues
// after an error.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// WithReady is called once the watch is established.
func WithReady(fn func()) Option {
	return func(w *Watcher) { w.ready = fn }
}

// New creates a watcher for path. Events closer together than debounce
// trigger a single run.
func New(path string, debounce time.Duration, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		debounce: debounce,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With("component", "watch")
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Run calls fn after every burst of changes to the file until ctx is done.
// It returns nil when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn Func) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Debug("watching", "path", w.path, "debounce", w.debounce)
	if w.ready != nil {
		w.ready()
	}

	// fire is nil while no change is pending.
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("change detected", "event", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.handleError(err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) handleError(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	w.logger.Error("action failed", "error", err)
}
