// Package watch reloads a data file when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the time a file must stay unchanged before reload.
const DefaultDebounce = 200 * time.Millisecond

// minTick is the shortest interval of settled events check.
const minTick = time.Millisecond

// ReloadFunc loads the file again.
type ReloadFunc func(ctx context.Context, path string) error

// Stats is watcher activity.
type Stats struct {
	Events    int
	Reloads   int
	Errors    int
	LastError string
	LastTime  time.Time
}

// Watcher watches the parent directory of a file: editors and exporters often
// replace the file by rename, which removes a watch set on the file itself.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	reload   ReloadFunc
	log      *zap.Logger
	pending  time.Time // time of last event not reloaded yet
	stats    Stats
}

// New creates a watcher of path, debounce <= 0 means DefaultDebounce.
func New(path string, debounce time.Duration, reload ReloadFunc, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	return &Watcher{
		watcher:  fw,
		path:     abs,
		debounce: debounce,
		reload:   reload,
		log:      log,
	}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	tick := time.NewTicker(max(w.debounce/2, minTick))
	defer tick.Stop()

	w.log.Info("watching data file", zap.String("path", w.path), zap.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.stats.LastError = err.Error()
			w.mu.Unlock()

		case <-tick.C:
			w.reloadSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.log.Debug("data file event", zap.String("op", ev.Op.String()))

	w.mu.Lock()
	w.pending = time.Now()
	w.stats.Events++
	w.mu.Unlock()
}

// reloadSettled reloads the file if there was no event during debounce interval.
func (w *Watcher) reloadSettled(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	err := w.reload(ctx, w.path)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastTime = time.Now()
	if err != nil {
		w.stats.Errors++
		w.stats.LastError = err.Error()
		w.log.Error("data reload failed", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.stats.Reloads++
	w.log.Info("data reloaded", zap.String("path", w.path))
}

// Stats returns a copy of watcher activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
