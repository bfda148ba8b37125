// Package watch rebuilds the content graph when the content directory
// changes and swaps the result into a running server.
package watch

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches the bursts of events an editor save produces.
const DefaultDebounce = 500 * time.Millisecond

// RebuildFunc produces a complete new graph.
type RebuildFunc func(ctx context.Context) (graph.Graph, error)

// Watcher watches a directory tree and, after each quiet period following
// a change, rebuilds the graph and swaps it into Target. A failed rebuild
// keeps the previous graph.
type Watcher struct {
	Root     string
	Debounce time.Duration
	Rebuild  RebuildFunc
	Target   *graph.HotSwapGraph
	Log      *zap.Logger

	mu       sync.Mutex
	rebuilds int
}

func New(root string, rebuild RebuildFunc, target *graph.HotSwapGraph, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{Root: root, Debounce: DefaultDebounce, Rebuild: rebuild, Target: target, Log: log}
}

// Rebuilds returns the number of successful swaps so far.
func (w *Watcher) Rebuilds() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rebuilds
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := w.addTree(fw, w.Root); err != nil {
		return err
	}
	w.Log.Info("watching content", zap.String("root", w.Root))

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

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New directories need their own watch.
				if err := w.addTree(fw, event.Name); err != nil {
					w.Log.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
				}
			}
			w.Log.Debug("content changed", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Log.Error("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	start := time.Now()
	g, err := w.Rebuild(ctx)
	if err != nil {
		w.Log.Error("rebuild failed, keeping previous graph", zap.Error(err))
		return
	}
	old := w.Target.Swap(g)
	if c, ok := old.(io.Closer); ok {
		if err := c.Close(); err != nil {
			w.Log.Warn("close previous graph", zap.Error(err))
		}
	}
	w.mu.Lock()
	w.rebuilds++
	w.mu.Unlock()
	w.Log.Info("graph rebuilt", zap.Duration("elapsed", time.Since(start)))
}

// addTree adds root and every directory below it. fsnotify watches are not
// recursive. Paths that vanish while walking are ignored.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return fw.Add(p)
	})
	return err
}
