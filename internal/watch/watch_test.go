package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type closingStore struct {
	*graph.MemoryStore
	closed atomic.Bool
}

func (c *closingStore) Close() error {
	c.closed.Store(true)
	return nil
}

// runWatcher starts w and returns a stop function that waits for Run to exit.
func runWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

// touch returns a writer that changes dir/index.json on every call. Tests
// call it repeatedly because the watch may not be registered yet.
func touch(t *testing.T, dir string) func() {
	i := 0
	return func() {
		i++
		p := filepath.Join(dir, "index.json")
		require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf(`{"title":"v%d"}`, i)), 0o644))
	}
}

func TestWatcher_RebuildsAndSwaps(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "videos", "intro"), 0o755))

	initial := &closingStore{MemoryStore: graph.NewMemoryStore()}
	next := graph.NewMemoryStore()
	hot := graph.NewHotSwapGraph(initial)

	var calls atomic.Int32
	w := New(dir, func(ctx context.Context) (graph.Graph, error) {
		calls.Add(1)
		return next, nil
	}, hot, nil)
	w.Debounce = 20 * time.Millisecond
	stop := runWatcher(t, w)

	write := touch(t, filepath.Join(dir, "videos", "intro"))
	require.Eventually(t, func() bool {
		write()
		return w.Rebuilds() > 0
	}, 5*time.Second, 50*time.Millisecond)
	stop()

	assert.Same(t, next, hot.Current())
	assert.True(t, initial.closed.Load(), "previous graph should be closed")
	assert.GreaterOrEqual(t, int(calls.Load()), 1)
}

func TestWatcher_FailedRebuildKeepsGraph(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "videos", "intro"), 0o755))

	initial := graph.NewMemoryStore()
	hot := graph.NewHotSwapGraph(initial)

	var calls atomic.Int32
	w := New(dir, func(ctx context.Context) (graph.Graph, error) {
		calls.Add(1)
		return nil, errors.New("bad content")
	}, hot, nil)
	w.Debounce = 20 * time.Millisecond
	stop := runWatcher(t, w)

	write := touch(t, filepath.Join(dir, "videos", "intro"))
	require.Eventually(t, func() bool {
		write()
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)
	stop()

	assert.Same(t, initial, hot.Current())
	assert.Equal(t, 0, w.Rebuilds())
}

func TestWatcher_WatchesNewDirectories(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	hot := graph.NewHotSwapGraph(graph.NewMemoryStore())

	var calls atomic.Int32
	w := New(dir, func(ctx context.Context) (graph.Graph, error) {
		calls.Add(1)
		return graph.NewMemoryStore(), nil
	}, hot, nil)
	w.Debounce = 20 * time.Millisecond
	stop := runWatcher(t, w)
	defer stop()

	// Directories are created after the watcher starts.
	var sub string
	n := 0
	require.Eventually(t, func() bool {
		n++
		sub = filepath.Join(dir, fmt.Sprintf("new-%d", n))
		require.NoError(t, os.Mkdir(sub, 0o755))
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	// Changes inside a directory created at runtime are seen too.
	before := calls.Load()
	write := touch(t, sub)
	require.Eventually(t, func() bool {
		write()
		return calls.Load() > before
	}, 5*time.Second, 50*time.Millisecond)
}
