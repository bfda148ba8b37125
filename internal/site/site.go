// Package site wires the pipeline stages together: ingest the content
// sources into a graph, then generate pages once the graph is complete.
package site

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/config"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/ingest"
	"github.com/aryanpingle/thecodingtrain.com/internal/pages"
	billy "github.com/go-git/go-billy/v5"
	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

// ErrLocked means another process is writing the same database.
var ErrLocked = errors.New("database is locked by another build")

// Result is a completed build: the stable graph and the pages generated
// from it.
type Result struct {
	Graph *graph.MemoryStore
	Pages []api.Page
}

// Sources converts configured sources into ingestion sources.
func Sources(cfg *config.Config) []ingest.Source {
	out := make([]ingest.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		out = append(out, ingest.Source{Name: s.Name, Path: s.Path})
	}
	return out
}

// Build loads every source of fsys into a fresh graph and generates pages.
// Page generation starts only after loading has finished, so resolvers
// never see a partial graph.
func Build(ctx context.Context, cfg *config.Config, fsys billy.Filesystem, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	start := time.Now()

	store := graph.NewMemoryStore()
	engine := ingest.NewEngine(fsys, Sources(cfg), store, log)
	if err := engine.Ingest(ctx); err != nil {
		return nil, fmt.Errorf("load content: %w", err)
	}
	log.Info("content loaded",
		zap.Int("tracks", store.Len(api.TypeTrack)),
		zap.Int("videos", store.Len(api.TypeVideo)),
		zap.Int("guides", store.Len(api.TypeGuide)),
		zap.Duration("elapsed", time.Since(start)))

	var collector pages.Collector
	if err := pages.NewGenerator(store, log).Generate(ctx, &collector); err != nil {
		return nil, err
	}
	res := &Result{Graph: store, Pages: collector.Pages()}
	log.Info("build finished", zap.Int("pages", len(res.Pages)), zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

// Persist writes the build artifacts named by out: a SQLite snapshot of the
// graph and its pages, and an NDJSON page manifest. Empty paths are skipped.
// An existing database is replaced.
func Persist(ctx context.Context, out *config.Output, res *Result) error {
	if out.Database != "" {
		if err := writeDatabase(ctx, out.Database, res); err != nil {
			return err
		}
	}
	if out.Manifest != "" {
		if err := writeManifest(ctx, out.Manifest, res.Pages); err != nil {
			return err
		}
	}
	return nil
}

func writeDatabase(ctx context.Context, path string, res *Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: %w", path, ErrLocked)
	}
	defer func() { _ = lock.Unlock() }()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale database: %w", err)
	}
	w, err := ingest.NewSQLiteWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close database: %w", cerr)
		}
	}()

	if err := w.WriteGraph(res.Graph); err != nil {
		return err
	}
	for _, p := range res.Pages {
		if err := w.CreatePage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func writeManifest(ctx context.Context, path string, ps []api.Page) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	mw := pages.NewManifestWriter(f)
	for _, p := range ps {
		if err := mw.CreatePage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
