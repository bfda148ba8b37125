package ingest

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/gabriel-vasile/mimetype"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"
)

// Source is a named source instance: a directory of the content filesystem
// whose name becomes the directory tag of every record read from it.
type Source struct {
	Name string
	Path string
}

// Engine drives the ingestion process.
type Engine struct {
	FS      billy.Filesystem
	Sources []Source
	Store   IngestionTarget
	Log     *zap.Logger

	classifier *Classifier
	// images waits for every JSON and MDX record, since an image may sort
	// before the record it illustrates.
	images []Record
}

func NewEngine(fsys billy.Filesystem, sources []Source, store IngestionTarget, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		FS:         fsys,
		Sources:    sources,
		Store:      store,
		Log:        log,
		classifier: NewClassifier(store, log),
	}
}

// Ingest walks every source and classifies each content file. Files are
// visited in lexical order so repeated runs insert nodes identically.
// Images are classified last, once their owners exist. Any error aborts
// the whole load.
func (e *Engine) Ingest(ctx context.Context) error {
	e.images = nil
	for _, src := range e.Sources {
		if err := e.ingestSource(ctx, src); err != nil {
			return fmt.Errorf("ingest source %s: %w", src.Name, err)
		}
	}
	images := e.images
	e.images = nil
	if err := e.IngestRecords(ctx, images); err != nil {
		return fmt.Errorf("ingest images: %w", err)
	}
	return nil
}

func (e *Engine) ingestSource(ctx context.Context, src Source) error {
	info, err := e.FS.Stat(src.Path)
	if err != nil {
		if os.IsNotExist(err) {
			e.Log.Debug("source directory missing, skipping",
				zap.String("source", src.Name), zap.String("path", src.Path))
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source path %s is not a directory", src.Path)
	}
	return e.walk(ctx, src, src.Path)
}

func (e *Engine) walk(ctx context.Context, src Source, dir string) error {
	entries, err := e.FS.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := e.FS.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := e.walk(ctx, src, p); err != nil {
				return err
			}
			continue
		}
		if err := e.ingestFile(ctx, src, p); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) ingestFile(ctx context.Context, src Source, p string) error {
	rel, err := filepath.Rel(src.Path, p)
	if err != nil {
		return err
	}
	rel = filepath.ToSlash(rel)

	content, err := util.ReadFile(e.FS, p)
	if err != nil {
		return fmt.Errorf("read %s: %w", p, err)
	}

	ext := path.Ext(rel)
	kind, ok := recordKindForExt(ext)
	if !ok {
		// Images are recognized by content, whatever their extension says.
		if !strings.HasPrefix(mimetype.Detect(content).String(), "image/") {
			e.Log.Debug("skipping non-content file", zap.String("path", rel))
			return nil
		}
		kind = RecordImage
	}

	relDir := path.Dir(rel)
	if relDir == "." {
		relDir = ""
	}
	fileID := graph.NodeID("File/" + src.Name + "/" + rel)
	file := api.File{
		ID:                 fileID,
		SourceInstanceName: src.Name,
		RelativeDirectory:  relDir,
		RelativePath:       rel,
		Name:               strings.TrimSuffix(path.Base(rel), ext),
		Ext:                ext,
		MediaType:          mediaType(kind, content),
		Size:               int64(len(content)),
	}
	fields, err := graph.ToFields(file)
	if err != nil {
		return err
	}
	digest, err := graph.ContentDigest(map[string]any{"path": rel, "content": content})
	if err != nil {
		return err
	}
	if err := e.Store.AddNode(&graph.Node{ID: fileID, Type: api.TypeFile, Digest: digest, Fields: fields}); err != nil {
		return fmt.Errorf("add file node %s: %w", rel, err)
	}

	rec := Record{Kind: kind, Parent: fileID}
	switch kind {
	case RecordJSON:
		parsed, err := oj.Parse(content)
		if err != nil {
			return fmt.Errorf("failed to parse json %s: %w", rel, err)
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			return fmt.Errorf("json %s: top-level value must be an object", rel)
		}
		rec.Data = obj
	case RecordMDX:
		rec.Raw = content
	case RecordImage:
		e.images = append(e.images, rec)
		return nil
	}
	return e.classifier.Classify(ctx, rec)
}

func recordKindForExt(ext string) (RecordKind, bool) {
	switch strings.ToLower(ext) {
	case ".json":
		return RecordJSON, true
	case ".mdx", ".md":
		return RecordMDX, true
	default:
		return 0, false
	}
}

func mediaType(kind RecordKind, content []byte) string {
	switch kind {
	case RecordJSON:
		return "application/json"
	case RecordMDX:
		return "text/mdx"
	default:
		return mimetype.Detect(content).String()
	}
}
