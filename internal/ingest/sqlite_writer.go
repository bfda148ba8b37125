package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// SQLiteWriter persists a content graph snapshot that graph.SQLiteGraph can
// query later. It implements IngestionTarget, so the engine can stream into
// it directly, and pages.Sink.
type SQLiteWriter struct {
	db        *sql.DB
	tx        *sql.Tx
	stmtNode  *sql.Stmt
	stmtPage  *sql.Stmt
	batchSize int
	count     int
	mu        sync.Mutex
}

// NewSQLiteWriter creates a new writer and initializes the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// One connection: GetNode must see the uncommitted batch.
	db.SetMaxOpenConns(1)

	// Performance tuning for bulk insert
	if _, err := db.Exec("PRAGMA synchronous = OFF"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA journal_mode = MEMORY"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(graph.SQLiteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := &SQLiteWriter{
		db:        db,
		batchSize: 10000,
	}
	if err := w.beginTx(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLiteWriter) beginTx() error {
	var err error
	w.tx, err = w.db.Begin()
	if err != nil {
		return err
	}
	w.stmtNode, err = w.tx.Prepare(`
		INSERT OR REPLACE INTO nodes (id, type, parent_id, digest, record)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	w.stmtPage, err = w.tx.Prepare(`INSERT OR REPLACE INTO pages (path, kind, context) VALUES (?, ?, ?)`)
	return err
}

func (w *SQLiteWriter) commitTx() error {
	if w.stmtNode != nil {
		_ = w.stmtNode.Close()
	}
	if w.stmtPage != nil {
		_ = w.stmtPage.Close()
	}
	return w.tx.Commit()
}

// bump counts a write and rolls the batch transaction over when full.
// Must be called with w.mu held.
func (w *SQLiteWriter) bump() error {
	w.count++
	if w.count < w.batchSize {
		return nil
	}
	if err := w.commitTx(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	w.count = 0
	return w.beginTx()
}

// AddNode writes a node to the database.
func (w *SQLiteWriter) AddNode(n *graph.Node) error {
	record, err := json.Marshal(n.Fields)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	var parentID *string
	if n.Parent != "" {
		p := n.Parent
		parentID = &p
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.stmtNode.Exec(n.ID, string(n.Type), parentID, n.Digest, string(record)); err != nil {
		return fmt.Errorf("insert node %s: %w", n.ID, err)
	}
	return w.bump()
}

// CreatePage implements pages.Sink.
func (w *SQLiteWriter) CreatePage(_ context.Context, p api.Page) error {
	ctxJSON, err := json.Marshal(p.Context)
	if err != nil {
		return fmt.Errorf("encode page context %s: %w", p.Path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.stmtPage.Exec(p.Path, string(p.Kind), string(ctxJSON)); err != nil {
		return fmt.Errorf("insert page %s: %w", p.Path, err)
	}
	return w.bump()
}

// GetNode looks a node up inside the open batch so the classifier can
// resolve File nodes written moments ago.
func (w *SQLiteWriter) GetNode(ctx context.Context, id string) (*graph.Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var (
		typ, digest, record string
		parent              sql.NullString
	)
	err := w.tx.QueryRowContext(ctx,
		"SELECT type, parent_id, digest, record FROM nodes WHERE id = ?", id,
	).Scan(&typ, &parent, &digest, &record)
	if err == sql.ErrNoRows {
		return nil, graph.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	parsed, err := oj.ParseString(record)
	if err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	fields, _ := parsed.(map[string]any)
	return &graph.Node{ID: id, Type: api.Type(typ), Parent: parent.String, Digest: digest, Fields: fields}, nil
}

// WriteGraph copies every node of a built graph into the snapshot.
func (w *SQLiteWriter) WriteGraph(store *graph.MemoryStore) error {
	for _, n := range store.Nodes() {
		if err := w.AddNode(n); err != nil {
			return err
		}
	}
	return nil
}

func (w *SQLiteWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}

	// Create indices after bulk load for speed
	if _, err := w.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
		CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent_id);
	`); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("create indices: %w", err)
	}
	return w.db.Close()
}

// Interface compliance
var _ IngestionTarget = (*SQLiteWriter)(nil)
