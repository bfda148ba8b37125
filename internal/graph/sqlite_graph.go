package graph

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// SQLiteSchema is the on-disk layout of a content graph snapshot.
// record holds the node fields as JSON; queries run against it with the
// SQLite JSON functions.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	parent_id TEXT,
	digest TEXT NOT NULL,
	record JSON NOT NULL
);
CREATE TABLE IF NOT EXISTS pages (
	path TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	context JSON NOT NULL
);
`

// SQLiteGraph implements Graph on top of a snapshot written by
// ingest.SQLiteWriter. The database is opened read-only; the query
// descriptor is translated to SQL so filtering, ordering and pagination
// happen inside SQLite.
type SQLiteGraph struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLiteGraph opens a snapshot database and checks that it carries the
// expected tables.
func OpenSQLiteGraph(dbPath string) (*SQLiteGraph, error) {
	// Snapshot is immutable once written.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(4)

	var n int
	if err := db.QueryRow("SELECT count(*) FROM nodes").Scan(&n); err != nil {
		_ = db.Close() // ignore error
		return nil, fmt.Errorf("open sqlite %s: not a content graph: %w", dbPath, err)
	}
	return &SQLiteGraph{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (g *SQLiteGraph) Close() error {
	return g.db.Close()
}

const nodeColumns = "id, type, parent_id, digest, record"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(r rowScanner) (*Node, error) {
	var (
		id, typ, digest, record string
		parent                  sql.NullString
	)
	if err := r.Scan(&id, &typ, &parent, &digest, &record); err != nil {
		return nil, err
	}
	parsed, err := oj.ParseString(record)
	if err != nil {
		return nil, fmt.Errorf("parse record %s: %w", id, err)
	}
	fields, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("record %s is not an object", id)
	}
	return &Node{
		ID:     id,
		Type:   api.Type(typ),
		Parent: parent.String,
		Digest: digest,
		Fields: fields,
	}, nil
}

// ---------------------------------------------------------------------------
// Graph interface
// ---------------------------------------------------------------------------

func (g *SQLiteGraph) GetNode(ctx context.Context, id string) (*Node, error) {
	row := g.db.QueryRowContext(ctx, "SELECT "+nodeColumns+" FROM nodes WHERE id = ?", id)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}
	if n.Type == api.TypeFile {
		children, err := g.children(ctx, id)
		if err != nil {
			return nil, err
		}
		n.Children = children
	}
	return n, nil
}

func (g *SQLiteGraph) children(ctx context.Context, parentID string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, "SELECT id FROM nodes WHERE parent_id = ? ORDER BY id", parentID)
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", parentID, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (g *SQLiteGraph) GetNodesByIDs(ctx context.Context, ids []string, typ api.Type) ([]*Node, error) {
	if len(ids) == 0 {
		return []*Node{}, nil
	}
	args := make([]any, 0, len(ids)+3)
	for _, id := range ids {
		args = append(args, id)
	}
	members := typ.Members()
	for _, t := range members {
		args = append(args, string(t))
	}
	query := fmt.Sprintf("SELECT %s FROM nodes WHERE id IN (%s) AND type IN (%s)",
		nodeColumns, placeholders(len(ids)), placeholders(len(members)))

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get nodes by ids: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	byID := make(map[string]*Node, len(ids))
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		byID[n.ID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	// Preserve the caller's order, duplicates included.
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func (g *SQLiteGraph) FindAll(ctx context.Context, typ api.Type, q api.Query) (*Result, error) {
	members := typ.Members()
	where := []string{fmt.Sprintf("type IN (%s)", placeholders(len(members)))}
	var args []any
	for _, t := range members {
		args = append(args, string(t))
	}
	// json_each over a scalar yields the scalar itself, so one clause covers
	// both scalar equality and array membership.
	for _, f := range q.Filter {
		if err := validateField(f.Field); err != nil {
			return nil, err
		}
		where = append(where, "EXISTS (SELECT 1 FROM json_each(nodes.record, ?) WHERE json_each.value = ?)")
		args = append(args, "$."+f.Field, f.Eq)
	}
	whereSQL := strings.Join(where, " AND ")

	var count int
	if err := g.db.QueryRowContext(ctx, "SELECT count(*) FROM nodes WHERE "+whereSQL, args...).Scan(&count); err != nil {
		return nil, fmt.Errorf("count %s: %w", typ, err)
	}

	var orderBy []string
	for i, field := range q.Sort.Fields {
		if err := validateField(field); err != nil {
			return nil, err
		}
		dir := "ASC"
		if i < len(q.Sort.Order) && q.Sort.Order[i] == api.Desc {
			dir = "DESC"
		}
		orderBy = append(orderBy, "json_extract(record, ?) "+dir)
		args = append(args, "$."+field)
	}
	orderBy = append(orderBy, "id ASC")

	query := fmt.Sprintf("SELECT %s FROM nodes WHERE %s ORDER BY %s", nodeColumns, whereSQL, strings.Join(orderBy, ", "))
	if q.Limit > 0 || q.Skip > 0 {
		limit := -1
		if q.Limit > 0 {
			limit = q.Limit
		}
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, q.Skip)
	}

	rows, err := g.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", typ, err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	entries := []*Node{}
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", typ, err)
	}
	return &Result{Entries: entries, Count: count}, nil
}

// Pages returns the page directives stored with the snapshot, ordered by path.
func (g *SQLiteGraph) Pages(ctx context.Context) ([]api.Page, error) {
	rows, err := g.db.QueryContext(ctx, "SELECT path, kind, context FROM pages ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	var out []api.Page
	for rows.Next() {
		var path, kind, raw string
		if err := rows.Scan(&path, &kind, &raw); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		parsed, err := oj.ParseString(raw)
		if err != nil {
			return nil, fmt.Errorf("parse page context %s: %w", path, err)
		}
		ctxFields, _ := parsed.(map[string]any)
		out = append(out, api.Page{Path: path, Kind: api.PageKind(kind), Context: ctxFields})
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

var _ Graph = (*SQLiteGraph)(nil)
