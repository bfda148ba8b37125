package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/ohler55/ojg/oj"
	_ "modernc.org/sqlite"
)

// StreamSnapshot iterates over every node of a snapshot written by
// SQLiteWriter, File nodes first, calling fn for each one. Only one parsed
// record is alive at a time, keeping memory usage constant.
func StreamSnapshot(ctx context.Context, dbPath string, fn func(n *graph.Node) error) error {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	defer func() { _ = db.Close() }() // safe to ignore

	rows, err := db.QueryContext(ctx, `
		SELECT id, type, parent_id, digest, record FROM nodes
		ORDER BY (type = ?) DESC, id`, string(api.TypeFile))
	if err != nil {
		return fmt.Errorf("query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }() // safe to ignore

	for rows.Next() {
		var (
			id, typ, digest, raw string
			parent               sql.NullString
		)
		if err := rows.Scan(&id, &typ, &parent, &digest, &raw); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		parsed, err := oj.ParseString(raw)
		if err != nil {
			return fmt.Errorf("parse record json %s: %w", id, err)
		}
		fields, ok := parsed.(map[string]any)
		if !ok {
			return fmt.Errorf("record %s is not an object", id)
		}
		n := &graph.Node{ID: id, Type: api.Type(typ), Parent: parent.String, Digest: digest, Fields: fields}
		if err := fn(n); err != nil {
			return err
		}
	}
	return rows.Err()
}

// LoadSnapshot copies a snapshot into target, restoring parent→child links
// when the target keeps them. It is the inverse of SQLiteWriter.WriteGraph.
func LoadSnapshot(ctx context.Context, dbPath string, target IngestionTarget) (int, error) {
	linker, _ := target.(childLinker)
	count := 0
	err := StreamSnapshot(ctx, dbPath, func(n *graph.Node) error {
		if err := target.AddNode(n); err != nil {
			return fmt.Errorf("add node %s: %w", n.ID, err)
		}
		if linker != nil && n.Parent != "" {
			if err := linker.AddChild(n.Parent, n.ID); err != nil {
				return fmt.Errorf("link %s to %s: %w", n.ID, n.Parent, err)
			}
		}
		count++
		return nil
	})
	return count, err
}
