package ingest

import (
	"context"

	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// IngestionTarget is the node-insertion side of the content graph.
// GetNode is needed to resolve a record's owning File node.
type IngestionTarget interface {
	GetNode(ctx context.Context, id string) (*graph.Node, error)
	AddNode(n *graph.Node) error
}

// childLinker is implemented by targets that keep explicit parent→child
// lists (MemoryStore). Targets that derive children from parent_id skip it.
type childLinker interface {
	AddChild(parentID, childID string) error
}

// RecordKind tells the classifier how a record was parsed.
type RecordKind int

const (
	RecordJSON RecordKind = iota
	RecordMDX
	RecordImage
)

func (k RecordKind) String() string {
	switch k {
	case RecordJSON:
		return "json"
	case RecordMDX:
		return "mdx"
	case RecordImage:
		return "image"
	default:
		return "unknown"
	}
}

// Record is one raw ingested record awaiting classification.
type Record struct {
	Kind RecordKind
	// Parent is the ID of the File node the record was read from.
	Parent string
	// Data is the parsed JSON object (RecordJSON only).
	Data map[string]any
	// Raw is the document source (RecordMDX only).
	Raw []byte
}
