package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"github.com/aryanpingle/thecodingtrain.com/api"
)

var ErrNotFound = errors.New("node not found")

// Node is the universal primitive of the content graph.
// Fields holds the JSON-shaped record; typed views are obtained with Decode.
type Node struct {
	ID       string
	Type     api.Type
	Parent   string         // File node the record was parsed from ("" for File nodes)
	Children []string       // Nodes derived from this one (File nodes only)
	Digest   string         // SHA-256 of the canonical record
	Fields   map[string]any // Record, always includes "id"
}

// Decode unmarshals the node's fields into v (e.g. *api.Track).
func (n *Node) Decode(v any) error {
	b, err := json.Marshal(n.Fields)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", n.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode node %s as %T: %w", n.ID, v, err)
	}
	return nil
}

// String returns a string field, or "" when absent or not a string.
func (n *Node) String(field string) string {
	s, _ := n.Fields[field].(string)
	return s
}

// Strings returns a string-array field. Non-string elements are skipped.
func (n *Node) Strings(field string) []string {
	return toStrings(n.Fields[field])
}

// Record returns the node's fields plus its node type under "nodeType".
// Some records carry their own "type" field (a track's column).
func (n *Node) Record() map[string]any {
	out := make(map[string]any, len(n.Fields)+1)
	for k, v := range n.Fields {
		out[k] = v
	}
	out["nodeType"] = string(n.Type)
	return out
}

// Records maps Record over nodes.
func Records(nodes []*Node) []map[string]any {
	out := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Record())
	}
	return out
}

func toStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Result is the outcome of FindAll: the requested page of entries and the
// total number of matches before skip/limit.
type Result struct {
	Entries []*Node
	Count   int
}

// Graph is the query engine the resolvers and page generator run against.
// This allows us to swap the backend (Memory -> SQLite) without touching them.
type Graph interface {
	GetNode(ctx context.Context, id string) (*Node, error)
	// GetNodesByIDs returns the nodes of the given type (or family) in ids
	// order. Unknown IDs and type mismatches are skipped.
	GetNodesByIDs(ctx context.Context, ids []string, typ api.Type) ([]*Node, error)
	FindAll(ctx context.Context, typ api.Type, q api.Query) (*Result, error)
}

// -----------------------------------------------------------------------------
// In-Memory Graph
// -----------------------------------------------------------------------------

type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node

	// Roaring bitmap index: node type → set of internal node IDs.
	// FindAll only visits nodes of the requested type family.
	typeIndex   map[api.Type]*roaring.Bitmap
	nodeIntID   map[string]uint32 // Node.ID → internal bitmap uint32 ID
	intToNodeID []string          // reverse: uint32 → Node.ID
	nextIntID   uint32            // monotonic counter
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes:     make(map[string]*Node),
		typeIndex: make(map[api.Type]*roaring.Bitmap),
		nodeIntID: make(map[string]uint32),
	}
}

// AddNode inserts or replaces a node. Replacing a node with a different type
// moves it between type indexes.
func (s *MemoryStore) AddNode(n *Node) error {
	if n.ID == "" {
		return errors.New("add node: empty id")
	}
	if n.Type == "" {
		return fmt.Errorf("add node %s: empty type", n.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.nodes[n.ID]; ok && old.Type != n.Type {
		if bm, ok := s.typeIndex[old.Type]; ok {
			bm.Remove(s.nodeIntID[n.ID])
		}
	}
	s.nodes[n.ID] = n
	s.indexNode(n)
	return nil
}

// indexNode assigns an internal bitmap ID and registers the node in typeIndex.
// Must be called with s.mu held.
func (s *MemoryStore) indexNode(n *Node) {
	intID, ok := s.nodeIntID[n.ID]
	if !ok {
		intID = s.nextIntID
		s.nextIntID++
		s.nodeIntID[n.ID] = intID
		s.intToNodeID = append(s.intToNodeID, n.ID)
	}
	bm, exists := s.typeIndex[n.Type]
	if !exists {
		bm = roaring.New()
		s.typeIndex[n.Type] = bm
	}
	bm.Add(intID)
}

// AddChild records child as derived from the parent node.
func (s *MemoryStore) AddChild(parentID, childID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	parent, ok := s.nodes[parentID]
	if !ok {
		return ErrNotFound
	}
	for _, c := range parent.Children {
		if c == childID {
			return nil
		}
	}
	parent.Children = append(parent.Children, childID)
	return nil
}

// GetNode implements Graph.
func (s *MemoryStore) GetNode(_ context.Context, id string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n, nil
}

// GetNodesByIDs implements Graph.
func (s *MemoryStore) GetNodesByIDs(_ context.Context, ids []string, typ api.Type) ([]*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok && typ.Includes(n.Type) {
			out = append(out, n)
		}
	}
	return out, nil
}

// FindAll implements Graph.
func (s *MemoryStore) FindAll(_ context.Context, typ api.Type, q api.Query) (*Result, error) {
	m, err := compileQuery(q)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	family := roaring.New()
	for _, t := range typ.Members() {
		if bm, ok := s.typeIndex[t]; ok {
			family.Or(bm)
		}
	}
	var matched []*Node
	it := family.Iterator()
	for it.HasNext() {
		n := s.nodes[s.intToNodeID[it.Next()]]
		if n != nil && m.match(n) {
			matched = append(matched, n)
		}
	}
	s.mu.RUnlock()

	m.sort(matched)
	return &Result{Entries: window(matched, q.Skip, q.Limit), Count: len(matched)}, nil
}

// Nodes returns every node sorted by ID.
func (s *MemoryStore) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of nodes of the given type family.
func (s *MemoryStore) Len(typ api.Type) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, t := range typ.Members() {
		if bm, ok := s.typeIndex[t]; ok {
			total += int(bm.GetCardinality())
		}
	}
	return total
}

func window(nodes []*Node, skip, limit int) []*Node {
	if skip > 0 {
		if skip >= len(nodes) {
			return []*Node{}
		}
		nodes = nodes[skip:]
	}
	if limit > 0 && limit < len(nodes) {
		nodes = nodes[:limit]
	}
	if nodes == nil {
		return []*Node{}
	}
	return nodes
}

var _ Graph = (*MemoryStore)(nil)
