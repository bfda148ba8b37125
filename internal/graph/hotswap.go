package graph

import (
	"context"
	"sync"

	"github.com/aryanpingle/thecodingtrain.com/api"
)

// HotSwapGraph is a thread-safe wrapper that allows swapping the underlying graph instance.
// A rebuild produces a complete new graph which is swapped in whole; readers
// never observe a partially built graph.
type HotSwapGraph struct {
	mu      sync.RWMutex
	current Graph
}

func NewHotSwapGraph(initial Graph) *HotSwapGraph {
	return &HotSwapGraph{current: initial}
}

// Swap atomically replaces the current graph with a new one and returns the old one.
func (h *HotSwapGraph) Swap(newGraph Graph) Graph {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.current
	h.current = newGraph
	return old
}

// Current returns the graph currently served.
func (h *HotSwapGraph) Current() Graph {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// GetNode delegates to current graph.
func (h *HotSwapGraph) GetNode(ctx context.Context, id string) (*Node, error) {
	return h.Current().GetNode(ctx, id)
}

// GetNodesByIDs delegates to current graph.
func (h *HotSwapGraph) GetNodesByIDs(ctx context.Context, ids []string, typ api.Type) ([]*Node, error) {
	return h.Current().GetNodesByIDs(ctx, ids, typ)
}

// FindAll delegates to current graph.
func (h *HotSwapGraph) FindAll(ctx context.Context, typ api.Type, q api.Query) (*Result, error) {
	return h.Current().FindAll(ctx, typ, q)
}

var _ Graph = (*HotSwapGraph)(nil)
