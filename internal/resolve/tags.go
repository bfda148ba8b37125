// Package resolve implements the read-only queries the presentation layer
// runs against a stable content graph. Every function is safe to call
// concurrently; none of them mutate the graph.
package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// VideoRefs returns the video IDs an entity references: its own "videos"
// followed by the videos of each chapter it lists, in chapter order.
// The result is a track's flattened video sequence.
func VideoRefs(ctx context.Context, g graph.Graph, n *graph.Node) ([]string, error) {
	refs := append([]string{}, n.Strings("videos")...)

	chapterIDs := n.Strings("chapters")
	if len(chapterIDs) == 0 {
		return refs, nil
	}
	chapters, err := g.GetNodesByIDs(ctx, chapterIDs, api.TypeChapter)
	if err != nil {
		return nil, fmt.Errorf("resolve chapters of %s: %w", n.ID, err)
	}
	for _, ch := range chapters {
		refs = append(refs, ch.Strings("videos")...)
	}
	return refs, nil
}

// Tags returns the union of the scalar-array field (e.g. "topics") over
// every video the entity references directly or through its chapters.
//
// The result is a set: callers must not depend on its order. It is returned
// sorted so output is reproducible.
func Tags(ctx context.Context, g graph.Graph, n *graph.Node, field string) ([]string, error) {
	refs, err := VideoRefs(ctx, g, n)
	if err != nil {
		return nil, err
	}
	videos, err := g.GetNodesByIDs(ctx, refs, api.TypeVideo)
	if err != nil {
		return nil, fmt.Errorf("resolve videos of %s: %w", n.ID, err)
	}

	set := make(map[string]struct{})
	for _, v := range videos {
		for _, tag := range v.Strings(field) {
			set[tag] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}
