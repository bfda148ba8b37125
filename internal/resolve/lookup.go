package resolve

import (
	"context"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// BySlug returns the entity of typ whose slug is slug, or graph.ErrNotFound.
func BySlug(ctx context.Context, g graph.Graph, typ api.Type, slug string) (*graph.Node, error) {
	res, err := g.FindAll(ctx, typ, api.Query{
		Filter: []api.FieldFilter{{Field: "slug", Eq: slug}},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("lookup %s %q: %w", typ, slug, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("%s %q: %w", typ, slug, graph.ErrNotFound)
	}
	return res.Entries[0], nil
}
