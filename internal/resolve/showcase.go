package resolve

import (
	"context"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// Showcase returns every contribution belonging to the video or challenge
// ownerID, sorted by name. There is no pagination.
func Showcase(ctx context.Context, g graph.Graph, ownerID string) ([]*graph.Node, error) {
	res, err := g.FindAll(ctx, api.TypeContribution, api.Query{
		Filter: []api.FieldFilter{{Field: "video", Eq: ownerID}},
		Sort:   api.Sort{Fields: []string{"name"}, Order: []api.Order{api.Asc}},
	})
	if err != nil {
		return nil, fmt.Errorf("showcase for %s: %w", ownerID, err)
	}
	return res.Entries, nil
}

// CoverImage returns the cover image of an entity, or nil when it has none.
func CoverImage(ctx context.Context, g graph.Graph, ownerID string) (*graph.Node, error) {
	res, err := g.FindAll(ctx, api.TypeCoverImage, api.Query{
		Filter: []api.FieldFilter{{Field: "owner", Eq: ownerID}},
		Limit:  1,
	})
	if err != nil {
		return nil, fmt.Errorf("cover image for %s: %w", ownerID, err)
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}
	return res.Entries[0], nil
}
