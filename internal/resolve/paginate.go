package resolve

import (
	"context"
	"fmt"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
)

// Filters are the optional equality filters of a listing. An empty value
// means "no filter", never "match empty".
type Filters struct {
	Language string
	Topic    string
}

// Page bounds a listing. Zero values are unbounded.
type Page struct {
	Skip  int
	Limit int
}

// ListQuery builds the query descriptor for a filtered, sorted listing.
func ListQuery(f Filters, sortField string, order api.Order, p Page) api.Query {
	var filter []api.FieldFilter
	if f.Language != "" {
		filter = append(filter, api.FieldFilter{Field: "languages", Eq: f.Language})
	}
	if f.Topic != "" {
		filter = append(filter, api.FieldFilter{Field: "topics", Eq: f.Topic})
	}
	return api.Query{
		Filter: filter,
		Sort:   api.Sort{Fields: []string{sortField}, Order: []api.Order{order}},
		Skip:   p.Skip,
		Limit:  p.Limit,
	}
}

// Paginate returns one page of entities of typ matching f, sorted by
// sortField/order. An empty result is not an error.
func Paginate(ctx context.Context, g graph.Graph, typ api.Type, f Filters, sortField string, order api.Order, p Page) ([]*graph.Node, error) {
	res, err := g.FindAll(ctx, typ, ListQuery(f, sortField, order, p))
	if err != nil {
		return nil, fmt.Errorf("paginate %s: %w", typ, err)
	}
	return res.Entries, nil
}

// Tracks lists tracks by ascending "order".
func Tracks(ctx context.Context, g graph.Graph, f Filters, p Page) ([]*graph.Node, error) {
	return Paginate(ctx, g, api.TypeTrack, f, "order", api.Asc, p)
}

// Challenges lists challenges newest first.
func Challenges(ctx context.Context, g graph.Graph, f Filters, p Page) ([]*graph.Node, error) {
	return Paginate(ctx, g, api.TypeChallenge, f, "date", api.Desc, p)
}
