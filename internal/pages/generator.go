// Package pages turns a stable content graph into page-creation directives.
package pages

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/resolve"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// allValues is the path placeholder for an absent listing filter.
const allValues = "all"

// maxConcurrentResolvers bounds tag aggregation fan-out.
const maxConcurrentResolvers = 8

// Generator emits pages for every page type. It must only run once the
// graph is fully loaded.
type Generator struct {
	Graph graph.Graph
	Log   *zap.Logger
}

func NewGenerator(g graph.Graph, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Graph: g, Log: log}
}

// Generate runs every page type in order. The first error aborts generation.
func (gen *Generator) Generate(ctx context.Context, sink Sink) error {
	steps := []struct {
		name string
		run  func(context.Context, Sink) (int, error)
	}{
		{"track video", gen.TrackVideoPages},
		{"tracks", gen.TracksPages},
		{"challenges", gen.ChallengesPages},
		{"guide", gen.GuidePages},
	}
	for _, step := range steps {
		n, err := step.run(ctx, sink)
		if err != nil {
			return fmt.Errorf("generate %s pages: %w", step.name, err)
		}
		gen.Log.Info("pages generated", zap.String("type", step.name), zap.Int("count", n))
	}
	return nil
}

func (gen *Generator) all(ctx context.Context, typ api.Type, sortField string, order api.Order) ([]*graph.Node, error) {
	res, err := gen.Graph.FindAll(ctx, typ, api.Query{
		Sort: api.Sort{Fields: []string{sortField}, Order: []api.Order{order}},
	})
	if err != nil {
		return nil, err
	}
	return res.Entries, nil
}

// TrackVideoPages emits one page per video of each track, carrying the
// video's zero-based position in the track's flattened sequence, plus the
// track's landing page showing its first video.
func (gen *Generator) TrackVideoPages(ctx context.Context, sink Sink) (int, error) {
	tracks, err := gen.all(ctx, api.TypeTrack, "order", api.Asc)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, track := range tracks {
		refs, err := resolve.VideoRefs(ctx, gen.Graph, track)
		if err != nil {
			return created, err
		}
		videos, err := gen.Graph.GetNodesByIDs(ctx, refs, api.TypeVideo)
		if err != nil {
			return created, err
		}
		byID := make(map[string]*graph.Node, len(videos))
		for _, v := range videos {
			byID[v.ID] = v
		}

		trackRoute := "/tracks/" + track.String("slug")
		seen := make(map[string]bool)
		for pos, id := range refs {
			v, ok := byID[id]
			if !ok {
				gen.Log.Warn("track references unknown video",
					zap.String("track", track.String("slug")), zap.String("video", id), zap.Int("position", pos))
				continue
			}
			pageCtx := map[string]any{"id": v.ID, "trackId": track.ID, "trackPosition": pos}
			if len(seen) == 0 {
				if err := sink.CreatePage(ctx, api.Page{Path: trackRoute, Kind: api.PageTrackVideo, Context: pageCtx}); err != nil {
					return created, err
				}
				created++
			}
			route := trackRoute + "/" + v.String("slug")
			if seen[route] {
				continue
			}
			seen[route] = true
			if err := sink.CreatePage(ctx, api.Page{Path: route, Kind: api.PageTrackVideo, Context: pageCtx}); err != nil {
				return created, err
			}
			created++
		}
	}
	return created, nil
}

// TracksPages emits the track listing and one listing per language/topic
// filter combination found across all tracks.
func (gen *Generator) TracksPages(ctx context.Context, sink Sink) (int, error) {
	tracks, err := gen.all(ctx, api.TypeTrack, "order", api.Asc)
	if err != nil || len(tracks) == 0 {
		return 0, err
	}
	languages, topics, err := gen.aggregateTags(ctx, tracks)
	if err != nil {
		return 0, err
	}
	return listingPages(ctx, sink, "/tracks", api.PageTracks, languages, topics)
}

// aggregateTags unions languages and topics over many entities, resolving
// them concurrently. Resolvers are read-only, so no coordination is needed.
func (gen *Generator) aggregateTags(ctx context.Context, nodes []*graph.Node) (languages, topics []string, err error) {
	langSets := make([][]string, len(nodes))
	topicSets := make([][]string, len(nodes))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentResolvers)
	for i, n := range nodes {
		eg.Go(func() error {
			l, err := resolve.Tags(egctx, gen.Graph, n, "languages")
			if err != nil {
				return err
			}
			t, err := resolve.Tags(egctx, gen.Graph, n, "topics")
			if err != nil {
				return err
			}
			langSets[i], topicSets[i] = l, t
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}
	return union(langSets), union(topicSets), nil
}

// ChallengesPages emits the challenge listing, its filter combinations and
// one page per challenge.
func (gen *Generator) ChallengesPages(ctx context.Context, sink Sink) (int, error) {
	challenges, err := gen.all(ctx, api.TypeChallenge, "date", api.Desc)
	if err != nil || len(challenges) == 0 {
		return 0, err
	}

	langSets := make([][]string, 0, len(challenges))
	topicSets := make([][]string, 0, len(challenges))
	for _, c := range challenges {
		langSets = append(langSets, c.Strings("languages"))
		topicSets = append(topicSets, c.Strings("topics"))
	}
	created, err := listingPages(ctx, sink, "/challenges", api.PageChallenges, union(langSets), union(topicSets))
	if err != nil {
		return created, err
	}

	for _, c := range challenges {
		slug := strings.TrimPrefix(c.String("slug"), "challenges/")
		p := api.Page{Path: "/challenges/" + slug, Kind: api.PageChallenge, Context: map[string]any{"id": c.ID}}
		if err := sink.CreatePage(ctx, p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// GuidePages emits one page per guide.
func (gen *Generator) GuidePages(ctx context.Context, sink Sink) (int, error) {
	guides, err := gen.all(ctx, api.TypeGuide, "slug", api.Asc)
	if err != nil {
		return 0, err
	}
	for i, g := range guides {
		p := api.Page{Path: "/guides/" + g.String("slug"), Kind: api.PageGuide, Context: map[string]any{"id": g.ID}}
		if err := sink.CreatePage(ctx, p); err != nil {
			return i, err
		}
	}
	return len(guides), nil
}

func listingPages(ctx context.Context, sink Sink, base string, kind api.PageKind, languages, topics []string) (int, error) {
	created := 0
	emit := func(route, language, topic string) error {
		created++
		return sink.CreatePage(ctx, api.Page{
			Path:    route,
			Kind:    kind,
			Context: map[string]any{"language": language, "topic": topic},
		})
	}
	if err := emit(base, "", ""); err != nil {
		return created, err
	}
	for _, l := range append([]string{allValues}, distinctRoutes(languages)...) {
		for _, t := range append([]string{allValues}, distinctRoutes(topics)...) {
			if l == allValues && t == allValues {
				continue
			}
			route := fmt.Sprintf("%s/lang/%s/topic/%s", base, pathValue(l), pathValue(t))
			if err := emit(route, filterValue(l), filterValue(t)); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

func filterValue(v string) string {
	if v == allValues {
		return ""
	}
	return v
}

func pathValue(v string) string {
	return url.PathEscape(strings.ReplaceAll(strings.ToLower(v), " ", "-"))
}

// distinctRoutes drops values whose route segment repeats an earlier one
// ("P5.js" and "p5.js", "Machine Learning" and "machine-learning"). The
// first value in order keeps the route.
func distinctRoutes(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := pathValue(v)
		if seen[key] || key == allValues {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func union(sets [][]string) []string {
	seen := make(map[string]struct{})
	for _, s := range sets {
		for _, v := range s {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
