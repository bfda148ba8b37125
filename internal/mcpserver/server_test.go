package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testGraph(t *testing.T) *graph.MemoryStore {
	t.Helper()
	s := graph.NewMemoryStore()
	add := func(typ api.Type, v any) {
		fields, err := graph.ToFields(v)
		require.NoError(t, err)
		require.NoError(t, s.AddNode(&graph.Node{ID: fields["id"].(string), Type: typ, Fields: fields}))
	}
	add(api.TypeChallenge, api.Video{ID: "c1", Slug: "challenges/c1", Date: "2019-01-01", Languages: []string{"p5.js"}, Topics: []string{"art"}})
	add(api.TypeChallenge, api.Video{ID: "c2", Slug: "challenges/c2", Date: "2020-01-01", Languages: []string{"Processing"}, Topics: []string{"art"}})
	add(api.TypeTrack, api.Track{ID: "t1", Slug: "beginners", Order: 1, Videos: []string{"c1", "c2"}})
	add(api.TypeContribution, api.Contribution{ID: "k1", Name: "B", Video: "c1"})
	add(api.TypeContribution, api.Contribution{ID: "k2", Name: "A", Video: "c1"})
	add(api.TypeCoverImage, api.CoverImage{ID: "img", Owner: "t1", OwnerType: api.TypeTrack})
	return s
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func decodeIDs(t *testing.T, res *mcp.CallToolResult) []string {
	t.Helper()
	require.False(t, res.IsError, text(t, res))
	var records []map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &records))
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r["id"].(string))
	}
	return out
}

func TestListChallenges(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}

	assert.Equal(t, []string{"c2", "c1"}, decodeIDs(t, call(t, h.ListChallenges, nil)))
	assert.Equal(t, []string{"c1"}, decodeIDs(t, call(t, h.ListChallenges, map[string]any{"language": "p5.js"})))
	// JSON numbers arrive as float64.
	assert.Equal(t, []string{"c1"}, decodeIDs(t, call(t, h.ListChallenges, map[string]any{"skip": 1.0, "limit": 1.0})))
}

func TestListTracks(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}
	assert.Equal(t, []string{"t1"}, decodeIDs(t, call(t, h.ListTracks, map[string]any{})))
}

func TestTrackTags(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}

	res := call(t, h.TrackTags, map[string]any{"track": "beginners"})
	require.False(t, res.IsError)
	assert.JSONEq(t, `["Processing","p5.js"]`, text(t, res))

	res = call(t, h.TrackTags, map[string]any{"track": "beginners", "field": "topics"})
	assert.JSONEq(t, `["art"]`, text(t, res))

	assert.True(t, call(t, h.TrackTags, map[string]any{"track": "nope"}).IsError)
	assert.True(t, call(t, h.TrackTags, map[string]any{"track": "beginners", "field": "colors"}).IsError)
	assert.True(t, call(t, h.TrackTags, map[string]any{}).IsError)
}

func TestShowcase(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}
	assert.Equal(t, []string{"k2", "k1"}, decodeIDs(t, call(t, h.Showcase, map[string]any{"video": "c1"})))
	assert.Empty(t, decodeIDs(t, call(t, h.Showcase, map[string]any{"video": "c2"})))
}

func TestCoverImage(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}

	res := call(t, h.CoverImage, map[string]any{"owner": "t1"})
	require.False(t, res.IsError)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &rec))
	assert.Equal(t, "img", rec["id"])
	assert.Equal(t, "CoverImage", rec["nodeType"])

	assert.Equal(t, "null", text(t, call(t, h.CoverImage, map[string]any{"owner": "c1"})))
}

func TestGetNode(t *testing.T) {
	h := &Handlers{Graph: testGraph(t)}
	res := call(t, h.GetNode, map[string]any{"id": "t1"})
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"slug": "beginners"`)

	assert.True(t, call(t, h.GetNode, map[string]any{"id": "missing"}).IsError)
}

type brokenGraph struct{ graph.Graph }

func (brokenGraph) GetNode(context.Context, string) (*graph.Node, error) {
	return nil, errors.New("database is closed")
}

func TestGetNode_OnlyUnexpectedErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)

	h := &Handlers{Graph: testGraph(t), Log: log}
	assert.True(t, call(t, h.GetNode, map[string]any{"id": "missing"}).IsError)
	assert.Equal(t, 0, logs.Len())

	h = &Handlers{Graph: brokenGraph{}, Log: log}
	res := call(t, h.GetNode, map[string]any{"id": "t1"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "database is closed")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "get_node", logs.All()[0].ContextMap()["tool"])
}

func TestNew_RegistersTools(t *testing.T) {
	s := New(testGraph(t), nil)
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"list_tracks", "list_challenges", "track_tags", "showcase", "cover_image", "get_node"} {
		assert.Contains(t, string(b), `"name":"`+name+`"`)
	}
}
