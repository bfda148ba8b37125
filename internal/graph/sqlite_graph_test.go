package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// createTestDB writes nodes and pages into a fresh snapshot database the
// way ingest.SQLiteWriter lays them out.
func createTestDB(t *testing.T, nodes []*Node, pages []api.Page) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "graph.db")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.Exec(SQLiteSchema)
	require.NoError(t, err)
	for _, n := range nodes {
		rec, err := json.Marshal(n.Fields)
		require.NoError(t, err)
		var parent any
		if n.Parent != "" {
			parent = n.Parent
		}
		_, err = db.Exec("INSERT INTO nodes (id, type, parent_id, digest, record) VALUES (?, ?, ?, ?, ?)",
			n.ID, string(n.Type), parent, n.Digest, string(rec))
		require.NoError(t, err)
	}
	for _, p := range pages {
		c, err := json.Marshal(p.Context)
		require.NoError(t, err)
		_, err = db.Exec("INSERT INTO pages (path, kind, context) VALUES (?, ?, ?)", p.Path, string(p.Kind), string(c))
		require.NoError(t, err)
	}
	return dbPath
}

func fixtureNodes(t *testing.T) []*Node {
	t.Helper()
	mk := func(id string, typ api.Type, parent string, v any) *Node {
		fields, err := ToFields(v)
		require.NoError(t, err)
		fields["id"] = id
		return &Node{ID: id, Type: typ, Parent: parent, Digest: "d-" + id, Fields: fields}
	}
	return []*Node{
		mk("file-1", api.TypeFile, "", api.File{RelativePath: "a/index.json"}),
		mk("c1", api.TypeChallenge, "file-1", api.Video{Slug: "challenges/1", Date: "2020-05-01", Languages: []string{"p5.js"}, Topics: []string{"physics"}}),
		mk("c2", api.TypeChallenge, "file-1", api.Video{Slug: "challenges/2", Date: "2022-05-01", Languages: []string{"Processing"}, Topics: []string{"physics"}}),
		mk("c3", api.TypeChallenge, "file-1", api.Video{Slug: "challenges/3", Date: "2021-05-01", Languages: []string{"p5.js", "Processing"}, Topics: []string{"art"}}),
		mk("v1", api.TypeVideo, "", api.Video{Slug: "intro", Languages: []string{"p5.js"}}),
		mk("t1", api.TypeTrack, "", api.Track{Slug: "beginners", Order: 2, Videos: []string{"v1"}}),
		mk("t2", api.TypeTrack, "", api.Track{Slug: "advanced", Order: 1}),
		mk("k1", api.TypeContribution, "", api.Contribution{Name: "Zed", Video: "c1"}),
		mk("k2", api.TypeContribution, "", api.Contribution{Name: "Amy", Video: "c1"}),
		mk("k3", api.TypeContribution, "", api.Contribution{Name: "Bob", Video: "c2"}),
	}
}

func openFixtures(t *testing.T) (*SQLiteGraph, *MemoryStore) {
	t.Helper()
	nodes := fixtureNodes(t)
	mem := NewMemoryStore()
	for _, n := range nodes {
		require.NoError(t, mem.AddNode(n))
	}
	g, err := OpenSQLiteGraph(createTestDB(t, nodes, nil))
	require.NoError(t, err)
	t.Cleanup(func() { _ = g.Close() })
	return g, mem
}

func TestSQLiteGraph_GetNode(t *testing.T) {
	g, _ := openFixtures(t)
	ctx := context.Background()

	n, err := g.GetNode(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, api.TypeTrack, n.Type)
	assert.Equal(t, "beginners", n.String("slug"))
	assert.Equal(t, []string{"v1"}, n.Strings("videos"))

	file, err := g.GetNode(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, file.Children)

	c, err := g.GetNode(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "file-1", c.Parent)
	assert.Equal(t, "d-c1", c.Digest)
}

func TestSQLiteGraph_NotFound(t *testing.T) {
	g, _ := openFixtures(t)
	_, err := g.GetNode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteGraph_EmptyDB(t *testing.T) {
	g, err := OpenSQLiteGraph(createTestDB(t, nil, nil))
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	res, err := g.FindAll(context.Background(), api.TypeTrack, api.Query{})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assert.Equal(t, 0, res.Count)
}

func TestSQLiteGraph_RejectsForeignDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE results (id TEXT PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSQLiteGraph(dbPath)
	assert.Error(t, err)
}

func TestSQLiteGraph_GetNodesByIDsKeepsOrder(t *testing.T) {
	g, _ := openFixtures(t)
	got, err := g.GetNodesByIDs(context.Background(), []string{"v1", "t1", "c2", "missing", "c1"}, api.TypeVideo)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "c2", "c1"}, ids(got))
}

// Both backends must answer every query identically.
func TestSQLiteGraph_MatchesMemoryStore(t *testing.T) {
	g, mem := openFixtures(t)
	ctx := context.Background()

	byDate := api.Sort{Fields: []string{"date"}, Order: []api.Order{api.Desc}}
	queries := []struct {
		name string
		typ  api.Type
		q    api.Query
	}{
		{"challenges by date", api.TypeChallenge, api.Query{Sort: byDate}},
		{"language filter", api.TypeChallenge, api.Query{Sort: byDate, Filter: []api.FieldFilter{{Field: "languages", Eq: "p5.js"}}}},
		{"language and topic", api.TypeChallenge, api.Query{Sort: byDate, Filter: []api.FieldFilter{
			{Field: "languages", Eq: "Processing"}, {Field: "topics", Eq: "physics"},
		}}},
		{"no match", api.TypeChallenge, api.Query{Filter: []api.FieldFilter{{Field: "languages", Eq: "Rust"}}}},
		{"skip and limit", api.TypeChallenge, api.Query{Sort: byDate, Skip: 1, Limit: 1}},
		{"skip only", api.TypeChallenge, api.Query{Sort: byDate, Skip: 2}},
		{"tracks by order", api.TypeTrack, api.Query{Sort: api.Sort{Fields: []string{"order"}}}},
		{"video family", api.TypeVideo, api.Query{}},
		{"showcase", api.TypeContribution, api.Query{
			Filter: []api.FieldFilter{{Field: "video", Eq: "c1"}},
			Sort:   api.Sort{Fields: []string{"name"}, Order: []api.Order{api.Asc}},
		}},
	}
	for _, tc := range queries {
		t.Run(tc.name, func(t *testing.T) {
			want, err := mem.FindAll(ctx, tc.typ, tc.q)
			require.NoError(t, err)
			got, err := g.FindAll(ctx, tc.typ, tc.q)
			require.NoError(t, err)
			assert.Equal(t, ids(want.Entries), ids(got.Entries))
			assert.Equal(t, want.Count, got.Count)
		})
	}
}

func TestSQLiteGraph_RejectsBadField(t *testing.T) {
	g, _ := openFixtures(t)
	_, err := g.FindAll(context.Background(), api.TypeTrack, api.Query{
		Filter: []api.FieldFilter{{Field: "x') OR 1=1 --", Eq: "y"}},
	})
	assert.Error(t, err)
}

func TestSQLiteGraph_Pages(t *testing.T) {
	dbPath := createTestDB(t, nil, []api.Page{
		{Path: "/tracks", Kind: api.PageTracks, Context: map[string]any{"language": "", "topic": ""}},
		{Path: "/challenges/1", Kind: api.PageChallenge, Context: map[string]any{"id": "c1"}},
	})
	g, err := OpenSQLiteGraph(dbPath)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	pages, err := g.Pages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "/challenges/1", pages[0].Path)
	assert.Equal(t, api.PageChallenge, pages[0].Kind)
	assert.Equal(t, "c1", pages[0].Context["id"])
}

// ---------------------------------------------------------------------------
// HotSwapGraph
// ---------------------------------------------------------------------------

func TestHotSwapGraph_SwapReturnsOld(t *testing.T) {
	store1 := NewMemoryStore()
	store2 := NewMemoryStore()
	require.NoError(t, store2.AddNode(&Node{ID: "x", Type: api.TypeTrack, Fields: map[string]any{"id": "x"}}))

	hot := NewHotSwapGraph(store1)
	_, err := hot.GetNode(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotFound)

	old := hot.Swap(store2)
	assert.Same(t, store1, old)
	assert.Same(t, store2, hot.Current())

	n, err := hot.GetNode(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "x", n.ID)
}
