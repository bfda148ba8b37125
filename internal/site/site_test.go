package site

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/config"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/aryanpingle/thecodingtrain.com/internal/resolve"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pngMagic = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func contentFS(t *testing.T) billy.Filesystem {
	t.Helper()
	files := map[string]string{
		"videos/intro/index.json":          `{"title":"Intro","languages":["p5.js"],"topics":["basics"]}`,
		"videos/arrays/index.json":         `{"title":"Arrays","languages":["p5.js","JavaScript"],"topics":["data"]}`,
		"videos/arrays/showcase/b.json":    `{"name":"Beta","title":"B"}`,
		"videos/arrays/showcase/a.json":    `{"name":"Alpha","title":"A"}`,
		"challenges/1-snake/index.json":    `{"title":"Snake","date":"2016-05-01","languages":["Processing"],"topics":["games"]}`,
		"challenges/2-purple/index.json":   `{"title":"Purple Rain","date":"2016-06-01","languages":["p5.js"],"topics":["art"]}`,
		"challenges/3-fireworks/index.json": `{"title":"Fireworks","date":"2017-01-01","languages":["p5.js"],"topics":["art","physics"]}`,
		"tracks/main-tracks/code/index.json": `{"title":"Code!","order":1,"chapters":[
			{"title":"One","videos":["intro"]},{"title":"Two","videos":["arrays","challenges/1-snake"]}]}`,
		"tracks/side-tracks/art/index.json": `{"title":"Art","order":2,"videos":["challenges/2-purple","challenges/3-fireworks"]}`,
		"faqs/q1.json":                      `{"question":"Why?","answer":{"text":"Because."}}`,
		"faqs/q1.png":                       pngMagic,
		"guides/hello/index.mdx":            "# Hello\n\nA short guide.\n",
	}
	fs := memfs.New()
	for p, c := range files {
		require.NoError(t, util.WriteFile(fs, p, []byte(c), 0o644))
	}
	return fs
}

func build(t *testing.T) *Result {
	t.Helper()
	res, err := Build(context.Background(), config.Default(), contentFS(t), nil)
	require.NoError(t, err)
	return res
}

func TestBuild(t *testing.T) {
	res := build(t)

	assert.Equal(t, 2, res.Graph.Len(api.TypeTrack))
	assert.Equal(t, 3, res.Graph.Len(api.TypeChallenge))
	assert.Equal(t, 5, res.Graph.Len(api.TypeVideo))
	assert.Equal(t, 1, res.Graph.Len(api.TypeGuide))

	paths := make(map[string]bool)
	for _, p := range res.Pages {
		paths[p.Path] = true
	}
	for _, want := range []string{
		"/tracks", "/tracks/code", "/tracks/code/arrays", "/tracks/code/challenges/1-snake",
		"/tracks/art/challenges/3-fireworks", "/challenges", "/challenges/2-purple",
		"/challenges/lang/p5.js/topic/art", "/guides/hello",
	} {
		assert.True(t, paths[want], "missing page %s", want)
	}
}

func TestBuild_EmptyContent(t *testing.T) {
	res, err := Build(context.Background(), config.Default(), memfs.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
}

// The persisted snapshot must answer every resolver exactly like the
// in-memory graph it was written from.
func TestPersist_SnapshotMatchesMemory(t *testing.T) {
	res := build(t)
	dir := t.TempDir()
	out := &config.Output{
		Database: filepath.Join(dir, "public", "graph.db"),
		Manifest: filepath.Join(dir, "public", "pages.jsonl"),
	}
	require.NoError(t, Persist(context.Background(), out, res))

	snap, err := graph.OpenSQLiteGraph(out.Database)
	require.NoError(t, err)
	defer func() { _ = snap.Close() }()

	ctx := context.Background()
	ids := func(nodes []*graph.Node) []string {
		out := make([]string, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.ID)
		}
		return out
	}

	for _, f := range []resolve.Filters{{}, {Language: "p5.js"}, {Topic: "art"}, {Language: "p5.js", Topic: "physics"}} {
		for _, p := range []resolve.Page{{}, {Limit: 1}, {Skip: 1, Limit: 1}, {Skip: 5}} {
			want, err := resolve.Challenges(ctx, res.Graph, f, p)
			require.NoError(t, err)
			got, err := resolve.Challenges(ctx, snap, f, p)
			require.NoError(t, err)
			assert.Equal(t, ids(want), ids(got), "challenges %+v %+v", f, p)

			want, err = resolve.Tracks(ctx, res.Graph, f, p)
			require.NoError(t, err)
			got, err = resolve.Tracks(ctx, snap, f, p)
			require.NoError(t, err)
			assert.Equal(t, ids(want), ids(got), "tracks %+v %+v", f, p)
		}
	}

	tracks, err := resolve.Tracks(ctx, res.Graph, resolve.Filters{}, resolve.Page{})
	require.NoError(t, err)
	for _, tr := range tracks {
		for _, field := range []string{"languages", "topics"} {
			want, err := resolve.Tags(ctx, res.Graph, tr, field)
			require.NoError(t, err)
			got, err := resolve.Tags(ctx, snap, tr, field)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	}

	arrays, err := resolve.BySlug(ctx, snap, api.TypeVideo, "arrays")
	require.NoError(t, err)
	showcase, err := resolve.Showcase(ctx, snap, arrays.ID)
	require.NoError(t, err)
	require.Len(t, showcase, 2)
	assert.Equal(t, "Alpha", showcase[0].String("name"))

	pages, err := snap.Pages(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, len(res.Pages))

	f, err := os.Open(out.Manifest)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	lines := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, len(res.Pages), lines)
}

func TestPersist_ReplacesDatabase(t *testing.T) {
	res := build(t)
	out := &config.Output{Database: filepath.Join(t.TempDir(), "graph.db")}
	require.NoError(t, Persist(context.Background(), out, res))
	require.NoError(t, Persist(context.Background(), out, res))

	snap, err := graph.OpenSQLiteGraph(out.Database)
	require.NoError(t, err)
	defer func() { _ = snap.Close() }()
	pages, err := snap.Pages(context.Background())
	require.NoError(t, err)
	assert.Len(t, pages, len(res.Pages))
}

func TestPersist_RefusesConcurrentWriter(t *testing.T) {
	res := build(t)
	out := &config.Output{Database: filepath.Join(t.TempDir(), "graph.db")}

	held := flock.New(out.Database + ".lock")
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	err = Persist(context.Background(), out, res)
	assert.ErrorIs(t, err, ErrLocked)
	assert.NoFileExists(t, out.Database)
}
