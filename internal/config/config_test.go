package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	src := `
content_root = "site/content"
log_level    = "debug"
log_format   = "json"

output {
  database = "out/graph.db"
}

source "videos" {}

source "main-tracks" {}

source "challenges" {
  path = "elsewhere/challenges"
}
`
	c, err := Parse("sitegraph.hcl", []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "site/content", c.ContentRoot)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, "out/graph.db", c.Output.Database)
	assert.Equal(t, "public/pages.jsonl", c.Output.Manifest)
	assert.Equal(t, []Source{
		{Name: "videos", Path: "videos"},
		{Name: "main-tracks", Path: "tracks/main-tracks"},
		{Name: "challenges", Path: "elsewhere/challenges"},
	}, c.Sources)
}

func TestParse_NoSourcesUsesDefaults(t *testing.T) {
	c, err := Parse("sitegraph.hcl", []byte(`content_root = "x"`))
	require.NoError(t, err)
	assert.Equal(t, "x", c.ContentRoot)
	assert.Equal(t, Default().Sources, c.Sources)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", `content_root = `},
		{"unknown attribute", `colour = "blue"`},
		{"duplicate source", "source \"faqs\" {}\nsource \"faqs\" {}\n"},
		{"bad log format", `log_format = "xml"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("sitegraph.hcl", []byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "content", c.ContentRoot)

	paths := make(map[string]string)
	for _, s := range c.Sources {
		paths[s.Name] = s.Path
	}
	assert.Equal(t, "videos", paths["videos"])
	assert.Equal(t, "tracks/side-tracks", paths["side-tracks"])
	assert.Equal(t, "pages/homepage-data", paths["homepage-data"])
	assert.Equal(t, "guides", paths["guides"])
}

func TestLoad(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		c, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
		require.NoError(t, err)
		assert.Equal(t, Default(), c)
	})

	t.Run("file", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "sitegraph.hcl")
		require.NoError(t, os.WriteFile(p, []byte("source \"guides\" {}\n"), 0o644))
		c, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, []Source{{Name: "guides", Path: "guides"}}, c.Sources)
	})
}
