// Package config loads the site pipeline configuration from an HCL file.
//
//	content_root = "content"
//	log_level    = "info"
//
//	output {
//	  database = "public/graph.db"
//	  manifest = "public/pages.jsonl"
//	}
//
//	source "videos" {
//	  path = "videos"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "sitegraph.hcl"

// Config is the pipeline configuration.
type Config struct {
	ContentRoot string   `hcl:"content_root,optional"`
	LogLevel    string   `hcl:"log_level,optional"`
	LogFormat   string   `hcl:"log_format,optional"` // "json" or "console"
	Output      *Output  `hcl:"output,block"`
	Sources     []Source `hcl:"source,block"`
}

// Output names the build artifacts.
type Output struct {
	Database string `hcl:"database,optional"`
	Manifest string `hcl:"manifest,optional"`
}

// Source maps a source instance name (the directory tag) to a directory
// relative to ContentRoot. Path defaults to the name.
type Source struct {
	Name string `hcl:"name,label"`
	Path string `hcl:"path,optional"`
}

// defaultSourcePath mirrors the content repository layout.
func defaultSourcePath(tag api.SourceTag) string {
	switch tag {
	case api.SourceMainTracks, api.SourceSideTracks:
		return path.Join("tracks", string(tag))
	case api.SourceHomepageData, api.SourceAboutPageData, api.SourceNotFoundPageData,
		api.SourceTracksPageData, api.SourceChallengesPageData, api.SourceGuidesPageData:
		return path.Join("pages", string(tag))
	default:
		return string(tag)
	}
}

// Default returns the configuration used when no file is present: every
// recognized source under ./content.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	for _, tag := range api.SourceTags {
		c.Sources = append(c.Sources, Source{Name: string(tag), Path: defaultSourcePath(tag)})
	}
	return c
}

func (c *Config) applyDefaults() {
	if c.ContentRoot == "" {
		c.ContentRoot = "content"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.Output == nil {
		c.Output = &Output{}
	}
	if c.Output.Database == "" {
		c.Output.Database = "public/graph.db"
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = "public/pages.jsonl"
	}
	for i := range c.Sources {
		if c.Sources[i].Path == "" {
			if tag, ok := api.ParseSourceTag(c.Sources[i].Name); ok {
				c.Sources[i].Path = defaultSourcePath(tag)
			} else {
				c.Sources[i].Path = c.Sources[i].Name
			}
		}
	}
}

// Validate rejects configurations that cannot be built. Unknown source
// names are allowed: their records are ignored at classification time.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("config: no sources configured")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if s.Name == "" {
			return errors.New("config: source with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("config: duplicate source %q", s.Name)
		}
		seen[s.Name] = true
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: unknown log_format %q", c.LogFormat)
	}
	return nil
}

// Parse decodes configuration source. filename selects the syntax
// (".hcl" native, ".json" HCL JSON) and is used in diagnostics.
func Parse(filename string, src []byte) (*Config, error) {
	var c Config
	if err := hclsimple.Decode(filename, src, nil, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", filename, err)
	}
	if len(c.Sources) == 0 {
		c.Sources = Default().Sources
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the configuration at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}
