package ingest

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/aryanpingle/thecodingtrain.com/api"
	"github.com/aryanpingle/thecodingtrain.com/internal/graph"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

const excerptLength = 200

type guideFrontmatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Date        string `yaml:"date"`
	Author      string `yaml:"author"`
}

var frontmatterOpen = []byte("---\n")

// splitFrontmatter separates a leading YAML block fenced by "---" lines
// from the document body. Documents without one are all body.
func splitFrontmatter(src []byte) (fm, body []byte, err error) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(src, frontmatterOpen) {
		return nil, src, nil
	}
	rest := src[len(frontmatterOpen):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter")
	}
	fm = rest[:end+1]
	body = rest[end+len("\n---"):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return fm, body, nil
}

// outline pulls the first level-one heading and the first paragraph out of
// a Markdown body. JSX blocks parse as raw HTML and are ignored.
func outline(body []byte) (title, excerpt string) {
	doc := goldmark.New().Parser().Parse(text.NewReader(body))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if title == "" && node.Level == 1 {
				title = strings.TrimSpace(string(node.Text(body)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph:
			if excerpt == "" {
				excerpt = strings.TrimSpace(string(node.Text(body)))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if r := []rune(excerpt); len(r) > excerptLength {
		excerpt = strings.TrimSpace(string(r[:excerptLength])) + "…"
	}
	return title, excerpt
}

// guideSlug is the name of the directory holding the guide, or the file
// name for guides placed directly in the source root.
func guideSlug(f api.File) string {
	if f.RelativeDirectory == "" {
		return f.Name
	}
	return path.Base(f.RelativeDirectory)
}

func guideNodes(src source) ([]*graph.Node, error) {
	fm, body, err := splitFrontmatter(src.raw)
	if err != nil {
		return nil, err
	}
	var meta guideFrontmatter
	if len(fm) > 0 {
		if err := yaml.Unmarshal(fm, &meta); err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
	}

	heading, excerpt := outline(body)
	title := meta.Title
	if title == "" {
		title = heading
	}
	if meta.Description != "" {
		excerpt = meta.Description
	}

	slug := guideSlug(src.file)
	g := api.Guide{
		ID:          guideID(slug),
		Slug:        slug,
		Title:       title,
		Description: meta.Description,
		Date:        meta.Date,
		Author:      meta.Author,
		Excerpt:     excerpt,
		Body:        string(body),
	}
	n, err := newNode(api.TypeGuide, g.ID, g)
	if err != nil {
		return nil, err
	}
	return []*graph.Node{n}, nil
}
