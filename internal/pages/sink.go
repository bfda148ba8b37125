package pages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/aryanpingle/thecodingtrain.com/api"
)

// Sink receives page-creation directives.
type Sink interface {
	CreatePage(ctx context.Context, p api.Page) error
}

// Collector keeps pages in memory, in creation order.
type Collector struct {
	mu    sync.Mutex
	pages []api.Page
}

func (c *Collector) CreatePage(_ context.Context, p api.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = append(c.pages, p)
	return nil
}

// Pages returns a copy of the collected pages.
func (c *Collector) Pages() []api.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]api.Page(nil), c.pages...)
}

// ManifestWriter writes one JSON object per page, newline delimited.
type ManifestWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewManifestWriter(w io.Writer) *ManifestWriter {
	return &ManifestWriter{enc: json.NewEncoder(w)}
}

func (m *ManifestWriter) CreatePage(_ context.Context, p api.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enc.Encode(p); err != nil {
		return fmt.Errorf("write manifest entry %s: %w", p.Path, err)
	}
	return nil
}
