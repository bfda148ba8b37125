package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantFM   string
		wantBody string
		wantErr  bool
	}{
		{"none", "# Title\n", "", "# Title\n", false},
		{"basic", "---\ntitle: A\n---\nBody\n", "title: A\n", "Body\n", false},
		{"crlf", "---\r\ntitle: A\r\n---\r\nBody\r\n", "title: A\n", "Body\n", false},
		{"empty body", "---\ntitle: A\n---", "title: A\n", "", false},
		{"unterminated", "---\ntitle: A\n", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fm, body, err := splitFrontmatter([]byte(tc.src))
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantFM, string(fm))
			assert.Equal(t, tc.wantBody, string(body))
		})
	}
}

func TestOutline(t *testing.T) {
	title, excerpt := outline([]byte("# The Title\n\nFirst *paragraph* here.\n\nSecond one.\n"))
	assert.Equal(t, "The Title", title)
	assert.Equal(t, "First paragraph here.", excerpt)

	long := strings.Repeat("word ", 100)
	_, excerpt = outline([]byte(long))
	assert.LessOrEqual(t, len([]rune(excerpt)), excerptLength+1)
	assert.True(t, strings.HasSuffix(excerpt, "…"))
}
