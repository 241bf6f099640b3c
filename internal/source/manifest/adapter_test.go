package manifest

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/artcaption/internal/source/sourcetest"
)

func TestAdapter_FetchBatch(t *testing.T) {
	dir := t.TempDir()
	sourcetest.WritePNG(t, dir, "images/dawn.png", 4, 4, color.White)
	sourcetest.WritePNG(t, dir, "images/sea.png", 4, 4, color.White)

	lines := []string{
		`{"id":"dawn","filename":"images/dawn.png","prompt":"an oil study of","feedback":"more poetic"}`,
		`not json`,
		`{"id":"ghost","filename":"images/ghost.png"}`,
		`{"filename":"images/sea.png","category":"marine"}`,
		`{"id":"dawn","filename":"images/sea.png"}`,
		``,
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(strings.Join(lines, "\n")), 0o644))

	a := NewAdapter(dir)
	items, next, err := a.FetchBatch(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, next)
	require.Len(t, items, 2)

	assert.Equal(t, "dawn", items[0].SourceID)
	assert.Equal(t, "an oil study of", items[0].Prompt)
	assert.Equal(t, "more poetic", items[0].Feedback)
	assert.Equal(t, "images/sea.png", items[1].SourceID)
	assert.Equal(t, "marine", items[1].Category)
	assert.Equal(t, 3, a.Skipped())
}

func TestAdapter_MissingManifest(t *testing.T) {
	_, _, err := NewAdapter(t.TempDir()).FetchBatch(context.Background(), "", 10)
	assert.ErrorContains(t, err, "manifest file not found")
}
