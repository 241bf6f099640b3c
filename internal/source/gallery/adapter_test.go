package gallery

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/artcaption/internal/source/sourcetest"
)

func TestAdapter_FetchBatch(t *testing.T) {
	dir := t.TempDir()
	sourcetest.WritePNG(t, dir, "b.png", 4, 4, color.White)
	sourcetest.WritePNG(t, dir, "a.png", 4, 4, color.Black)
	sourcetest.WritePNG(t, dir, "landscapes/sea.png", 4, 4, color.White)
	sourcetest.WritePNG(t, dir, ".hidden/skip.png", 4, 4, color.White)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	a := NewAdapter(dir)
	total, err := a.GetTotalCount()
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	items, next, err := a.FetchBatch(context.Background(), "", 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a.png", items[0].SourceID)
	assert.Equal(t, "b.png", items[1].SourceID)
	assert.Equal(t, "png", items[0].Format)
	assert.Equal(t, "2", next)

	items, next, err = a.FetchBatch(context.Background(), next, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "landscapes/sea.png", items[0].SourceID)
	assert.Equal(t, "landscapes", items[0].Category)
	assert.Empty(t, next)
}

func TestAdapter_MissingDirectory(t *testing.T) {
	a := NewAdapter(filepath.Join(t.TempDir(), "missing"))
	_, _, err := a.FetchBatch(context.Background(), "", 10)
	assert.Error(t, err)
}
