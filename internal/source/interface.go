package source

import (
	"context"
	"fmt"
	"strconv"
)

// ImageItem represents an artwork image offered by a source.
type ImageItem struct {
	SourceID  string // Unique ID within the source
	LocalPath string // Local file path
	Format    string // File format (jpeg, png, gif, webp)
	Category  string // Category/folder name

	// Optional per-image caption inputs; empty uses the batch defaults.
	Prompt   string
	Feedback string
}

// Source defines the interface for artwork image sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	GetDisplayName() string

	// FetchBatch fetches a batch of image items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of image items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []ImageItem, nextCursor string, err error)
}

// Paginate slices items by an index cursor the way FetchBatch reports it.
func Paginate(items []ImageItem, cursor string, limit int) ([]ImageItem, string, error) {
	start := 0
	if cursor != "" {
		var err error
		start, err = strconv.Atoi(cursor)
		if err != nil || start < 0 {
			return nil, "", fmt.Errorf("invalid cursor: %q", cursor)
		}
	}
	if limit <= 0 {
		limit = len(items)
	}
	if start >= len(items) {
		return []ImageItem{}, "", nil
	}

	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	next := ""
	if end < len(items) {
		next = strconv.Itoa(end)
	}
	return items[start:end], next, nil
}

// FormatFromExt maps a file extension to a supported image format, or "" if unsupported.
func FormatFromExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg", ".JPG", ".JPEG":
		return "jpeg"
	case ".png", ".PNG":
		return "png"
	case ".gif", ".GIF":
		return "gif"
	case ".webp", ".WEBP":
		return "webp"
	}
	return ""
}
