package gallery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/timmy/artcaption/internal/source"
)

const (
	SourceID   = "gallery"
	SourceName = "Local gallery"
)

// Adapter implements the Source interface for a local directory of artworks.
type Adapter struct {
	root string

	mu     sync.Mutex
	items  []source.ImageItem
	loaded bool
}

// NewAdapter creates a new gallery adapter rooted at dir.
func NewAdapter(dir string) *Adapter {
	return &Adapter{root: dir}
}

// GetSourceID returns the unique identifier for this source
func (a *Adapter) GetSourceID() string {
	return SourceID
}

// GetDisplayName returns a human-readable name for this source
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("%s (%s)", SourceName, a.root)
}

// FetchBatch fetches a batch of image items
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	if err := a.ensureLoaded(); err != nil {
		return nil, "", err
	}
	return source.Paginate(a.items, cursor, limit)
}

// GetTotalCount returns the total number of images in the gallery.
func (a *Adapter) GetTotalCount() (int, error) {
	if err := a.ensureLoaded(); err != nil {
		return 0, err
	}
	return len(a.items), nil
}

func (a *Adapter) ensureLoaded() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}
	if err := a.loadItems(); err != nil {
		return fmt.Errorf("failed to load gallery: %w", err)
	}
	a.loaded = true
	return nil
}

// loadItems walks the gallery and collects every supported image
func (a *Adapter) loadItems() error {
	info, err := os.Stat(a.root)
	if err != nil {
		return fmt.Errorf("gallery path is not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("gallery path is not a directory: %s", a.root)
	}

	a.items = []source.ImageItem{}
	err = filepath.WalkDir(a.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != a.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		format := source.FormatFromExt(filepath.Ext(name))
		if format == "" {
			return nil
		}

		relPath, _ := filepath.Rel(a.root, path)
		category := filepath.Dir(relPath)
		if category == "." {
			category = ""
		}

		a.items = append(a.items, source.ImageItem{
			SourceID:  filepath.ToSlash(relPath),
			LocalPath: path,
			Format:    format,
			Category:  category,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk gallery: %w", err)
	}

	// Stable order across runs
	sort.Slice(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})
	return nil
}
