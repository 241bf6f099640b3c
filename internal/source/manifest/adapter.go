package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/timmy/artcaption/internal/source"
)

// FileName is the JSON Lines manifest file name inside a manifest gallery.
const FileName = "manifest.jsonl"

// Entry is one line of the manifest.
type Entry struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Category string `json:"category"`
	Prompt   string `json:"prompt"`
	Feedback string `json:"feedback"`
}

// Adapter implements the Source interface for a gallery described by a
// manifest.jsonl file, carrying per-image prompt and feedback.
type Adapter struct {
	dir string

	mu      sync.Mutex
	items   []source.ImageItem
	skipped int
	loaded  bool
}

// NewAdapter creates a manifest adapter for the directory holding manifest.jsonl.
func NewAdapter(dir string) *Adapter {
	return &Adapter{dir: dir}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "manifest:" + filepath.Base(a.dir)
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Manifest (%s)", a.dir)
}

// FetchBatch fetches a batch of image items in manifest order.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	if err := a.ensureLoaded(); err != nil {
		return nil, "", err
	}
	return source.Paginate(a.items, cursor, limit)
}

// Skipped returns how many manifest lines were ignored as malformed or missing.
func (a *Adapter) Skipped() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.skipped
}

func (a *Adapter) ensureLoaded() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.loaded {
		return nil
	}
	if err := a.loadItems(); err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}
	a.loaded = true
	return nil
}

func (a *Adapter) loadItems() error {
	path := filepath.Join(a.dir, FileName)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("manifest file not found: %w", err)
	}
	defer file.Close()

	a.items = []source.ImageItem{}
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Filename == "" {
			a.skipped++
			continue
		}

		format := source.FormatFromExt(filepath.Ext(entry.Filename))
		localPath := filepath.Join(a.dir, filepath.FromSlash(entry.Filename))
		if format == "" {
			a.skipped++
			continue
		}
		if _, err := os.Stat(localPath); err != nil {
			a.skipped++
			continue
		}

		id := entry.ID
		if id == "" {
			id = entry.Filename
		}
		if seen[id] {
			a.skipped++
			continue
		}
		seen[id] = true

		a.items = append(a.items, source.ImageItem{
			SourceID:  id,
			LocalPath: localPath,
			Format:    format,
			Category:  entry.Category,
			Prompt:    entry.Prompt,
			Feedback:  entry.Feedback,
		})
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}
	return nil
}
