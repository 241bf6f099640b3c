package service

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/source"
	"github.com/timmy/artcaption/internal/source/gallery"
	"github.com/timmy/artcaption/internal/source/sourcetest"
)

type memoryCaptionStore struct {
	mu      sync.Mutex
	records map[string]*domain.CaptionRecord
}

func newMemoryCaptionStore() *memoryCaptionStore {
	return &memoryCaptionStore{records: make(map[string]*domain.CaptionRecord)}
}

func (m *memoryCaptionStore) Create(ctx context.Context, record *domain.CaptionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.SourceID] = record
	return nil
}

func (m *memoryCaptionStore) ExistsBySourceID(ctx context.Context, sourceType, sourceID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.records[sourceID]
	return ok, nil
}

type memoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]domain.BatchJob
}

func (m *memoryJobStore) Create(ctx context.Context, job *domain.BatchJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = *job
	return nil
}

func (m *memoryJobStore) Update(ctx context.Context, job *domain.BatchJob) error {
	return m.Create(ctx, job)
}

func writeGallery(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sourcetest.WritePNG(t, dir, "dawn.png", 16, 16, color.RGBA{R: 200, G: 50, B: 50, A: 255})
	sourcetest.WritePNG(t, dir, "night.png", 16, 16, color.Black)
	sourcetest.WritePNG(t, dir, "sea/wave.png", 32, 8, color.RGBA{R: 30, G: 40, B: 200, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("nope"), 0o644))
	return dir
}

func TestBatchService_CaptionSource(t *testing.T) {
	model := &stubModel{text: "a painting of the sea"}
	captions := newTestCaptionService(model, NewRandomSource(1))
	store := newMemoryCaptionStore()
	jobs := &memoryJobStore{jobs: make(map[string]domain.BatchJob)}
	svc := NewBatchService(captions, store, jobs, nil, &BatchConfig{Workers: 3, BatchSize: 2})

	var mu sync.Mutex
	var seen []string
	stats, err := svc.CaptionSource(context.Background(), gallery.NewAdapter(writeGallery(t)), &BatchOptions{
		OnResult: func(r BatchItemResult) {
			mu.Lock()
			seen = append(seen, r.Item.SourceID)
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalItems)
	assert.Equal(t, int64(4), stats.ProcessedItems)
	assert.Equal(t, int64(1), stats.FailedItems)
	assert.Zero(t, stats.SkippedItems)
	assert.Equal(t, int32(3), model.calls.Load())

	sort.Strings(seen)
	assert.Equal(t, []string{"broken.png", "dawn.png", "night.png", "sea/wave.png"}, seen)

	require.Len(t, store.records, 3)
	wave := store.records["sea/wave.png"]
	assert.Equal(t, "gallery", wave.SourceType)
	assert.Equal(t, 32, wave.Width)
	assert.Equal(t, "png", wave.ImageFormat)
	assert.Equal(t, domain.StylePanoramic, wave.Style)
	assert.Equal(t, domain.MoodCool, wave.Mood)
	assert.Equal(t, "stub-vlm", wave.Model)
	assert.NotEmpty(t, wave.ID)

	job := jobs.jobs[stats.JobID]
	assert.Equal(t, domain.BatchStatusCompleted, job.Status)
	assert.Equal(t, 4, job.ProcessedItems)
	assert.Equal(t, 1, job.FailedItems)
	assert.Contains(t, job.ErrorLog, "broken.png")
	assert.NotNil(t, job.CompletedAt)
}

func TestBatchService_SkipsArchivedAndHonoursLimit(t *testing.T) {
	model := &stubModel{text: "a quiet room"}
	store := newMemoryCaptionStore()
	store.records["dawn.png"] = &domain.CaptionRecord{ID: "existing", SourceID: "dawn.png"}
	svc := NewBatchService(newTestCaptionService(model, NewRandomSource(1)), store, nil, nil, &BatchConfig{Workers: 1, BatchSize: 10})

	stats, err := svc.CaptionSource(context.Background(), gallery.NewAdapter(writeGallery(t)), &BatchOptions{Limit: 3})
	require.NoError(t, err)

	// Sorted order: broken.png, dawn.png, night.png
	assert.Equal(t, int64(3), stats.TotalItems)
	assert.Equal(t, int64(1), stats.SkippedItems)
	assert.Equal(t, int64(1), stats.FailedItems)
	assert.Equal(t, int32(1), model.calls.Load())
	assert.Equal(t, "existing", store.records["dawn.png"].ID)
}

type itemsSource struct {
	items []source.ImageItem
	err   error
}

func (s *itemsSource) GetSourceID() string    { return "items" }
func (s *itemsSource) GetDisplayName() string { return "Items" }
func (s *itemsSource) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.ImageItem, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return source.Paginate(s.items, cursor, limit)
}

func TestBatchService_PerItemPromptAndFeedback(t *testing.T) {
	dir := t.TempDir()
	path := sourcetest.WritePNG(t, dir, "tree.png", 8, 8, color.White)

	model := &stubModel{text: "a lone tree"}
	svc := NewBatchService(newTestCaptionService(model, newSequence(0)), nil, nil, nil, nil)

	var got *domain.CaptionRecord
	_, err := svc.CaptionSource(context.Background(), &itemsSource{items: []source.ImageItem{
		{SourceID: "tree", LocalPath: path, Format: "png", Prompt: "a woodcut of", Feedback: "more detail"},
	}}, &BatchOptions{Prompt: "ignored", OnResult: func(r BatchItemResult) { got = r.Record }})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "a woodcut of", got.Prompt)
	assert.Equal(t, "more detail", got.Feedback)
	assert.Equal(t, "A lone tree. Every stroke carries a quiet intention.", got.RefinedCaption)
}

func TestBatchService_FetchFailureMarksJobFailed(t *testing.T) {
	jobs := &memoryJobStore{jobs: make(map[string]domain.BatchJob)}
	svc := NewBatchService(newTestCaptionService(&stubModel{}, newSequence(0)), nil, jobs, nil, nil)

	stats, err := svc.CaptionSource(context.Background(), &itemsSource{err: errors.New("disk gone")}, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalItems)
	assert.Equal(t, domain.BatchStatusFailed, jobs.jobs[stats.JobID].Status)
	assert.Contains(t, jobs.jobs[stats.JobID].ErrorLog, "disk gone")
}
