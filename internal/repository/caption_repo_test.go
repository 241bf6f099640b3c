package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/artcaption/internal/config"
	"github.com/timmy/artcaption/internal/domain"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         ":memory:",
		MaxOpenConns: 1,
		AutoMigrate:  true,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newRecord(id string, mood domain.Mood, created time.Time) *domain.CaptionRecord {
	record := domain.NewCaptionRecord(id, &domain.CaptionResult{
		Title:          "Echoes of Mountain at dawn",
		Description:    "A majestic mountain stands tall against the sky, evoking strength and stillness.",
		RawCaption:     "a painting of a mountain at dawn",
		RefinedCaption: "A painting of a mountain at dawn.",
		Mood:           mood,
		Style:          domain.StyleBalanced,
		DominantColor:  domain.RGB{R: 200, G: 120, B: 40},
	})
	record.SourceType = "gallery"
	record.SourceID = id + ".png"
	record.CreatedAt = created
	return record
}

func TestCaptionRepository_CreateAndGet(t *testing.T) {
	repo := NewCaptionRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newRecord("c1", domain.MoodWarm, time.Now())))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Echoes of Mountain at dawn", got.Title)
	assert.Equal(t, domain.RGB{R: 200, G: 120, B: 40}, got.DominantColor())
	assert.Equal(t, domain.CaptionStatusGenerated, got.Status)
	assert.Equal(t, domain.MoodWarm, got.Result().Mood)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrCaptionNotFound)
}

func TestCaptionRepository_ListAndCount(t *testing.T) {
	repo := NewCaptionRepository(newTestDB(t))
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, repo.Create(ctx, newRecord("a", domain.MoodWarm, base.Add(-2*time.Minute))))
	require.NoError(t, repo.Create(ctx, newRecord("b", domain.MoodCool, base.Add(-time.Minute))))
	require.NoError(t, repo.Create(ctx, newRecord("c", domain.MoodWarm, base)))

	all, err := repo.List(ctx, CaptionFilter{}, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	warm, err := repo.List(ctx, CaptionFilter{Mood: domain.MoodWarm}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, warm, 2)

	page, err := repo.List(ctx, CaptionFilter{}, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)

	count, err := repo.Count(ctx, CaptionFilter{Mood: domain.MoodCool})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	exists, err := repo.ExistsBySourceID(ctx, "gallery", "b.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBatchJobRepository_Update(t *testing.T) {
	repo := NewBatchJobRepository(newTestDB(t))
	ctx := context.Background()

	job := &domain.BatchJob{ID: "job-1", SourceID: "gallery", Status: domain.BatchStatusRunning, StartedAt: time.Now()}
	require.NoError(t, repo.Create(ctx, job))

	job.ProcessedItems = 4
	job.FailedItems = 1
	job.Status = domain.BatchStatusCompleted
	require.NoError(t, repo.Update(ctx, job))

	got, err := repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCompleted, got.Status)
	assert.Equal(t, 4, got.ProcessedItems)
	assert.Equal(t, 1, got.FailedItems)
}
