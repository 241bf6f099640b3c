package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/source"
)

// CaptionStore persists generated captions.
type CaptionStore interface {
	Create(ctx context.Context, record *domain.CaptionRecord) error
	ExistsBySourceID(ctx context.Context, sourceType, sourceID string) (bool, error)
}

// BatchJobStore persists batch run progress.
type BatchJobStore interface {
	Create(ctx context.Context, job *domain.BatchJob) error
	Update(ctx context.Context, job *domain.BatchJob) error
}

// BatchService captions every image of a source with a worker pool.
type BatchService struct {
	captions  *CaptionService
	store     CaptionStore
	jobs      BatchJobStore
	logger    *logger.Logger
	workers   int
	batchSize int
}

// BatchConfig holds configuration for the batch service
type BatchConfig struct {
	Workers   int
	BatchSize int
}

// NewBatchService creates a new batch service. store and jobs may be nil, in
// which case results are only reported, not archived.
func NewBatchService(captions *CaptionService, store CaptionStore, jobs BatchJobStore, log *logger.Logger, cfg *BatchConfig) *BatchService {
	if log == nil {
		log = logger.GetDefault()
	}
	workers, batchSize := 4, 16
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
	}
	return &BatchService{
		captions:  captions,
		store:     store,
		jobs:      jobs,
		logger:    log,
		workers:   workers,
		batchSize: batchSize,
	}
}

// log returns a logger from context if available, otherwise returns the service logger
func (s *BatchService) log(ctx context.Context) *logger.Logger {
	if logger.HasLogger(ctx) {
		return logger.FromContext(ctx)
	}
	return s.logger
}

// BatchStats holds statistics for a batch run
type BatchStats struct {
	JobID          string
	TotalItems     int64
	ProcessedItems int64
	SkippedItems   int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// BatchItemResult is reported once per processed image.
type BatchItemResult struct {
	Item    source.ImageItem
	Record  *domain.CaptionRecord
	Skipped bool
	Err     error
}

// BatchOptions holds options for a batch run
type BatchOptions struct {
	Limit    int    // Max images to process; 0 means all
	Prompt   string // Default prompt for items without their own
	Feedback string // Default feedback for items without their own
	Force    bool   // Re-caption images already archived

	// OnResult is called from a single goroutine, in completion order.
	OnResult func(BatchItemResult)
}

// errSkipArchived marks an image that already has an archived caption
var errSkipArchived = errors.New("skipped: already captioned")

// CaptionSource captions every image provided by src.
// Parameters:
//   - ctx: context for cancellation; cancelling stops fetching and pending items.
//   - src: image source to drain.
//   - opts: run options; nil processes everything with defaults.
//
// Returns:
//   - *BatchStats: counters for the run.
//   - error: non-nil only when the job record cannot be created.
func (s *BatchService) CaptionSource(ctx context.Context, src source.Source, opts *BatchOptions) (*BatchStats, error) {
	if opts == nil {
		opts = &BatchOptions{}
	}

	stats := &BatchStats{
		JobID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	if !logger.HasLogger(ctx) {
		ctx = s.logger.WithContext(ctx)
	}
	ctx = logger.SetBatchID(ctx, stats.JobID)
	ctx = logger.WithField(ctx, logger.FieldSource, src.GetSourceID())

	job := &domain.BatchJob{
		ID:        stats.JobID,
		SourceID:  src.GetSourceID(),
		Status:    domain.BatchStatusRunning,
		Prompt:    opts.Prompt,
		StartedAt: stats.StartTime,
	}
	if s.jobs != nil {
		if err := s.jobs.Create(ctx, job); err != nil {
			return nil, fmt.Errorf("failed to create batch job: %w", err)
		}
	}

	s.log(ctx).WithFields(logger.Fields{
		"display_name": src.GetDisplayName(),
		"limit":        opts.Limit,
		"workers":      s.workers,
		"force":        opts.Force,
	}).Info("Starting batch captioning")

	itemsChan := make(chan source.ImageItem, s.workers*2)
	resultsChan := make(chan BatchItemResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, src.GetSourceID(), itemsChan, resultsChan, opts)
		}()
	}

	var errLog []string
	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			switch {
			case result.Skipped:
				atomic.AddInt64(&stats.SkippedItems, 1)
			case result.Err != nil:
				atomic.AddInt64(&stats.FailedItems, 1)
				errLog = append(errLog, fmt.Sprintf("%s: %v", result.Item.SourceID, result.Err))
				s.log(ctx).WithField("source_id", result.Item.SourceID).
					WithError(result.Err).Error("Failed to caption image")
			}
			if opts.OnResult != nil {
				opts.OnResult(result)
			}
		}
		close(done)
	}()

	fetchErr := s.feed(ctx, src, opts.Limit, itemsChan, stats)

	close(itemsChan)
	wg.Wait()
	close(resultsChan)
	<-done

	stats.EndTime = time.Now()
	s.finishJob(ctx, job, stats, fetchErr, errLog)

	logger.With(logger.Fields{
		logger.FieldCount:      stats.ProcessedItems,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		logger.FieldStatus:     string(job.Status),
		"skipped":              stats.SkippedItems,
		"failed":               stats.FailedItems,
	}).Info(ctx, "Batch captioning completed")

	return stats, nil
}

// feed pages through src and hands items to the workers.
func (s *BatchService) feed(ctx context.Context, src source.Source, limit int, items chan<- source.ImageItem, stats *BatchStats) error {
	cursor := ""
	fetched := 0
	for ctx.Err() == nil {
		batchLimit := s.batchSize
		if limit > 0 {
			remaining := limit - fetched
			if remaining <= 0 {
				return nil
			}
			if batchLimit > remaining {
				batchLimit = remaining
			}
		}

		batch, next, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			s.log(ctx).WithError(err).Error("Failed to fetch batch")
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(batch)))
		fetched += len(batch)

		for _, item := range batch {
			select {
			case items <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if next == "" {
			return nil
		}
		cursor = next
	}
	return ctx.Err()
}

func (s *BatchService) worker(ctx context.Context, sourceType string, items <-chan source.ImageItem, results chan<- BatchItemResult, opts *BatchOptions) {
	for item := range items {
		if ctx.Err() != nil {
			results <- BatchItemResult{Item: item, Err: ctx.Err()}
			continue
		}

		record, err := s.processItem(ctx, sourceType, item, opts)
		result := BatchItemResult{Item: item, Record: record}
		if errors.Is(err, errSkipArchived) {
			result.Skipped = true
		} else {
			result.Err = err
		}
		results <- result
	}
}

func (s *BatchService) processItem(ctx context.Context, sourceType string, item source.ImageItem, opts *BatchOptions) (*domain.CaptionRecord, error) {
	if s.store != nil && !opts.Force {
		exists, err := s.store.ExistsBySourceID(ctx, sourceType, item.SourceID)
		if err != nil {
			return nil, fmt.Errorf("failed to check existence: %w", err)
		}
		if exists {
			return nil, errSkipArchived
		}
	}

	img, info, err := source.LoadImage(item.LocalPath)
	if err != nil {
		return nil, err
	}

	prompt := firstNonBlank(item.Prompt, opts.Prompt)
	feedback := firstNonBlank(item.Feedback, opts.Feedback)

	id := uuid.New().String()
	ctx = logger.SetCaptionID(ctx, id)

	result, err := s.captions.Generate(ctx, img, prompt, feedback)
	if err != nil {
		return nil, err
	}

	record := domain.NewCaptionRecord(id, result)
	record.SourceType = sourceType
	record.SourceID = item.SourceID
	record.ImageFormat = info.Format
	record.Width = info.Width
	record.Height = info.Height
	record.Prompt = prompt
	record.Feedback = feedback
	record.Model = s.captions.Model()

	if s.store != nil {
		if err := s.store.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save caption: %w", err)
		}
	}
	return record, nil
}

func (s *BatchService) finishJob(ctx context.Context, job *domain.BatchJob, stats *BatchStats, fetchErr error, errLog []string) {
	completed := stats.EndTime
	job.CompletedAt = &completed
	job.TotalItems = int(stats.TotalItems)
	job.ProcessedItems = int(stats.ProcessedItems)
	job.FailedItems = int(stats.FailedItems)
	job.Status = domain.BatchStatusCompleted
	if fetchErr != nil {
		job.Status = domain.BatchStatusFailed
		errLog = append(errLog, "fetch: "+fetchErr.Error())
	}
	job.ErrorLog = strings.Join(errLog, "\n")

	if s.jobs == nil {
		return
	}
	// The run context may already be cancelled; the final status still needs saving.
	if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log(ctx).WithError(err).Error("Failed to update batch job")
	}
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
