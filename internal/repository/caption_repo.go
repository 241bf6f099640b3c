package repository

import (
	"context"
	"errors"

	"github.com/timmy/artcaption/internal/domain"
	"gorm.io/gorm"
)

// ErrCaptionNotFound is returned when no caption record matches the lookup.
var ErrCaptionNotFound = errors.New("caption not found")

// CaptionFilter narrows List results. Zero values match everything.
type CaptionFilter struct {
	Mood     domain.Mood
	SourceID string
	Status   domain.CaptionStatus
}

// CaptionRepository handles archived caption records.
type CaptionRepository struct {
	db *gorm.DB
}

// NewCaptionRepository creates a new CaptionRepository.
func NewCaptionRepository(db *gorm.DB) *CaptionRepository {
	return &CaptionRepository{db: db}
}

// Create inserts a new caption record.
func (r *CaptionRepository) Create(ctx context.Context, record *domain.CaptionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID retrieves a caption by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: caption record ID.
//
// Returns:
//   - *domain.CaptionRecord: record if found.
//   - error: ErrCaptionNotFound when missing, other errors on query failure.
func (r *CaptionRepository) GetByID(ctx context.Context, id string) (*domain.CaptionRecord, error) {
	var record domain.CaptionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCaptionNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ExistsBySourceID checks whether an image from a source was already captioned.
func (r *CaptionRepository) ExistsBySourceID(ctx context.Context, sourceType, sourceID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.CaptionRecord{}).
		Where("source_type = ? AND source_id = ? AND status = ?", sourceType, sourceID, domain.CaptionStatusGenerated).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// List retrieves captions newest first with pagination.
func (r *CaptionRepository) List(ctx context.Context, filter CaptionFilter, limit, offset int) ([]domain.CaptionRecord, error) {
	var records []domain.CaptionRecord
	if err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of captions matching filter.
func (r *CaptionRepository) Count(ctx context.Context, filter CaptionFilter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *CaptionRepository) filtered(ctx context.Context, filter CaptionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&domain.CaptionRecord{})
	if filter.Mood != "" {
		query = query.Where("mood = ?", filter.Mood)
	}
	if filter.SourceID != "" {
		query = query.Where("source_id = ?", filter.SourceID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	return query
}
