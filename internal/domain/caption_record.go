package domain

import (
	"time"
)

// CaptionStatus represents the outcome of a captioning attempt.
type CaptionStatus string

const (
	CaptionStatusGenerated CaptionStatus = "generated"
	CaptionStatusFailed    CaptionStatus = "failed"
)

// CaptionRecord is the archived form of a generated caption.
// Fields include the source image reference, the artifact and its interpretation metadata.
type CaptionRecord struct {
	ID             string        `gorm:"type:text;primaryKey" json:"id"`
	SourceType     string        `gorm:"type:text;index:idx_captions_source" json:"source_type"`
	SourceID       string        `gorm:"type:text;index:idx_captions_source" json:"source_id"`
	ImageFormat    string        `gorm:"type:text" json:"image_format"`
	Width          int           `json:"width"`
	Height         int           `json:"height"`
	Prompt         string        `gorm:"type:text" json:"prompt"`
	Feedback       string        `gorm:"type:text" json:"feedback,omitempty"`
	Title          string        `gorm:"type:text" json:"title"`
	Description    string        `gorm:"type:text" json:"description"`
	RawCaption     string        `gorm:"type:text" json:"raw_caption"`
	RefinedCaption string        `gorm:"type:text" json:"refined_caption"`
	Mood           Mood          `gorm:"type:text;index:idx_captions_mood" json:"mood"`
	Style          Style         `gorm:"type:text" json:"style"`
	ColorR         uint8         `json:"color_r"`
	ColorG         uint8         `json:"color_g"`
	ColorB         uint8         `json:"color_b"`
	Model          string        `gorm:"type:text" json:"model"`
	Status         CaptionStatus `gorm:"type:text;index:idx_captions_status;default:generated" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}

// TableName returns the database table name for CaptionRecord.
func (CaptionRecord) TableName() string {
	return "captions"
}

// DominantColor reassembles the stored color channels.
func (r *CaptionRecord) DominantColor() RGB {
	return RGB{R: r.ColorR, G: r.ColorG, B: r.ColorB}
}

// Result converts the record back into the artifact shape.
func (r *CaptionRecord) Result() CaptionResult {
	return CaptionResult{
		Title:          r.Title,
		Description:    r.Description,
		RawCaption:     r.RawCaption,
		RefinedCaption: r.RefinedCaption,
		Mood:           r.Mood,
		Style:          r.Style,
		DominantColor:  r.DominantColor(),
	}
}

// NewCaptionRecord fills a record from a generated result.
func NewCaptionRecord(id string, result *CaptionResult) *CaptionRecord {
	return &CaptionRecord{
		ID:             id,
		Title:          result.Title,
		Description:    result.Description,
		RawCaption:     result.RawCaption,
		RefinedCaption: result.RefinedCaption,
		Mood:           result.Mood,
		Style:          result.Style,
		ColorR:         result.DominantColor.R,
		ColorG:         result.DominantColor.G,
		ColorB:         result.DominantColor.B,
		Status:         CaptionStatusGenerated,
		CreatedAt:      time.Now(),
	}
}
