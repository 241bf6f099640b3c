package domain

import "time"

// BatchStatus represents the status of a gallery batch run.
type BatchStatus string

const (
	BatchStatusRunning   BatchStatus = "running"
	BatchStatusCompleted BatchStatus = "completed"
	BatchStatusFailed    BatchStatus = "failed"
)

// BatchJob records the progress of one gallery captioning run.
type BatchJob struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	SourceID       string      `gorm:"type:text;not null;index" json:"source_id"`
	Status         BatchStatus `gorm:"type:text;default:running" json:"status"`
	Prompt         string      `gorm:"type:text" json:"prompt,omitempty"`
	TotalItems     int         `gorm:"default:0" json:"total_items"`
	ProcessedItems int         `gorm:"default:0" json:"processed_items"`
	FailedItems    int         `gorm:"default:0" json:"failed_items"`
	StartedAt      time.Time   `json:"started_at"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	ErrorLog       string      `gorm:"type:text" json:"error_log,omitempty"`
}

// TableName returns the database table name for BatchJob.
func (BatchJob) TableName() string {
	return "batch_jobs"
}
