package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/service"
	"github.com/timmy/artcaption/internal/source"
)

// BatchRunner captions every image of a source.
type BatchRunner interface {
	CaptionSource(ctx context.Context, src source.Source, opts *service.BatchOptions) (*service.BatchStats, error)
}

// BatchHandler triggers gallery captioning runs.
type BatchHandler struct {
	runner  BatchRunner
	sources map[string]source.Source

	// Run state
	mu            sync.RWMutex
	isRunning     bool
	currentStats  *service.BatchStats
	lastRunTime   time.Time
	lastRunStatus string
}

// NewBatchHandler creates a new batch handler.
// Parameters:
//   - runner: batch service instance.
//   - sources: image sources keyed by name.
//
// Returns:
//   - *BatchHandler: initialized handler.
func NewBatchHandler(runner BatchRunner, sources map[string]source.Source) *BatchHandler {
	return &BatchHandler{
		runner:  runner,
		sources: sources,
	}
}

// BatchRequest represents the batch API request.
type BatchRequest struct {
	Source   string `json:"source" binding:"required"`
	Limit    int    `json:"limit" binding:"min=0,max=10000"`
	Prompt   string `json:"prompt"`
	Feedback string `json:"feedback"`
	Force    bool   `json:"force"`
}

// BatchResponse represents the batch API response.
type BatchResponse struct {
	Message string              `json:"message"`
	Stats   *service.BatchStats `json:"stats,omitempty"`
}

// BatchStatusResponse represents the batch run status.
type BatchStatusResponse struct {
	IsRunning     bool                `json:"is_running"`
	Sources       []string            `json:"sources"`
	LastRunTime   string              `json:"last_run_time,omitempty"`
	LastRunStatus string              `json:"last_run_status,omitempty"`
	CurrentStats  *service.BatchStats `json:"current_stats,omitempty"`
}

// TriggerBatch handles POST /api/v1/batches.
func (h *BatchHandler) TriggerBatch(c *gin.Context) {
	ctx := c.Request.Context()

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid batch request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, ok := h.sources[req.Source]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source: " + req.Source})
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "A batch is already running"})
		return
	}
	h.isRunning = true
	h.currentStats = nil
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting batch: source=%s, limit=%d, force=%v", req.Source, req.Limit, req.Force)

	// The run outlives a client disconnect but keeps the request's log fields
	stats, err := h.runner.CaptionSource(context.WithoutCancel(ctx), src, &service.BatchOptions{
		Limit:    req.Limit,
		Prompt:   req.Prompt,
		Feedback: req.Feedback,
		Force:    req.Force,
	})

	h.mu.Lock()
	h.isRunning = false
	h.currentStats = stats
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		logger.CtxError(ctx, "Batch failed: source=%s, error=%v", req.Source, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, BatchResponse{
		Message: "Batch completed",
		Stats:   stats,
	})
}

// GetBatchStatus handles GET /api/v1/batches/status.
func (h *BatchHandler) GetBatchStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := BatchStatusResponse{
		IsRunning:     h.isRunning,
		Sources:       names,
		LastRunStatus: h.lastRunStatus,
		CurrentStats:  h.currentStats,
	}
	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}
