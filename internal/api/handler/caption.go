package handler

import (
	"context"
	"errors"
	"image"
	"net/http"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/artcaption/internal/domain"
	"github.com/timmy/artcaption/internal/logger"
	"github.com/timmy/artcaption/internal/repository"
	"github.com/timmy/artcaption/internal/service"
	"github.com/timmy/artcaption/internal/source"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100

	// multipartSlack covers form boundaries and the prompt/feedback fields.
	multipartSlack = 64 << 10
)

// CaptionGenerator is the caption pipeline as seen by the HTTP layer.
type CaptionGenerator interface {
	Generate(ctx context.Context, img image.Image, prompt, feedback string) (*domain.CaptionResult, error)
	Refine(ctx context.Context, caption, feedback string) (string, error)
	PrefixUsage() map[string]int
	Model() string
}

// CaptionArchive stores and lists generated captions.
type CaptionArchive interface {
	Create(ctx context.Context, record *domain.CaptionRecord) error
	GetByID(ctx context.Context, id string) (*domain.CaptionRecord, error)
	List(ctx context.Context, filter repository.CaptionFilter, limit, offset int) ([]domain.CaptionRecord, error)
	Count(ctx context.Context, filter repository.CaptionFilter) (int64, error)
}

// CaptionHandler handles caption endpoints.
type CaptionHandler struct {
	captions      CaptionGenerator
	archive       CaptionArchive
	maxUploadSize int64
}

// NewCaptionHandler creates a new caption handler.
// Parameters:
//   - captions: caption pipeline.
//   - archive: caption store; nil disables archiving and the read endpoints.
//   - maxUploadSize: upload limit in bytes; <= 0 disables the check.
//
// Returns:
//   - *CaptionHandler: initialized handler.
func NewCaptionHandler(captions CaptionGenerator, archive CaptionArchive, maxUploadSize int64) *CaptionHandler {
	return &CaptionHandler{
		captions:      captions,
		archive:       archive,
		maxUploadSize: maxUploadSize,
	}
}

// CaptionResponse is returned for a generated or archived caption.
type CaptionResponse struct {
	ID string `json:"id,omitempty"`
	domain.CaptionResult
	Model    string `json:"model"`
	Archived bool   `json:"archived"`
}

// RefineRequest represents the refine API request.
type RefineRequest struct {
	Caption  string `json:"caption" binding:"required"`
	Feedback string `json:"feedback"`
}

// RefineResponse represents the refine API response.
type RefineResponse struct {
	Caption   string                    `json:"caption"`
	Directive service.FeedbackDirective `json:"directive"`
}

// ListResponse represents a page of archived captions.
type ListResponse struct {
	Captions []CaptionResponse `json:"captions"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// Generate handles POST /api/v1/captions.
// Expects a multipart form with an "image" file and optional "prompt" and "feedback" fields.
func (h *CaptionHandler) Generate(c *gin.Context) {
	ctx := c.Request.Context()

	if h.maxUploadSize > 0 {
		limit := h.maxUploadSize + multipartSlack
		if c.Request.ContentLength > limit {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	file, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	img, info, err := source.DecodeImage(f)
	if err != nil {
		logger.CtxWarn(ctx, "Rejected upload: filename=%s, error=%v", file.Filename, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported or corrupt image"})
		return
	}

	prompt := c.PostForm("prompt")
	feedback := c.PostForm("feedback")

	id := uuid.New().String()
	ctx = logger.SetCaptionID(ctx, id)

	result, err := h.captions.Generate(ctx, img, prompt, feedback)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := CaptionResponse{
		ID:            id,
		CaptionResult: *result,
		Model:         h.captions.Model(),
	}

	if h.archive != nil {
		record := domain.NewCaptionRecord(id, result)
		record.SourceType = "upload"
		record.SourceID = filepath.Base(file.Filename)
		record.ImageFormat = info.Format
		record.Width = info.Width
		record.Height = info.Height
		record.Prompt = prompt
		record.Feedback = feedback
		record.Model = resp.Model
		if err := h.archive.Create(ctx, record); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("Failed to archive caption")
		} else {
			resp.Archived = true
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Refine handles POST /api/v1/captions/refine.
func (h *CaptionHandler) Refine(c *gin.Context) {
	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	refined, err := h.captions.Refine(c.Request.Context(), req.Caption, req.Feedback)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	directive := service.DirectiveNone
	if utf8.ValidString(req.Feedback) {
		directive = service.ParseDirective(req.Feedback)
	}
	c.JSON(http.StatusOK, RefineResponse{Caption: refined, Directive: directive})
}

// ListCaptions handles GET /api/v1/captions.
func (h *CaptionHandler) ListCaptions(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "caption archive is disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	filter := repository.CaptionFilter{
		Mood:     domain.Mood(c.Query("mood")),
		SourceID: c.Query("source_id"),
	}

	ctx := c.Request.Context()
	records, err := h.archive.List(ctx, filter, limit, offset)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to list captions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list captions"})
		return
	}
	total, err := h.archive.Count(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to count captions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list captions"})
		return
	}

	resp := ListResponse{
		Captions: make([]CaptionResponse, 0, len(records)),
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	}
	for i := range records {
		resp.Captions = append(resp.Captions, recordResponse(&records[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetCaption handles GET /api/v1/captions/:id.
func (h *CaptionHandler) GetCaption(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "caption archive is disabled"})
		return
	}

	record, err := h.archive.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrCaptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Caption not found"})
			return
		}
		logger.FromContext(c.Request.Context()).WithError(err).Error("Failed to load caption")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load caption"})
		return
	}
	c.JSON(http.StatusOK, recordResponse(record))
}

// PrefixUsage handles GET /api/v1/prefixes.
func (h *CaptionHandler) PrefixUsage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"usage": h.captions.PrefixUsage()})
}

func recordResponse(record *domain.CaptionRecord) CaptionResponse {
	return CaptionResponse{
		ID:            record.ID,
		CaptionResult: record.Result(),
		Model:         record.Model,
		Archived:      true,
	}
}

// writeServiceError maps pipeline errors onto HTTP statuses. Generation
// failures stay opaque; the cause is only logged.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGeneration):
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrGeneration.Error()})
	default:
		logger.FromContext(c.Request.Context()).WithError(err).Error("Unexpected caption error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
