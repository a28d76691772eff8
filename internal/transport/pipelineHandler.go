package transport

import (
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ds124wfegd/image-modifier/internal/entity"
)

// Generate handles POST /generate: analysis plus full generation.
func (h *PipelineHandler) Generate(c *gin.Context) {
	req, ok := h.readRequest(c, true)
	if !ok {
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateSmart handles POST /generate-smart: preservation-focused variant.
func (h *PipelineHandler) GenerateSmart(c *gin.Context) {
	req, ok := h.readRequest(c, true)
	if !ok {
		return
	}

	resp, err := h.service.GenerateSmart(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerateVariation handles POST /generate-variation: no text instruction.
func (h *PipelineHandler) GenerateVariation(c *gin.Context) {
	req, ok := h.readRequest(c, false)
	if !ok {
		return
	}

	resp, err := h.service.CreateVariation(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EditImage handles POST /edit-image: in-painting style edit with an
// optional caller-supplied mask.
func (h *PipelineHandler) EditImage(c *gin.Context) {
	h.edit(c, false)
}

// EditImageSmart handles POST /edit-image-smart.
func (h *PipelineHandler) EditImageSmart(c *gin.Context) {
	h.edit(c, true)
}

func (h *PipelineHandler) edit(c *gin.Context, smart bool) {
	req, ok := h.readRequest(c, true)
	if !ok {
		return
	}

	if maskHeader, err := c.FormFile("mask"); err == nil {
		mask, readErr := h.readFile(maskHeader)
		if readErr != nil {
			respondError(c, readErr)
			return
		}
		req.Mask = mask
	}

	resp, err := h.service.EditImage(c.Request.Context(), req, smart)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AnalyzeOnly handles POST /analyze-only: description stage only.
func (h *PipelineHandler) AnalyzeOnly(c *gin.Context) {
	req, ok := h.readRequest(c, false)
	if !ok {
		return
	}

	resp, err := h.service.AnalyzeOnly(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// readRequest validates the multipart payload and builds the request
// value. Every rejection happens here, before any external call.
func (h *PipelineHandler) readRequest(c *gin.Context, needPrompt bool) (*entity.ModificationRequest, bool) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, entity.NewError(entity.KindClientInput, entity.ErrNoImage))
		return nil, false
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		respondError(c, entity.NewError(entity.KindClientInput, entity.ErrEmptyFilename))
		return nil, false
	}

	prompt := c.PostForm("prompt")
	if needPrompt && strings.TrimSpace(prompt) == "" {
		respondError(c, entity.NewError(entity.KindClientInput, entity.ErrNoPrompt))
		return nil, false
	}

	image, err := h.readFile(fileHeader)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	return &entity.ModificationRequest{
		Image:    image,
		Filename: fileHeader.Filename,
		Prompt:   prompt,
	}, true
}

func (h *PipelineHandler) readFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, entity.Errorf(entity.KindClientInput, "could not open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadBytes+1))
	if err != nil {
		return nil, entity.Errorf(entity.KindClientInput, "could not read uploaded file: %w", err)
	}
	if len(data) == 0 {
		return nil, entity.NewError(entity.KindClientInput, entity.ErrEmptyFile)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, entity.Errorf(entity.KindClientInput, "uploaded file exceeds %d bytes", h.maxUploadBytes)
	}
	return data, nil
}

func respondError(c *gin.Context, err error) {
	kind := entity.KindOf(err)
	c.JSON(statusFor(kind), gin.H{
		"error":   summaryFor(kind),
		"details": err.Error(),
	})
}

func statusFor(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindClientInput:
		return http.StatusBadRequest
	case entity.KindImageProcessing:
		return http.StatusUnprocessableEntity
	case entity.KindAnalysis, entity.KindGeneration:
		return http.StatusBadGateway
	case entity.KindRateLimited:
		return http.StatusTooManyRequests
	case entity.KindQuotaExhausted:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

func summaryFor(kind entity.ErrorKind) string {
	switch kind {
	case entity.KindClientInput:
		return "Image and prompt required"
	case entity.KindConfig:
		return "Service is not configured"
	case entity.KindImageProcessing:
		return "Image processing failed"
	case entity.KindAnalysis:
		return "Image analysis failed"
	case entity.KindGeneration:
		return "Image generation failed"
	case entity.KindRateLimited:
		return "Upstream rate limit exceeded"
	case entity.KindQuotaExhausted:
		return "Upstream quota exhausted"
	default:
		return "Internal server error"
	}
}
