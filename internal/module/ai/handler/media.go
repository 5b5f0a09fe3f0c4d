package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aidash/server/internal/module/quota"
	"github.com/aidash/server/internal/shared/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds background removal uploads.
const DefaultMaxUploadBytes = 12 << 20

// MediaService provides the image capabilities.
type MediaService interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
	RemoveBackground(ctx context.Context, userID string, image []byte) (string, error)
}

// MediaHandler serves the image capabilities.
type MediaHandler struct {
	gate           Gate
	identity       quota.IdentityFunc
	mediaService   MediaService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(gate Gate, identity quota.IdentityFunc, mediaService MediaService, maxUploadBytes int64, logger *zap.Logger) *MediaHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MediaHandler{
		gate:           gate,
		identity:       identity,
		mediaService:   mediaService,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers media routes.
func (h *MediaHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/image", h.GenerateImage)
	r.POST("/remove-background", h.RemoveBackground)
}

// GenerateImage handles image generation requests.
//
//	@Summary		Generate an image
//	@Tags			AI
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ImageRequest	true	"Prompt"
//	@Success		200		{object}	ImageResponse
//	@Failure		400		{object}	response.ErrorResponse	"Invalid input"
//	@Failure		401		{object}	response.ErrorResponse	"Unauthorized"
//	@Failure		403		{object}	response.ErrorResponse	"Free limit reached"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/image [post]
func (h *MediaHandler) GenerateImage(c *gin.Context) {
	var req ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			response.BadRequest(c, "Empty request")
			return
		}
		response.BadRequest(c, "Invalid input")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.BadRequest(c, "Invalid input")
		return
	}

	if _, ok := admit(c, h.gate, h.identity, req.UserID, h.logger); !ok {
		return
	}

	location, err := h.mediaService.GenerateImage(c.Request.Context(), req.Prompt)
	if err != nil {
		response.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ImageResponse{URL: location})
}

// RemoveBackground handles background removal uploads.
//
//	@Summary		Remove an image background
//	@Tags			AI
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			image	formData	file	true	"Image"
//	@Param			userId	formData	string	false	"User ID when no session is present"
//	@Success		200		{object}	RemoveBackgroundResponse
//	@Failure		400		{object}	response.ErrorResponse	"No image provided"
//	@Failure		401		{object}	response.ErrorResponse	"Unauthorized"
//	@Failure		403		{object}	response.ErrorResponse	"Free limit reached"
//	@Failure		500		{object}	response.ErrorResponse	"Internal server error"
//	@Router			/remove-background [post]
func (h *MediaHandler) RemoveBackground(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(c, "Image too large")
			return
		}
		response.BadRequest(c, "No image provided")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "No image provided")
		return
	}
	image, err := io.ReadAll(file)
	_ = file.Close()
	if err != nil || len(image) == 0 {
		response.BadRequest(c, "No image provided")
		return
	}

	userID, ok := admit(c, h.gate, h.identity, c.PostForm("userId"), h.logger)
	if !ok {
		return
	}

	location, err := h.mediaService.RemoveBackground(c.Request.Context(), userID, image)
	if err != nil {
		response.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, RemoveBackgroundResponse{ImageURL: location})
}
