package controllers

import (
	"net/http"

	"flaredrive/models"
	"flaredrive/services/upload"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UploadController handles the upload endpoints
type UploadController struct {
	uploadService *upload.Service
	maxSize       int64
	logger        *logrus.Entry
}

// NewUploadController creates a new upload controller. maxSize caps direct upload bodies.
func NewUploadController(uploadService *upload.Service, maxSize int64, logger *logrus.Entry) *UploadController {
	if logger == nil {
		logger = logrus.WithField("component", "HTTP")
	}
	return &UploadController{
		uploadService: uploadService,
		maxSize:       maxSize,
		logger:        logger,
	}
}

// Begin issues an upload target for a file
func (c *UploadController) Begin(ctx *gin.Context) {
	var req models.UploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Filename is required"))
		return
	}

	target, err := c.uploadService.Begin(ctx.Request.Context(), req.Filename, req.Size)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to start upload.")
		return
	}

	ctx.JSON(http.StatusOK, target)
}

// Receive accepts the raw file body for stores without presigned uploads
func (c *UploadController) Receive(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Upload ID is required"))
		return
	}

	body := ctx.Request.Body
	if c.maxSize > 0 {
		body = http.MaxBytesReader(ctx.Writer, body, c.maxSize)
	}
	defer body.Close()

	result, err := c.uploadService.Receive(ctx.Request.Context(), id, body, ctx.Request.ContentLength)
	if err != nil {
		respondError(ctx, c.logger, err, "Upload failed.")
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// Complete confirms an upload
func (c *UploadController) Complete(ctx *gin.Context) {
	var req models.CompleteUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Key is required"))
		return
	}

	result, err := c.uploadService.Complete(ctx.Request.Context(), req.Key)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to complete upload.")
		return
	}

	ctx.JSON(http.StatusOK, result)
}
