package controllers

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"flaredrive/models"
	"flaredrive/services/drive"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// FileController streams object content to and from the browser
type FileController struct {
	driveService *drive.Service
	maxSize      int64
	logger       *logrus.Entry
}

// NewFileController creates a new file controller. maxSize caps request bodies; zero disables it.
func NewFileController(driveService *drive.Service, maxSize int64, logger *logrus.Entry) *FileController {
	if logger == nil {
		logger = logrus.WithField("component", "HTTP")
	}
	return &FileController{
		driveService: driveService,
		maxSize:      maxSize,
		logger:       logger,
	}
}

// Download streams the object named by the request path as an attachment
func (c *FileController) Download(ctx *gin.Context) {
	key := strings.TrimPrefix(ctx.Request.URL.Path, "/")
	c.stream(ctx, key, true)
}

// GetObject streams the object named by the key query parameter inline
func (c *FileController) GetObject(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Key is required"))
		return
	}
	c.stream(ctx, key, false)
}

// PutObject replaces the content of the object named by the key query parameter
func (c *FileController) PutObject(ctx *gin.Context) {
	key := ctx.Query("key")
	if key == "" {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Key is required"))
		return
	}

	body := ctx.Request.Body
	if c.maxSize > 0 {
		body = http.MaxBytesReader(ctx.Writer, body, c.maxSize)
	}
	defer body.Close()

	info, err := c.driveService.Write(ctx.Request.Context(), key, body, ctx.Request.ContentLength, ctx.ContentType())
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to save file.")
		return
	}

	ctx.JSON(http.StatusOK, models.CompletedUpload{
		Key:      info.Key,
		Size:     info.Size,
		ETag:     info.ETag,
		Uploaded: info.LastModified,
	})
}

func (c *FileController) stream(ctx *gin.Context, key string, attachment bool) {
	reader, info, err := c.driveService.Read(ctx.Request.Context(), key)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to retrieve file.")
		return
	}
	defer reader.Close()

	contentType := info.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(path.Ext(key)); byExt != "" {
			contentType = byExt
		} else {
			contentType = "application/octet-stream"
		}
	}

	headers := map[string]string{
		"Last-Modified": info.LastModified.UTC().Format(http.TimeFormat),
	}
	if info.ETag != "" {
		headers["ETag"] = fmt.Sprintf("\"%s\"", info.ETag)
	}
	if attachment {
		headers["Content-Disposition"] = mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)})
	}

	startTime := time.Now()
	ctx.DataFromReader(http.StatusOK, info.Size, contentType, reader, headers)
	c.logger.Debugf("Streamed %s (%d bytes), took: %v", key, info.Size, time.Since(startTime))
}
