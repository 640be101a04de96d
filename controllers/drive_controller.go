package controllers

import (
	"net/http"

	"flaredrive/models"
	"flaredrive/services/drive"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DriveController handles listing and folder/file management endpoints
type DriveController struct {
	driveService *drive.Service
	logger       *logrus.Entry
}

// NewDriveController creates a new drive controller
func NewDriveController(driveService *drive.Service, logger *logrus.Entry) *DriveController {
	if logger == nil {
		logger = logrus.WithField("component", "HTTP")
	}
	return &DriveController{
		driveService: driveService,
		logger:       logger,
	}
}

// List returns the entries directly under the prefix query parameter
func (c *DriveController) List(ctx *gin.Context) {
	entries, err := c.driveService.List(ctx.Request.Context(), ctx.Query("prefix"))
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to list files.")
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// CreateFolder creates an empty folder
func (c *DriveController) CreateFolder(ctx *gin.Context) {
	var req models.KeyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Key is required"))
		return
	}

	key, err := c.driveService.CreateFolder(ctx.Request.Context(), req.Key)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to create folder.")
		return
	}

	ctx.JSON(http.StatusOK, models.FolderResponse{Key: key})
}

// Delete removes a file or a folder with its content
func (c *DriveController) Delete(ctx *gin.Context) {
	var req models.KeyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("Key is required"))
		return
	}

	deleted, err := c.driveService.Delete(ctx.Request.Context(), req.Key)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to delete.")
		return
	}

	ctx.JSON(http.StatusOK, models.DeleteResponse{Deleted: deleted})
}

// Rename moves a file or folder to a new key
func (c *DriveController) Rename(ctx *gin.Context) {
	var req models.RenameRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, models.NewErrorResponse("oldKey and newKey are required"))
		return
	}

	moved, err := c.driveService.Rename(ctx.Request.Context(), req.OldKey, req.NewKey)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to rename.")
		return
	}

	ctx.JSON(http.StatusOK, models.RenameResponse{Moved: moved})
}
