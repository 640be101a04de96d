package controllers

import (
	"net/http"

	"flaredrive/models"
	"flaredrive/services/usage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UsageErrorMessage is the only error a storage usage request reports
const UsageErrorMessage = "Failed to retrieve storage usage."

// UsageController serves the storage usage endpoint
type UsageController struct {
	usageService *usage.Service
	logger       *logrus.Entry
}

// NewUsageController creates a new usage controller
func NewUsageController(usageService *usage.Service, logger *logrus.Entry) *UsageController {
	if logger == nil {
		logger = logrus.WithField("component", "HTTP")
	}
	return &UsageController{
		usageService: usageService,
		logger:       logger,
	}
}

// GetStorageUsage returns the total size of every object in the bucket
func (c *UsageController) GetStorageUsage(ctx *gin.Context) {
	total, err := c.usageService.TotalSize(ctx.Request.Context())
	if err != nil {
		_ = ctx.Error(err)
		c.logger.WithError(err).Error("Failed to calculate storage usage")
		ctx.JSON(http.StatusInternalServerError, models.NewErrorResponse(UsageErrorMessage))
		return
	}

	ctx.JSON(http.StatusOK, models.UsageResponse{TotalSize: total})
}
