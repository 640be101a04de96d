package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger reports whether the object store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
	GetBucketName() string
}

// HealthController handles health check endpoints
type HealthController struct {
	version string
	store   Pinger
	logger  *logrus.Entry
}

// NewHealthController creates a new health controller
func NewHealthController(version string, store Pinger, logger *logrus.Entry) *HealthController {
	if logger == nil {
		logger = logrus.WithField("component", "HTTP")
	}
	return &HealthController{
		version: version,
		store:   store,
		logger:  logger,
	}
}

// HealthCheck returns the health status of the API and its bucket
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	status, code := "healthy", http.StatusOK

	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()
	if err := c.store.Ping(pingCtx); err != nil {
		c.logger.WithError(err).Warn("Storage health check failed")
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	ctx.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   c.version,
		"bucket":    c.store.GetBucketName(),
	})
}
