package router

import (
	"net/http"
	"strings"

	"flaredrive/controllers"
	"flaredrive/middleware"
	"flaredrive/models"
	"flaredrive/web"

	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted by RegisterRoutes
type Controllers struct {
	Health *controllers.HealthController
	Usage  *controllers.UsageController
	Drive  *controllers.DriveController
	Upload *controllers.UploadController
	File   *controllers.FileController
}

// RegisterRoutes configures all the API routes, the metrics endpoint and the
// UI/download fallback
func RegisterRoutes(r *gin.Engine, c Controllers, rateLimiter *middleware.RateLimiter,
	assets *web.Assets, metricsHandler http.Handler) {

	api := r.Group("/api")
	{
		api.GET("/health", c.Health.HealthCheck)
		api.GET("/storage-usage", c.Usage.GetStorageUsage)
		api.GET("/list", c.Drive.List)
		api.GET("/object", c.File.GetObject)
	}

	// Mutations are rate limited per client IP
	mutations := r.Group("/api")
	mutations.Use(rateLimiter.Limit())
	{
		mutations.POST("/upload", c.Upload.Begin)
		mutations.PUT("/upload/:id", c.Upload.Receive)
		mutations.POST("/complete-upload", c.Upload.Complete)
		mutations.POST("/create-folder", c.Drive.CreateFolder)
		mutations.POST("/delete", c.Drive.Delete)
		mutations.POST("/rename", c.Drive.Rename)
		mutations.PUT("/object", c.File.PutObject)
	}

	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	r.NoRoute(fallback(assets, c.File))
}

// fallback serves UI assets, then treats any other GET path as an object key
func fallback(assets *web.Assets, files *controllers.FileController) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		method := ctx.Request.Method

		if strings.HasPrefix(path, "/api/") || (method != http.MethodGet && method != http.MethodHead) {
			ctx.JSON(http.StatusNotFound, models.NewErrorResponse("Not found."))
			return
		}

		if data, contentType, ok := assets.Read(path); ok {
			ctx.Data(http.StatusOK, contentType, data)
			return
		}

		files.Download(ctx)
	}
}
