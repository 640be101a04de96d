package router

import (
	"flaredrive/config"
	"flaredrive/controllers"
	"flaredrive/metrics"
	"flaredrive/middleware"
	"flaredrive/services/drive"
	"flaredrive/services/upload"
	"flaredrive/services/usage"
	"flaredrive/storage"
	"flaredrive/utils"
	"flaredrive/web"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// NewEngine builds the services on top of store and returns the HTTP handler
func NewEngine(cfg *config.Config, store storage.ObjectStorage, logger *logrus.Logger, version string) *gin.Engine {
	m := metrics.New()
	httpLogger := utils.NewComponentLogger(logger, utils.ComponentHTTP)

	usageService := usage.NewService(store, m, utils.NewComponentLogger(logger, utils.ComponentUsage))
	driveService := drive.NewService(store, utils.NewComponentLogger(logger, utils.ComponentDrive))
	uploadService := upload.NewService(store, upload.Options{
		Expiry:  cfg.UploadURLExpiry,
		MaxSize: cfg.MaxFileSize(),
	}, utils.NewComponentLogger(logger, utils.ComponentUpload))

	// Create a new Gin router with no middleware.
	// The default logger is skipped to avoid logging user info; only /api requests are logged.
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.APILogger(httpLogger))
	r.Use(middleware.Metrics(m))

	corsConfig := cors.DefaultConfig()
	if cfg.CorsOrigin == "" || cfg.CorsOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.CorsOrigin}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	r.Use(cors.New(corsConfig))

	RegisterRoutes(r, Controllers{
		Health: controllers.NewHealthController(version, store, httpLogger),
		Usage:  controllers.NewUsageController(usageService, httpLogger),
		Drive:  controllers.NewDriveController(driveService, httpLogger),
		Upload: controllers.NewUploadController(uploadService, cfg.MaxFileSize(), httpLogger),
		File:   controllers.NewFileController(driveService, cfg.MaxFileSize(), httpLogger),
	}, middleware.NewRateLimiter(cfg.RateLimitPerMinute), web.NewAssets(cfg.StaticDir, cfg.StorageQuotaGB), m.Handler())

	return r
}
