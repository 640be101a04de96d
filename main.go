package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flaredrive/config"
	"flaredrive/router"
	"flaredrive/storage"
	"flaredrive/utils"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

func main() {
	cfg, err := config.FromArgs(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.SetupLogging(cfg.LogFile, cfg.LogLevel)
	logger.Infof("FlareDrive %s starting up...", version)

	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize object storage
	logger.Infof("Connecting to storage backend (%s %s)...", cfg.Storage.Driver, cfg.Storage.Endpoint)
	store, err := storage.New(ctx, cfg.Storage, utils.NewComponentLogger(logger, utils.ComponentStorage))
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}
	logger.Infof("Successfully connected to storage backend, bucket: %s", store.GetBucketName())

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewEngine(cfg, store, logger, version),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting server on :%s", cfg.Port)
		logger.Infof("Frontend CORS origin: %s", cfg.CorsOrigin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Graceful shutdown failed: %v", err)
	}
}
