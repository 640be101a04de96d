package storage

import (
	"context"
	"fmt"

	"flaredrive/config"

	"github.com/sirupsen/logrus"
)

// New opens the object store selected by cfg.Driver
func New(ctx context.Context, cfg config.StorageConfig, logger *logrus.Entry) (ObjectStorage, error) {
	switch cfg.Driver {
	case config.DriverMinio:
		return NewMinioStorage(ctx, cfg, logger)
	case config.DriverS3:
		return NewS3Storage(cfg, logger)
	case config.DriverMemory:
		return NewMemoryStorage(cfg.BucketName), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
