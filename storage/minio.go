package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"flaredrive/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// MinioStorage implements ObjectStorage interface using MinIO
type MinioStorage struct {
	client     *minio.Client
	bucketName string
	logger     *logrus.Entry
}

// NewMinioStorage creates a new MinIO storage handler
func NewMinioStorage(ctx context.Context, cfg config.StorageConfig, logger *logrus.Entry) (*MinioStorage, error) {
	if logger == nil {
		logger = logrus.WithField("component", "STORAGE")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	// Create bucket if it doesn't exist
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Infof("Created bucket %s", cfg.BucketName)
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// ListPage fetches one ListObjectsV2 page. The server's continuation token
// is handed back as the cursor, so short pages never drop entries.
func (s *MinioStorage) ListPage(ctx context.Context, opts ListOptions) (*ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	core := minio.Core{Client: s.client}
	result, err := core.ListObjectsV2(s.bucketName, opts.Prefix, "", opts.Cursor, opts.Delimiter, opts.PageLimit())
	if err != nil {
		return nil, fmt.Errorf("error listing objects: %w", translateMinioError(err))
	}

	page := &ListPage{Truncated: result.IsTruncated}
	if result.IsTruncated {
		page.Cursor = result.NextContinuationToken
	}
	for _, object := range result.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ETag:         strings.Trim(object.ETag, `"`),
			ContentType:  object.ContentType,
		})
	}
	for _, p := range result.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, p.Prefix)
	}

	return page, nil
}

// PutObject uploads an object to MinIO
func (s *MinioStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.client.PutObject(ctx, s.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object: %w", err)
	}

	s.logger.Debugf("Uploaded object %s: ETag=%s, Size=%d", key, info.ETag, info.Size)
	return &ObjectInfo{
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified,
		ETag:         info.ETag,
		ContentType:  contentType,
	}, nil
}

// GetObject opens an object for reading
func (s *MinioStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	obj, err := s.client.GetObject(ctx, s.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download object: %w", translateMinioError(err))
	}

	stat, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, fmt.Errorf("failed to download object: %w", translateMinioError(err))
	}

	return obj, minioObjectInfo(stat), nil
}

// StatObject gets information about an object
func (s *MinioStorage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object info: %w", translateMinioError(err))
	}
	return minioObjectInfo(stat), nil
}

// CopyObject copies srcKey to dstKey inside the bucket
func (s *MinioStorage) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: s.bucketName, Object: dstKey},
		minio.CopySrcOptions{Bucket: s.bucketName, Object: srcKey},
	)
	if err != nil {
		return fmt.Errorf("failed to copy object: %w", translateMinioError(err))
	}
	return nil
}

// DeleteObject removes an object. Removing a missing key is not an error.
func (s *MinioStorage) DeleteObject(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", translateMinioError(err))
	}
	return nil
}

// PresignPut returns a URL accepting a direct PUT of key
func (s *MinioStorage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(ctx, s.bucketName, key, expiry)
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return u.String(), nil
}

// Ping checks that the bucket is reachable
func (s *MinioStorage) Ping(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", s.bucketName)
	}
	return nil
}

// GetBucketName returns the bucket name
func (s *MinioStorage) GetBucketName() string {
	return s.bucketName
}

func minioObjectInfo(stat minio.ObjectInfo) *ObjectInfo {
	return &ObjectInfo{
		Key:          stat.Key,
		Size:         stat.Size,
		LastModified: stat.LastModified,
		ETag:         stat.ETag,
		ContentType:  stat.ContentType,
	}
}

func translateMinioError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey":
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case "InvalidArgument":
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return err
}
