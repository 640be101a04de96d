package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"flaredrive/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sirupsen/logrus"
)

// S3Storage implements ObjectStorage on AWS S3 or any S3-compatible endpoint
type S3Storage struct {
	client     *s3.Client
	presign    *s3.PresignClient
	uploader   *manager.Uploader
	bucketName string
	logger     *logrus.Entry
}

// NewS3Storage creates an S3 storage handler. An empty endpoint uses AWS.
func NewS3Storage(cfg config.StorageConfig, logger *logrus.Entry) (*S3Storage, error) {
	if logger == nil {
		logger = logrus.WithField("component", "STORAGE")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name is required")
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(endpointURL(cfg.Endpoint, cfg.UseSSL))
	}

	client := s3.New(opts)

	return &S3Storage{
		client:     client,
		presign:    s3.NewPresignClient(client),
		uploader:   manager.NewUploader(client),
		bucketName: cfg.BucketName,
		logger:     logger,
	}, nil
}

// ListPage issues one ListObjectsV2 call
func (s *S3Storage) ListPage(ctx context.Context, opts ListOptions) (*ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.bucketName),
		MaxKeys: aws.Int32(int32(opts.PageLimit())), //nolint:gosec // bounded by MaxPageSize
	}
	if opts.Prefix != "" {
		input.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		input.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.Cursor != "" {
		input.ContinuationToken = aws.String(opts.Cursor)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		s.logAPIError("List", opts.Prefix, err)
		return nil, fmt.Errorf("error listing objects: %w", translateS3Error(err))
	}

	page := &ListPage{
		Truncated: aws.ToBool(output.IsTruncated),
		Cursor:    aws.ToString(output.NextContinuationToken),
	}
	for _, obj := range output.Contents {
		page.Objects = append(page.Objects, ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
		})
	}
	for _, p := range output.CommonPrefixes {
		page.Prefixes = append(page.Prefixes, aws.ToString(p.Prefix))
	}

	return page, nil
}

// PutObject uploads an object through the upload manager, which buffers
// bodies that cannot seek so they can be signed. An unknown size (-1) is
// resolved by counting the bytes sent.
func (s *S3Storage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var counter *countingReader
	if size < 0 {
		counter = &countingReader{r: reader}
		reader = counter
	}

	output, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logAPIError("Put", key, err)
		return nil, fmt.Errorf("failed to upload object: %w", translateS3Error(err))
	}

	if counter != nil {
		size = counter.n
	}
	s.logger.Debugf("Uploaded object %s: ETag=%s, Size=%d", key, aws.ToString(output.ETag), size)
	return &ObjectInfo{
		Key:          key,
		Size:         size,
		LastModified: time.Now().UTC(),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		ContentType:  contentType,
	}, nil
}

// GetObject opens an object for reading
func (s *S3Storage) GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logAPIError("Get", key, err)
		return nil, nil, fmt.Errorf("failed to download object: %w", translateS3Error(err))
	}

	return output.Body, &ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(output.ContentLength),
		LastModified: aws.ToTime(output.LastModified),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		ContentType:  aws.ToString(output.ContentType),
	}, nil
}

// StatObject gets information about an object
func (s *S3Storage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	output, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object info: %w", translateS3Error(err))
	}

	return &ObjectInfo{
		Key:          key,
		Size:         aws.ToInt64(output.ContentLength),
		LastModified: aws.ToTime(output.LastModified),
		ETag:         strings.Trim(aws.ToString(output.ETag), `"`),
		ContentType:  aws.ToString(output.ContentType),
	}, nil
}

// CopyObject copies srcKey to dstKey inside the bucket
func (s *S3Storage) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.bucketName),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(s.bucketName, srcKey)),
	})
	if err != nil {
		s.logAPIError("Copy", srcKey, err)
		return fmt.Errorf("failed to copy object: %w", translateS3Error(err))
	}
	return nil
}

// DeleteObject removes an object. S3 does not report missing keys.
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logAPIError("Delete", key, err)
		return fmt.Errorf("failed to delete object: %w", translateS3Error(err))
	}
	return nil
}

// PresignPut returns a URL accepting a direct PUT of key
func (s *S3Storage) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign upload: %w", err)
	}
	return req.URL, nil
}

// Ping checks that the bucket is reachable
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	return nil
}

// GetBucketName returns the bucket name
func (s *S3Storage) GetBucketName() string {
	return s.bucketName
}

func (s *S3Storage) logAPIError(op, key string, err error) {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		s.logger.Warnf("%s Object(%s) in Bucket(%s) failed with %s: %s",
			op, key, s.bucketName, apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
}

func translateS3Error(err error) error {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	if errors.As(err, &nsk) || errors.As(err, &nf) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "InvalidArgument":
			return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
	}
	return err
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// copySource URL-encodes each segment of bucket/key, keeping the separators
func copySource(bucket, key string) string {
	segments := strings.Split(bucket+"/"+key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
