package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"flaredrive/models"
	"flaredrive/services/drive"
	"flaredrive/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DirectUploadPath is the route prefix of the upload fallback for stores that cannot presign
const DirectUploadPath = "/api/upload/"

var (
	// ErrTooLarge is returned when a file exceeds the configured maximum size
	ErrTooLarge = errors.New("upload: file too large")
	// ErrInvalidSize is returned for negative sizes
	ErrInvalidSize = errors.New("upload: invalid size")
	// ErrSessionNotFound is returned for unknown or expired upload sessions
	ErrSessionNotFound = errors.New("upload: session not found")
)

// Options configures the upload service
type Options struct {
	// Expiry is how long an issued upload target stays valid.
	Expiry time.Duration
	// MaxSize is the largest accepted file in bytes. Zero disables the check.
	MaxSize int64
}

// Service issues upload targets and tracks pending uploads
type Service struct {
	storage   storage.ObjectStorage
	presigner storage.Presigner
	opts      Options
	logger    *logrus.Entry

	mu       sync.Mutex
	sessions map[string]*models.UploadSession

	now func() time.Time
}

// NewService creates a new upload service. Presigned URLs are used when the
// store implements storage.Presigner.
func NewService(store storage.ObjectStorage, opts Options, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.WithField("component", "UPLOAD")
	}
	if opts.Expiry <= 0 {
		opts.Expiry = time.Hour
	}

	s := &Service{
		storage:  store,
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*models.UploadSession),
		now:      time.Now,
	}
	if p, ok := store.(storage.Presigner); ok {
		s.presigner = p
	}
	return s
}

// Begin validates the request and returns where the client should PUT the file
func (s *Service) Begin(ctx context.Context, filename string, size int64) (*models.UploadTarget, error) {
	if err := drive.ValidateKey(filename); err != nil {
		return nil, err
	}
	if storage.IsFolderKey(filename) {
		return nil, fmt.Errorf("%w: %s is a folder", drive.ErrInvalidKey, filename)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if s.opts.MaxSize > 0 && size > s.opts.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, s.opts.MaxSize)
	}

	now := s.now()
	session := &models.UploadSession{
		ID:        uuid.New().String(),
		Key:       filename,
		Size:      size,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.Expiry),
	}

	session.URL = DirectUploadPath + session.ID
	if s.presigner != nil {
		url, err := s.presigner.PresignPut(ctx, filename, s.opts.Expiry)
		if err != nil {
			s.logger.Warnf("Presign failed for %s, using direct upload: %v", filename, err)
		} else {
			session.URL = url
		}
	}

	s.mu.Lock()
	s.purgeExpiredLocked(now)
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Infof("Issued upload %s for %s (%d bytes), expires: %s",
		session.ID, filename, size, session.ExpiresAt.Format(time.RFC3339))

	return &models.UploadTarget{
		URL:       session.URL,
		Key:       session.Key,
		ID:        session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Receive stores the body of a direct upload. size may be -1 when unknown.
func (s *Service) Receive(ctx context.Context, id string, reader io.Reader, size int64) (*models.ReceivedUpload, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if s.opts.MaxSize > 0 && size > s.opts.MaxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, size, s.opts.MaxSize)
	}
	if size >= 0 && size != session.Size {
		s.logger.Warnf("Size mismatch for upload %s. Expected: %d bytes, Got: %d bytes", id, session.Size, size)
	}

	startTime := time.Now()
	info, err := s.storage.PutObject(ctx, session.Key, reader, size, "")
	if err != nil {
		return nil, fmt.Errorf("failed to store upload %s: %w", id, err)
	}

	s.logger.Infof("Received upload %s for %s, size: %d bytes, took: %v", id, session.Key, info.Size, time.Since(startTime))
	return &models.ReceivedUpload{Key: session.Key, Size: info.Size}, nil
}

// Complete confirms that key has been written and closes its session
func (s *Service) Complete(ctx context.Context, key string) (*models.CompletedUpload, error) {
	if err := drive.ValidateKey(key); err != nil {
		return nil, err
	}

	info, err := s.storage.StatObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to complete upload of %s: %w", key, err)
	}

	s.mu.Lock()
	for id, session := range s.sessions {
		if session.Key != key {
			continue
		}
		if session.Size != info.Size {
			s.logger.Warnf("Size mismatch for %s. Expected: %d bytes, Got: %d bytes", key, session.Size, info.Size)
		}
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	s.logger.Infof("Completed upload of %s, size: %d bytes", key, info.Size)
	return &models.CompletedUpload{
		Key:      key,
		Size:     info.Size,
		ETag:     info.ETag,
		Uploaded: info.LastModified,
	}, nil
}

// Pending returns the number of open sessions
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.sessions)
}

func (s *Service) session(id string) (models.UploadSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok || session.Expired(s.now()) {
		return models.UploadSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return *session, nil
}

func (s *Service) purgeExpiredLocked(now time.Time) {
	for id, session := range s.sessions {
		if session.Expired(now) {
			delete(s.sessions, id)
		}
	}
}
