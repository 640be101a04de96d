package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"flaredrive/models"
	"flaredrive/storage"

	"github.com/sirupsen/logrus"
)

// Delimiter separates folder levels in object keys
const Delimiter = "/"

var (
	// ErrInvalidKey is returned for keys the drive refuses to address
	ErrInvalidKey = errors.New("drive: invalid key")
	// ErrConflict is returned when a rename target already exists
	ErrConflict = errors.New("drive: target already exists")
)

// Service maps file manager operations onto object storage primitives
type Service struct {
	storage storage.ObjectStorage
	logger  *logrus.Entry
}

// NewService creates a new drive service
func NewService(storage storage.ObjectStorage, logger *logrus.Entry) *Service {
	if logger == nil {
		logger = logrus.WithField("component", "DRIVE")
	}

	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// List returns the files and folders directly under prefix, folders first
func (s *Service) List(ctx context.Context, prefix string) ([]models.FileEntry, error) {
	if prefix != "" {
		prefix = FolderKey(prefix)
		if err := ValidateKey(prefix); err != nil {
			return nil, err
		}
	}

	entries := make([]models.FileEntry, 0)
	seen := make(map[string]struct{})
	cursor := ""
	for {
		page, err := s.storage.ListPage(ctx, storage.ListOptions{
			Prefix:    prefix,
			Delimiter: Delimiter,
			Cursor:    cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
		}

		for _, p := range page.Prefixes {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			entries = append(entries, models.FileEntry{Key: p})
		}
		for _, obj := range page.Objects {
			if obj.Key == prefix {
				continue
			}
			if _, ok := seen[obj.Key]; ok {
				continue
			}
			seen[obj.Key] = struct{}{}
			entries = append(entries, models.FileEntry{
				Key:      obj.Key,
				Size:     obj.Size,
				ETag:     obj.ETag,
				Uploaded: obj.LastModified,
			})
		}

		if !page.Truncated || page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}

	sort.Slice(entries, func(i, j int) bool {
		fi, fj := entries[i].IsFolder(), entries[j].IsFolder()
		if fi != fj {
			return fi
		}
		return entries[i].Key < entries[j].Key
	})

	return entries, nil
}

// CreateFolder writes a zero-byte folder marker and returns its key
func (s *Service) CreateFolder(ctx context.Context, key string) (string, error) {
	key = FolderKey(key)
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	if _, err := s.storage.PutObject(ctx, key, strings.NewReader(""), 0, ""); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	s.logger.Infof("Created folder %s", key)
	return key, nil
}

// Delete removes key. A folder key removes every object below it as well.
// It returns the number of objects removed.
func (s *Service) Delete(ctx context.Context, key string) (int, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}

	keys := []string{key}
	if storage.IsFolderKey(key) {
		objects, err := s.objectsUnder(ctx, key)
		if err != nil {
			return 0, err
		}
		if len(objects) == 0 {
			return 0, fmt.Errorf("folder %s: %w", key, storage.ErrNotFound)
		}
		keys = keys[:0]
		for _, obj := range objects {
			keys = append(keys, obj.Key)
		}
	} else if _, err := s.storage.StatObject(ctx, key); err != nil {
		return 0, err
	}

	for i, k := range keys {
		if err := s.storage.DeleteObject(ctx, k); err != nil {
			return i, fmt.Errorf("failed to delete %s: %w", k, err)
		}
	}

	s.logger.Infof("Deleted %s (%d objects)", key, len(keys))
	return len(keys), nil
}

// Rename moves oldKey to newKey by copying and then deleting. Folder keys move
// every object below the folder. It returns the number of objects moved.
func (s *Service) Rename(ctx context.Context, oldKey, newKey string) (int, error) {
	if err := ValidateKey(oldKey); err != nil {
		return 0, err
	}
	folder := storage.IsFolderKey(oldKey)
	if folder {
		newKey = FolderKey(newKey)
	}
	if err := ValidateKey(newKey); err != nil {
		return 0, err
	}
	if !folder && storage.IsFolderKey(newKey) {
		return 0, fmt.Errorf("%w: cannot rename a file to folder %s", ErrInvalidKey, newKey)
	}
	if oldKey == newKey {
		return 0, fmt.Errorf("%w: %s", ErrConflict, newKey)
	}
	if folder && strings.HasPrefix(newKey, oldKey) {
		return 0, fmt.Errorf("%w: cannot move %s into itself", ErrInvalidKey, oldKey)
	}

	startTime := time.Now()

	moves := map[string]string{}
	if folder {
		existing, err := s.objectsUnder(ctx, newKey)
		if err != nil {
			return 0, err
		}
		if len(existing) > 0 {
			return 0, fmt.Errorf("%w: %s", ErrConflict, newKey)
		}

		objects, err := s.objectsUnder(ctx, oldKey)
		if err != nil {
			return 0, err
		}
		if len(objects) == 0 {
			return 0, fmt.Errorf("folder %s: %w", oldKey, storage.ErrNotFound)
		}
		for _, obj := range objects {
			moves[obj.Key] = newKey + strings.TrimPrefix(obj.Key, oldKey)
		}
	} else {
		if _, err := s.storage.StatObject(ctx, oldKey); err != nil {
			return 0, err
		}
		_, err := s.storage.StatObject(ctx, newKey)
		if err == nil {
			return 0, fmt.Errorf("%w: %s", ErrConflict, newKey)
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("failed to check rename target: %w", err)
		}
		moves[oldKey] = newKey
	}

	// Copy everything before deleting so a failed copy leaves the source intact
	sources := make([]string, 0, len(moves))
	for src := range moves {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		if err := s.storage.CopyObject(ctx, src, moves[src]); err != nil {
			return 0, fmt.Errorf("failed to copy %s: %w", src, err)
		}
	}
	for i, src := range sources {
		if err := s.storage.DeleteObject(ctx, src); err != nil {
			return i, fmt.Errorf("failed to delete %s after copy: %w", src, err)
		}
	}

	s.logger.Infof("Renamed %s to %s (%d objects), took: %v", oldKey, newKey, len(sources), time.Since(startTime))
	return len(sources), nil
}

// Read opens a file for reading
func (s *Service) Read(ctx context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, nil, err
	}
	if storage.IsFolderKey(key) {
		return nil, nil, fmt.Errorf("%w: %s is a folder", ErrInvalidKey, key)
	}

	reader, info, err := s.storage.GetObject(ctx, key)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Debugf("Serving %s, size: %d bytes", key, info.Size)
	return reader, info, nil
}

// Write replaces the content of a file
func (s *Service) Write(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if storage.IsFolderKey(key) {
		return nil, fmt.Errorf("%w: %s is a folder", ErrInvalidKey, key)
	}

	info, err := s.storage.PutObject(ctx, key, reader, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", key, err)
	}

	s.logger.Infof("Saved %s, size: %d bytes", key, info.Size)
	return info, nil
}

// objectsUnder lists every object whose key starts with prefix
func (s *Service) objectsUnder(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var objects []storage.ObjectInfo
	cursor := ""
	for {
		page, err := s.storage.ListPage(ctx, storage.ListOptions{Prefix: prefix, Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", prefix, err)
		}
		objects = append(objects, page.Objects...)
		if !page.Truncated || page.Cursor == "" {
			return objects, nil
		}
		cursor = page.Cursor
	}
}

// FolderKey returns key with a trailing delimiter
func FolderKey(key string) string {
	if strings.HasSuffix(key, Delimiter) {
		return key
	}
	return key + Delimiter
}

// ValidateKey rejects keys that are empty, absolute, contain dot segments,
// empty segments or control characters
func ValidateKey(key string) error {
	if key == "" || key == Delimiter {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}
	if strings.HasPrefix(key, Delimiter) {
		return fmt.Errorf("%w: %q starts with %s", ErrInvalidKey, key, Delimiter)
	}
	if strings.IndexFunc(key, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: %q contains control characters", ErrInvalidKey, key)
	}

	segments := strings.Split(strings.TrimSuffix(key, Delimiter), Delimiter)
	for _, seg := range segments {
		switch seg {
		case "":
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidKey, key)
		case ".", "..":
			return fmt.Errorf("%w: %q has a dot segment", ErrInvalidKey, key)
		}
	}
	return nil
}
