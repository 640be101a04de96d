package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// MemoryStorage is an in-process ObjectStorage used for local runs and tests
type MemoryStorage struct {
	mu         sync.RWMutex
	objects    map[string]memoryObject
	bucketName string
}

type memoryObject struct {
	data []byte
	info ObjectInfo
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage(bucketName string) *MemoryStorage {
	if bucketName == "" {
		bucketName = "memory"
	}
	return &MemoryStorage{
		objects:    make(map[string]memoryObject),
		bucketName: bucketName,
	}
}

// ListPage lists keys in lexical order, resuming after the cursor key
func (m *MemoryStorage) ListPage(ctx context.Context, opts ListOptions) (*ListPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	limit := opts.PageLimit()
	after := startAfter(opts)

	page := &ListPage{}
	count := 0
	lastPrefix := ""
	for _, key := range m.sortedKeys() {
		if !strings.HasPrefix(key, opts.Prefix) || (after != "" && key <= after) {
			continue
		}

		entry, isPrefix := key, false
		if opts.Delimiter != "" {
			rest := key[len(opts.Prefix):]
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				entry = opts.Prefix + rest[:i+len(opts.Delimiter)]
				isPrefix = true
			}
		}
		if isPrefix && entry == lastPrefix {
			continue
		}

		if count == limit {
			page.Truncated = true
			break
		}

		if isPrefix {
			page.Prefixes = append(page.Prefixes, entry)
			lastPrefix = entry
		} else {
			page.Objects = append(page.Objects, m.objects[key].info)
		}
		page.Cursor = entry
		count++
	}

	if !page.Truncated {
		page.Cursor = ""
	}
	return page, nil
}

// PutObject stores the content of reader under key
func (m *MemoryStorage) PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*ObjectInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("failed to upload object: expected %d bytes, got %d", size, len(data))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	sum := md5.Sum(data)
	info := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		LastModified: time.Now().UTC(),
		ETag:         hex.EncodeToString(sum[:]),
		ContentType:  contentType,
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{data: data, info: info}
	m.mu.Unlock()

	return &info, nil
}

// GetObject returns a reader over a copy of the object
func (m *MemoryStorage) GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("failed to download object %s: %w", key, ErrNotFound)
	}

	info := obj.info
	return io.NopCloser(bytes.NewReader(obj.data)), &info, nil
}

// StatObject gets information about an object
func (m *MemoryStorage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("failed to get object info %s: %w", key, ErrNotFound)
	}

	info := obj.info
	return &info, nil
}

// CopyObject copies srcKey to dstKey
func (m *MemoryStorage) CopyObject(ctx context.Context, srcKey, dstKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[srcKey]
	if !ok {
		return fmt.Errorf("failed to copy object %s: %w", srcKey, ErrNotFound)
	}

	info := obj.info
	info.Key = dstKey
	info.LastModified = time.Now().UTC()
	m.objects[dstKey] = memoryObject{data: obj.data, info: info}
	return nil
}

// DeleteObject removes an object. Removing a missing key is not an error.
func (m *MemoryStorage) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Ping always succeeds
func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

// GetBucketName returns the bucket name
func (m *MemoryStorage) GetBucketName() string {
	return m.bucketName
}

// Len returns the number of stored objects
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *MemoryStorage) sortedKeys() []string {
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// startAfter maps a cursor to the key listing resumes after. A cursor naming a
// common prefix skips every key below that prefix so it is not reported twice.
func startAfter(opts ListOptions) string {
	if opts.Cursor != "" && opts.Cursor != opts.Prefix && opts.Delimiter != "" && strings.HasSuffix(opts.Cursor, opts.Delimiter) {
		return opts.Cursor + string(utf8.MaxRune)
	}
	return opts.Cursor
}
