package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// MaxPageSize is the largest page a single list call returns
const MaxPageSize = 1000

// ErrNotFound is returned when the requested object does not exist
var ErrNotFound = errors.New("storage: object not found")

// ErrInvalidCursor is returned when a continuation cursor is not accepted by the store
var ErrInvalidCursor = errors.New("storage: invalid cursor")

// Lister is the paginated listing capability of an object store
type Lister interface {
	ListPage(ctx context.Context, opts ListOptions) (*ListPage, error)
}

// ObjectStorage defines the interface for storage operations
type ObjectStorage interface {
	Lister
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*ObjectInfo, error)
	GetObject(ctx context.Context, key string) (io.ReadCloser, *ObjectInfo, error)
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)
	CopyObject(ctx context.Context, srcKey, dstKey string) error
	DeleteObject(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	GetBucketName() string
}

// Presigner is implemented by stores that can hand out direct upload URLs
type Presigner interface {
	PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ListOptions configures a single ListPage call
type ListOptions struct {
	// Prefix restricts the page to keys starting with it.
	Prefix string
	// Delimiter groups keys sharing a prefix up to the delimiter into Prefixes.
	Delimiter string
	// Cursor resumes a listing from a previous page. Empty starts at the beginning.
	Cursor string
	// Limit caps the entries of the page. Zero or values above MaxPageSize use MaxPageSize.
	Limit int
}

// PageLimit returns the effective page size
func (o ListOptions) PageLimit() int {
	if o.Limit <= 0 || o.Limit > MaxPageSize {
		return MaxPageSize
	}
	return o.Limit
}

// ListPage is one page of a listing
type ListPage struct {
	Objects   []ObjectInfo
	Prefixes  []string
	Truncated bool
	Cursor    string
}

// ObjectInfo contains information about a stored object
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
	ContentType  string
}

// IsFolder reports whether the key is a folder marker
func (o ObjectInfo) IsFolder() bool {
	return IsFolderKey(o.Key)
}

// IsFolderKey reports whether key uses the trailing slash folder convention
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}
