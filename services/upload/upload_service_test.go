package upload

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flaredrive/services/drive"
	"flaredrive/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// presigningStore adds presigned URLs to the in-memory store
type presigningStore struct {
	*storage.MemoryStorage
	err error
}

func (p *presigningStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "https://bucket.example.com/" + key + "?X-Amz-Expires=" + expiry.String(), nil
}

func TestBegin_DirectUploadFallback(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{Expiry: time.Minute}, nil)

	target, err := s.Begin(context.Background(), "docs/report.pdf", 1024)
	require.NoError(t, err)

	assert.Equal(t, "docs/report.pdf", target.Key)
	assert.NotEmpty(t, target.ID)
	assert.Equal(t, DirectUploadPath+target.ID, target.URL)
	assert.WithinDuration(t, time.Now().Add(time.Minute), target.ExpiresAt, 5*time.Second)
	assert.Equal(t, 1, s.Pending())
}

func TestBegin_Presigned(t *testing.T) {
	store := &presigningStore{MemoryStorage: storage.NewMemoryStorage("test")}
	s := NewService(store, Options{}, nil)

	target, err := s.Begin(context.Background(), "a.txt", 3)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(target.URL, "https://bucket.example.com/a.txt"))

	store.err = errors.New("no credentials")
	target, err = s.Begin(context.Background(), "b.txt", 3)
	require.NoError(t, err)
	assert.Equal(t, DirectUploadPath+target.ID, target.URL, "presign failure falls back to direct upload")
}

func TestBegin_Validation(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{MaxSize: 100}, nil)
	ctx := context.Background()

	_, err := s.Begin(ctx, "big.iso", 101)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = s.Begin(ctx, "neg.bin", -1)
	assert.ErrorIs(t, err, ErrInvalidSize)
	_, err = s.Begin(ctx, "../escape", 1)
	assert.ErrorIs(t, err, drive.ErrInvalidKey)
	_, err = s.Begin(ctx, "folder/", 0)
	assert.ErrorIs(t, err, drive.ErrInvalidKey)
	assert.Equal(t, 0, s.Pending())
}

func TestReceiveAndComplete(t *testing.T) {
	store := storage.NewMemoryStorage("test")
	s := NewService(store, Options{MaxSize: 1 << 20}, nil)
	ctx := context.Background()

	target, err := s.Begin(ctx, "hello.txt", 5)
	require.NoError(t, err)

	received, err := s.Receive(ctx, target.ID, strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, "hello.txt", received.Key)
	assert.Equal(t, int64(5), received.Size)

	completed, err := s.Complete(ctx, "hello.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(5), completed.Size)
	assert.NotEmpty(t, completed.ETag)
	assert.Equal(t, 0, s.Pending())
}

func TestReceive_UnknownSession(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{}, nil)

	_, err := s.Receive(context.Background(), "nope", strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReceive_ExpiredSession(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{Expiry: time.Minute}, nil)
	now := time.Now()
	s.now = func() time.Time { return now }

	target, err := s.Begin(context.Background(), "late.txt", 1)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = s.Receive(context.Background(), target.ID, strings.NewReader("x"), 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 0, s.Pending(), "expired sessions are purged")
}

func TestReceive_TooLarge(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{MaxSize: 4}, nil)

	target, err := s.Begin(context.Background(), "small.txt", 4)
	require.NoError(t, err)

	_, err = s.Receive(context.Background(), target.ID, strings.NewReader("too long"), 8)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestComplete_MissingObject(t *testing.T) {
	s := NewService(storage.NewMemoryStorage("test"), Options{}, nil)

	_, err := s.Begin(context.Background(), "never.txt", 10)
	require.NoError(t, err)

	_, err = s.Complete(context.Background(), "never.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1, s.Pending(), "session stays open until the object exists")
}

func TestComplete_SizeMismatchStillCompletes(t *testing.T) {
	store := storage.NewMemoryStorage("test")
	s := NewService(store, Options{}, nil)
	ctx := context.Background()

	_, err := s.Begin(ctx, "odd.bin", 100)
	require.NoError(t, err)
	_, err = store.PutObject(ctx, "odd.bin", strings.NewReader("abc"), 3, "")
	require.NoError(t, err)

	completed, err := s.Complete(ctx, "odd.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), completed.Size)
	assert.Equal(t, 0, s.Pending())
}
