package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"flaredrive/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, files map[string]string) (*Service, *storage.MemoryStorage) {
	t.Helper()
	store := storage.NewMemoryStorage("test")
	for key, content := range files {
		_, err := store.PutObject(context.Background(), key, strings.NewReader(content), int64(len(content)), "")
		require.NoError(t, err)
	}
	return NewService(store, nil), store
}

func keysOf(t *testing.T, s *Service, prefix string) []string {
	t.Helper()
	entries, err := s.List(context.Background(), prefix)
	require.NoError(t, err)
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestList(t *testing.T) {
	s, _ := newTestService(t, map[string]string{
		"readme.md":         "hi",
		"a.txt":             "a",
		"docs/":             "",
		"docs/guide.md":     "guide",
		"docs/img/1.png":    "png",
		"photos/2024/x.jpg": "jpg",
	})

	assert.Equal(t, []string{"docs/", "photos/", "a.txt", "readme.md"}, keysOf(t, s, ""))
	assert.Equal(t, []string{"docs/img/", "docs/guide.md"}, keysOf(t, s, "docs/"))
	assert.Equal(t, []string{"docs/img/", "docs/guide.md"}, keysOf(t, s, "docs"), "prefix without trailing slash")
	assert.Empty(t, keysOf(t, s, "missing/"))

	entries, err := s.List(context.Background(), "docs/")
	require.NoError(t, err)
	assert.Equal(t, int64(5), entries[1].Size)
	assert.Zero(t, entries[0].Size)
}

func TestList_ManyPages(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 1500; i++ {
		files[fmt.Sprintf("bulk/f%04d", i)] = "x"
	}
	s, _ := newTestService(t, files)

	assert.Len(t, keysOf(t, s, "bulk/"), 1500)
}

func TestList_InvalidPrefix(t *testing.T) {
	s, _ := newTestService(t, nil)
	_, err := s.List(context.Background(), "../etc")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestCreateFolder(t *testing.T) {
	s, store := newTestService(t, nil)

	key, err := s.CreateFolder(context.Background(), "projects")
	require.NoError(t, err)
	assert.Equal(t, "projects/", key)

	info, err := store.StatObject(context.Background(), "projects/")
	require.NoError(t, err)
	assert.Zero(t, info.Size)
}

func TestDelete(t *testing.T) {
	s, store := newTestService(t, map[string]string{
		"keep.txt":       "k",
		"old/":           "",
		"old/a.txt":      "a",
		"old/deep/b.txt": "b",
		"older/c.txt":    "c",
	})
	ctx := context.Background()

	n, err := s.Delete(ctx, "old/")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 2, store.Len(), "sibling prefix older/ is untouched")

	n, err = s.Delete(ctx, "keep.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Delete(ctx, "keep.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.Delete(ctx, "nothing/")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRename_File(t *testing.T) {
	s, store := newTestService(t, map[string]string{
		"draft.txt": "content",
		"taken.txt": "other",
	})
	ctx := context.Background()

	n, err := s.Rename(ctx, "draft.txt", "final.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.StatObject(ctx, "draft.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	reader, _, err := s.Read(ctx, "final.txt")
	require.NoError(t, err)
	data, _ := io.ReadAll(reader)
	assert.Equal(t, "content", string(data))

	_, err = s.Rename(ctx, "final.txt", "taken.txt")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.Rename(ctx, "final.txt", "final.txt")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.Rename(ctx, "missing.txt", "x.txt")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRename_Folder(t *testing.T) {
	s, store := newTestService(t, map[string]string{
		"src/":         "",
		"src/a.txt":    "a",
		"src/sub/b.md": "b",
		"dst2/x":       "x",
	})
	ctx := context.Background()

	n, err := s.Rename(ctx, "src/", "dst")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"dst/sub/", "dst/a.txt"}, keysOf(t, s, "dst/"))
	_, err = store.StatObject(ctx, "dst/")
	assert.NoError(t, err, "folder marker moves with the folder")
	assert.Empty(t, keysOf(t, s, "src/"))

	_, err = s.Rename(ctx, "dst/", "dst2/")
	assert.ErrorIs(t, err, ErrConflict)
	_, err = s.Rename(ctx, "dst/", "dst/inner/")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

// failingCopyStore fails every copy after the first
type failingCopyStore struct {
	*storage.MemoryStorage
	copies int
}

func (f *failingCopyStore) CopyObject(ctx context.Context, src, dst string) error {
	f.copies++
	if f.copies > 1 {
		return errors.New("copy failed")
	}
	return f.MemoryStorage.CopyObject(ctx, src, dst)
}

func TestRename_CopyFailureKeepsSource(t *testing.T) {
	mem := storage.NewMemoryStorage("test")
	for _, key := range []string{"src/a", "src/b"} {
		_, err := mem.PutObject(context.Background(), key, strings.NewReader("1"), 1, "")
		require.NoError(t, err)
	}
	s := NewService(&failingCopyStore{MemoryStorage: mem}, nil)

	_, err := s.Rename(context.Background(), "src/", "dst/")
	require.Error(t, err)

	for _, key := range []string{"src/a", "src/b"} {
		_, err := mem.StatObject(context.Background(), key)
		assert.NoError(t, err)
	}
}

func TestReadWrite(t *testing.T) {
	s, _ := newTestService(t, nil)
	ctx := context.Background()

	info, err := s.Write(ctx, "notes/today.md", strings.NewReader("# Today"), 7, "text/markdown")
	require.NoError(t, err)
	assert.Equal(t, int64(7), info.Size)

	reader, info, err := s.Read(ctx, "notes/today.md")
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "# Today", string(data))
	assert.Equal(t, "text/markdown", info.ContentType)

	_, _, err = s.Read(ctx, "notes/")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = s.Write(ctx, "notes/", strings.NewReader(""), 0, "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, _, err = s.Read(ctx, "notes/missing.md")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestValidateKey(t *testing.T) {
	testCases := []struct {
		key   string
		valid bool
	}{
		{"a.txt", true},
		{"dir/", true},
		{"dir/sub/file name.pdf", true},
		{"", false},
		{"/", false},
		{"/abs", false},
		{"a//b", false},
		{"../up", false},
		{"a/./b", false},
		{"a/..", false},
		{"bad\nkey", false},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			err := ValidateKey(tc.key)
			if tc.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidKey)
			}
		})
	}
}
