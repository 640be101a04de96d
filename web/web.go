// Package web serves the file manager single page application.
package web

import (
	"embed"
	"errors"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

//go:embed static
var embedded embed.FS

// IndexFile is served for the root path
const IndexFile = "index.html"

// quotaPlaceholder in the index page is replaced by the configured quota in GB
const quotaPlaceholder = "{{QUOTA_GB}}"

// Assets resolves UI files, preferring an optional directory on disk over the embedded copy
type Assets struct {
	dir      string
	quotaGB  string
	embedded fs.FS
}

// NewAssets creates the asset resolver. dir may be empty.
func NewAssets(dir string, quotaGB int64) *Assets {
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		panic(err)
	}
	return &Assets{dir: dir, quotaGB: strconv.FormatInt(quotaGB, 10), embedded: sub}
}

// Read returns the content and MIME type of the asset at urlPath.
// ok is false when no asset of that name exists.
func (a *Assets) Read(urlPath string) (data []byte, contentType string, ok bool) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = IndexFile
	}

	data, err := a.read(name)
	if err != nil {
		return nil, "", false
	}

	if name == IndexFile {
		data = []byte(strings.ReplaceAll(string(data), quotaPlaceholder, a.quotaGB))
	}

	contentType = mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, true
}

func (a *Assets) read(name string) ([]byte, error) {
	if a.dir != "" {
		data, err := os.ReadFile(filepath.Join(a.dir, filepath.FromSlash(name)))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return fs.ReadFile(a.embedded, name)
}
