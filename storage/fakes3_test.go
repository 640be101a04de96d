package storage

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 serves the slice of the S3 REST API the drivers use: HEAD bucket,
// ListObjectsV2 and PUT object. List responses never carry more than
// pageSize entries, whatever max-keys asks for, the way real gateways
// return short pages.
type fakeS3 struct {
	mu       sync.Mutex
	bucket   string
	pageSize int
	objects  map[string][]byte
	lists    int
}

type listBucketResult struct {
	XMLName               xml.Name       `xml:"http://s3.amazonaws.com/doc/2006-03-01/ ListBucketResult"`
	Name                  string         `xml:"Name"`
	Prefix                string         `xml:"Prefix"`
	Delimiter             string         `xml:"Delimiter,omitempty"`
	MaxKeys               int            `xml:"MaxKeys"`
	KeyCount              int            `xml:"KeyCount"`
	IsTruncated           bool           `xml:"IsTruncated"`
	ContinuationToken     string         `xml:"ContinuationToken,omitempty"`
	NextContinuationToken string         `xml:"NextContinuationToken,omitempty"`
	Contents              []listEntry    `xml:"Contents"`
	CommonPrefixes        []commonPrefix `xml:"CommonPrefixes"`
}

type listEntry struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         int    `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

type commonPrefix struct {
	Prefix string `xml:"Prefix"`
}

func newFakeS3(t *testing.T, bucket string, pageSize int, keys ...string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{bucket: bucket, pageSize: pageSize, objects: make(map[string][]byte)}
	for _, key := range keys {
		f.objects[key] = []byte(key)
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")
	if bucket != f.bucket {
		http.Error(w, "NoSuchBucket", http.StatusNotFound)
		return
	}

	switch {
	case r.Method == http.MethodHead && key == "":
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && key == "" && r.URL.Query().Get("list-type") == "2":
		f.list(w, r)
	case r.Method == http.MethodPut && key != "":
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.objects[key] = body
		f.mu.Unlock()
		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "NotImplemented", http.StatusNotImplemented)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix, delimiter := q.Get("prefix"), q.Get("delimiter")

	maxKeys := 1000
	if v := q.Get("max-keys"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "InvalidArgument", http.StatusBadRequest)
			return
		}
		maxKeys = n
	}

	start := 0
	if token := q.Get("continuation-token"); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			http.Error(w, "InvalidArgument", http.StatusBadRequest)
			return
		}
		start = n
	}

	f.mu.Lock()
	f.lists++
	entries := f.entries(prefix, delimiter)
	f.mu.Unlock()

	n := min(maxKeys, f.pageSize)
	end := min(start+n, len(entries))
	if start > end {
		start = end
	}

	result := listBucketResult{
		Name:              f.bucket,
		Prefix:            prefix,
		Delimiter:         delimiter,
		MaxKeys:           maxKeys,
		KeyCount:          end - start,
		IsTruncated:       end < len(entries),
		ContinuationToken: q.Get("continuation-token"),
	}
	if result.IsTruncated {
		result.NextContinuationToken = strconv.Itoa(end)
	}
	modified := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Format("2006-01-02T15:04:05.000Z")
	for _, e := range entries[start:end] {
		if e.prefix {
			result.CommonPrefixes = append(result.CommonPrefixes, commonPrefix{Prefix: e.key})
			continue
		}
		result.Contents = append(result.Contents, listEntry{
			Key:          e.key,
			LastModified: modified,
			ETag:         `"fake-etag"`,
			Size:         e.size,
			StorageClass: "STANDARD",
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(result)
}

type fakeEntry struct {
	key    string
	size   int
	prefix bool
}

// entries returns the listing in key order with delimited children folded
// into one common prefix each. Callers hold f.mu.
func (f *fakeS3) entries(prefix, delimiter string) []fakeEntry {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var out []fakeEntry
	last := ""
	for _, k := range keys {
		if delimiter != "" {
			if i := strings.Index(k[len(prefix):], delimiter); i >= 0 {
				cp := k[:len(prefix)+i+len(delimiter)]
				if cp != last {
					out = append(out, fakeEntry{key: cp, prefix: true})
					last = cp
				}
				continue
			}
		}
		out = append(out, fakeEntry{key: k, size: len(f.objects[k])})
	}
	return out
}

func (f *fakeS3) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	return b, ok
}

func (f *fakeS3) listCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

// nonSeekable hides any Seek or ReadAt on the wrapped reader
type nonSeekable struct {
	io.Reader
}

// listAll walks every page of a listing and returns object keys and prefixes
func listAll(t *testing.T, lister Lister, opts ListOptions) ([]string, []string) {
	t.Helper()
	var keys, prefixes []string
	for pages := 0; ; pages++ {
		if pages > 100 {
			t.Fatal("listing did not terminate")
		}
		page, err := lister.ListPage(context.Background(), opts)
		if err != nil {
			t.Fatalf("list page %d: %v", pages, err)
		}
		for _, o := range page.Objects {
			keys = append(keys, o.Key)
		}
		prefixes = append(prefixes, page.Prefixes...)
		if !page.Truncated {
			return keys, prefixes
		}
		opts.Cursor = page.Cursor
	}
}
