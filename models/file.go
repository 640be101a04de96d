package models

import (
	"encoding/json"
	"time"
)

// FileEntry is one row of a folder listing. Folders have a key ending in "/" and size 0.
type FileEntry struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	ETag     string    `json:"etag,omitempty"`
	Uploaded time.Time `json:"uploaded"`
}

// IsFolder reports whether the entry is a folder
func (f FileEntry) IsFolder() bool {
	return len(f.Key) > 0 && f.Key[len(f.Key)-1] == '/'
}

// MarshalJSON custom JSON marshaler for FileEntry to format dates.
// Folders derived from prefixes have no time and marshal an empty string.
func (f FileEntry) MarshalJSON() ([]byte, error) {
	type Alias FileEntry
	uploaded := ""
	if !f.Uploaded.IsZero() {
		uploaded = f.Uploaded.Format(time.RFC3339)
	}
	return json.Marshal(&struct {
		Uploaded string `json:"uploaded"`
		*Alias
	}{
		Uploaded: uploaded,
		Alias:    (*Alias)(&f),
	})
}

// KeyRequest is the body of create-folder and delete
type KeyRequest struct {
	Key string `json:"key" binding:"required"`
}

// RenameRequest is the body of POST /api/rename
type RenameRequest struct {
	OldKey string `json:"oldKey" binding:"required"`
	NewKey string `json:"newKey" binding:"required"`
}

// CompletedUpload describes an object after its upload was confirmed
type CompletedUpload struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	ETag     string    `json:"etag,omitempty"`
	Uploaded time.Time `json:"uploaded"`
}

// MarshalJSON custom JSON marshaler for CompletedUpload to format dates
func (c CompletedUpload) MarshalJSON() ([]byte, error) {
	type Alias CompletedUpload
	return json.Marshal(&struct {
		Uploaded string `json:"uploaded"`
		*Alias
	}{
		Uploaded: c.Uploaded.Format(time.RFC3339),
		Alias:    (*Alias)(&c),
	})
}
