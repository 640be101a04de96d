package models

import (
	"encoding/json"
	"time"
)

// UploadRequest is the body of POST /api/upload
type UploadRequest struct {
	Filename string `json:"filename" binding:"required"`
	Size     int64  `json:"size"`
}

// CompleteUploadRequest is the body of POST /api/complete-upload
type CompleteUploadRequest struct {
	Key string `json:"key" binding:"required"`
}

// UploadSession tracks an upload between its target being issued and its completion
type UploadSession struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session can no longer be used at now
func (s UploadSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// UploadTarget is returned to the client: where to PUT the file body
type UploadTarget struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MarshalJSON custom JSON marshaler for UploadTarget to format dates
func (t UploadTarget) MarshalJSON() ([]byte, error) {
	type Alias UploadTarget
	return json.Marshal(&struct {
		ExpiresAt string `json:"expiresAt"`
		*Alias
	}{
		ExpiresAt: t.ExpiresAt.Format(time.RFC3339),
		Alias:     (*Alias)(&t),
	})
}

// ReceivedUpload is the response of the direct upload fallback
type ReceivedUpload struct {
	Key  string `json:"key"`
	Size int64  `json:"size"`
}
