package models

// ErrorResponse is the body of every failed API request
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// UsageResponse is the body of GET /api/storage-usage
type UsageResponse struct {
	TotalSize int64 `json:"totalSize"`
}

// DeleteResponse reports how many objects a delete removed
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// RenameResponse reports how many objects a rename moved
type RenameResponse struct {
	Moved int `json:"moved"`
}

// FolderResponse is returned after a folder is created
type FolderResponse struct {
	Key string `json:"key"`
}
