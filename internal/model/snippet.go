package model

import "time"

// Snippet is a shared piece of source code.
// Metadata is persisted in the database; the code body lives in object storage
// under StoragePath and is only populated when explicitly loaded.
type Snippet struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Code        string    `json:"code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
