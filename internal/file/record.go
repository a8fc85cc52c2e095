// Package file keeps uploaded files and their metadata consistent across a
// backing store and a relational table.
package file

import (
	"errors"
	"time"
)

// Record is the durable metadata of one uploaded file.
// Key addresses the bytes in the backing store and never leaves the process.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
	Key       string    `json:"-"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mimetype"`
	Size      int64     `json:"size"`
	Store     string    `json:"store"`
}

var (
	// ErrInvalidPath is returned for a virtual directory that starts or ends
	// with "/", contains "#", or has empty or dot segments.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidID is returned when a file id is not a UUID.
	ErrInvalidID = errors.New("invalid file id")

	// ErrInvalidQuery is returned for malformed list filters.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("file not found")

	// ErrConflict is returned when a unique name could not be claimed.
	ErrConflict = errors.New("file name conflict")
)
