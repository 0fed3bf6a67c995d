package secondary

import (
	"context"
	"io"
)

// FileStorage defines the secondary port for uploaded file storage.
// Paths are relative to the storage root.
type FileStorage interface {
	// Save writes the content under a fresh name derived from fileName and
	// returns the relative path and the number of bytes written.
	Save(ctx context.Context, fileName string, r io.Reader) (StoredFile, error)

	// Open opens a stored file for reading.
	Open(ctx context.Context, relPath string) (io.ReadCloser, error)

	// Delete removes a stored file. A missing file is not an error.
	Delete(ctx context.Context, relPath string) error
}

// StoredFile describes a file written by FileStorage.Save.
type StoredFile struct {
	Path string
	Size int64
}
