// Package filesystem contains filesystem-based adapter implementations.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"
	"github.com/google/uuid"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// FileStorage implements secondary.FileStorage on a billy filesystem.
// Files are stored as <2-char shard>/<uuid>-<sanitized name>.
type FileStorage struct {
	fs billy.Filesystem
}

// NewFileStorage creates a storage rooted at dir on the host filesystem.
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStorage{fs: osfs.New(dir)}, nil
}

// NewMemoryFileStorage creates a storage kept entirely in memory.
func NewMemoryFileStorage() *FileStorage {
	return &FileStorage{fs: memfs.New()}
}

// NewFileStorageOn wraps an existing billy filesystem.
func NewFileStorageOn(fs billy.Filesystem) *FileStorage {
	return &FileStorage{fs: fs}
}

// Save copies r into a new file and returns its relative path and size.
func (s *FileStorage) Save(ctx context.Context, fileName string, r io.Reader) (secondary.StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return secondary.StoredFile{}, err
	}
	name := sanitize(fileName)
	if name == "" {
		return secondary.StoredFile{}, errs.Validation("file_name", "file name is required")
	}

	id := uuid.NewString()
	rel := path.Join(id[:2], id+"-"+name)

	if err := s.fs.MkdirAll(id[:2], 0755); err != nil {
		return secondary.StoredFile{}, fmt.Errorf("failed to create shard directory: %w", err)
	}
	f, err := s.fs.Create(rel)
	if err != nil {
		return secondary.StoredFile{}, fmt.Errorf("failed to create %s: %w", rel, err)
	}

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		_ = s.fs.Remove(rel)
		return secondary.StoredFile{}, fmt.Errorf("failed to write %s: %w", rel, errors.Join(copyErr, closeErr))
	}

	return secondary.StoredFile{Path: rel, Size: n}, nil
}

// Open opens a stored file for reading.
func (s *FileStorage) Open(ctx context.Context, relPath string) (io.ReadCloser, error) {
	f, err := s.fs.Open(relPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errs.NotFoundf("file", "file %q not found", relPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", relPath, err)
	}
	return f, nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *FileStorage) Delete(ctx context.Context, relPath string) error {
	err := s.fs.Remove(relPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", relPath, err)
	}
	return nil
}

// sanitize keeps the base name and replaces characters that are awkward in paths.
func sanitize(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
}

var _ secondary.FileStorage = (*FileStorage)(nil)
