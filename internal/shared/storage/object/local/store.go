package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"resumind/internal/shared/storage/object"
)

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the owner's namespace with a random prefix.
func (s *Store) Save(ctx context.Context, owner string, fileName string, r io.Reader) (object.Object, error) {
	key, err := object.NewKey(owner, fileName)
	if err != nil {
		return object.Object{}, err
	}
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return object.Object{}, fmt.Errorf("mkdir: %w", err)
	}

	contentType, body, err := object.Sniff(r)
	if err != nil {
		return object.Object{}, err
	}

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return object.Object{}, fmt.Errorf("open file: %w", err)
	}
	written, err := io.Copy(f, body)
	closeErr := f.Close()
	if err != nil {
		_ = os.Remove(fullPath)
		return object.Object{}, fmt.Errorf("write body: %w", err)
	}
	if closeErr != nil {
		return object.Object{}, fmt.Errorf("close file: %w", closeErr)
	}

	return object.Object{Key: key, Size: written, ContentType: contentType}, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Deleting a missing object is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *Store) resolve(key string) (string, error) {
	clean, err := object.CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

var _ object.ObjectStore = (*Store)(nil)
