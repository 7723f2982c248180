package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"resumind/internal/shared/util"
)

var (
	// ErrNotFound is returned by Open when no object exists at the key.
	ErrNotFound = errors.New("object not found")
	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes a stored blob.
type Object struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore defines the contract for saving, retrieving and deleting binary objects.
// Keys are opaque to callers and stable across process restarts.
type ObjectStore interface {
	Save(ctx context.Context, owner string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewKey builds a storage key under the owner's hashed namespace with a random
// prefix so repeated uploads of the same file name never collide.
func NewKey(owner, fileName string) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	prefix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return path.Join(util.OwnerDigest(owner), prefix+"_"+name), nil
}

// CleanKey rejects absolute and traversing keys.
func CleanKey(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(strings.TrimSpace(key)))
	if clean == "." || clean == "" || strings.HasPrefix(clean, "..") || strings.HasPrefix(clean, "/") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// Sniff reads up to 512 bytes to detect the content type and returns a reader
// that replays them ahead of the remaining body.
func Sniff(r io.Reader) (string, io.Reader, error) {
	var sniff [512]byte
	n, err := io.ReadFull(r, sniff[:])
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, fmt.Errorf("read sniff: %w", err)
	}
	head := append([]byte(nil), sniff[:n]...)
	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), r), nil
}
