package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrInvalidFileName is returned for names that are empty or attempt traversal.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.TrimSpace(name)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\':
			return '_'
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}

// SwapExtension replaces the extension of name with ext (which includes the dot).
// Names without an extension get ext appended.
func SwapExtension(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "file"
	}
	return base + ext
}
