// Package storage persists uploaded file bytes under opaque keys.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned when a key has no stored content.
var ErrNotExist = errors.New("storage: object does not exist")

// Object describes stored content.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a flat key/value blob store.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, Object, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]Object, error)
}

// ValidKey reports whether key is a single safe path segment.
func ValidKey(key string) bool {
	if key == "" || len(key) > 255 || key == "." || key == ".." {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.':
		default:
			return false
		}
	}
	return true
}
