// Package storage abstracts the blob store holding asset originals and
// generated thumbnails. Keys are slash-separated relative paths.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("storage: object not found")

// Storage is a flat key/blob store.
type Storage interface {
	// Put writes the blob under key, creating parents as needed and
	// overwriting any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get reads the blob at key. Returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob at key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key holds an object.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a publicly servable URL for the key.
	URL(key string) string
}
