// Package store persists analysis artifacts under slash-separated keys such
// as "2026-10-18/cell3/sweeps.json". Backends map keys onto a directory tree
// or an object-store prefix.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a key holds no data.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned by Create when the key already holds data.
	ErrExists = errors.New("already exists")
)

// Store is a hierarchical key/value store for artifact bytes.
type Store interface {
	// Get returns the bytes stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put writes data at key, replacing any previous value.
	Put(ctx context.Context, key string, data []byte) error
	// Create writes data at key only if the key is empty, else ErrExists.
	Create(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key and everything stored beneath key+"/".
	// Deleting a missing key returns ErrNotFound.
	Delete(ctx context.Context, key string) error
	// List returns all keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// CleanKey normalizes a key and rejects keys that would escape the store
// root.
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.Trim(key, "/")
	if key == "" {
		return "", fmt.Errorf("empty key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("key %q escapes store root", key)
		}
	}
	return path.Clean(key), nil
}

// Join builds a key from parts.
func Join(parts ...string) string {
	return path.Join(parts...)
}

// Under reports whether key equals prefix or lives beneath it.
func Under(key, prefix string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}
