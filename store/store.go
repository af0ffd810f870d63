// Package store defines the persistence slot port and its backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is a durable key-value slot store. Each key holds one serialized
// value; an absent key is distinct from an empty value.
type Store interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set inserts or replaces the value stored under key.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns every stored key, sorted.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}

// ErrInvalidKey is returned for keys that cannot name a slot.
var ErrInvalidKey = errors.New("store: invalid key")

// validateKey rejects keys that are empty or could escape a directory or
// object prefix.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.Contains(key, "..") || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
