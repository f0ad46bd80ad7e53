// Package storage defines the key-value port the ledger persists through.
package storage

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by backends that have been closed.
var ErrUnavailable = errors.New("storage unavailable")

// KeyValueStore is local key-value storage holding opaque blobs.
// Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
