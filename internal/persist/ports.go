// Package persist mirrors the ledger into a key-value store under a single
// fixed key and hydrates it back at startup.
package persist

import (
	"context"
	"fmt"
)

// DefaultKey is the key the whole ledger is stored under.
const DefaultKey = "transactions"

// Ports for key-value backends.
type (
	// KV is the storage capability the adapter needs. Implementations must
	// make Set atomic: a reader sees either the old value or the new one.
	KV interface {
		// Get returns the value under key. found is false when the key has
		// never been written.
		Get(ctx context.Context, key string) (value []byte, found bool, err error)
		// Set overwrites the value under key.
		Set(ctx context.Context, key string, value []byte) error
	}

	// Closer is implemented by backends holding resources.
	Closer interface {
		Close() error
	}
)

// WriteError reports a failed Save. The in-memory ledger is still valid;
// only the mirror on disk is stale.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("persist %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
