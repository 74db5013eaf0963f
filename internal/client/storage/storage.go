// Package storage is the client's persisted key-value store. The read
// ledger and quiz-session snapshots live here, namespaced per username or
// flashcard. Values are JSON blobs; a missing key reads as (nil, nil).
package storage

import "context"

// Store is a durable string→bytes map.
type Store interface {
	// Get returns the stored value or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
