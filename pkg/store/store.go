// Package store provides the exact fingerprint store: a key-value store
// mapping segment ids to raw fingerprint code text.
//
// The matcher uses it to fetch exact codes for re-scoring the approximate
// candidate set, and the ingestion pipeline writes one entry per segment.
// Writes take effect immediately; unlike the candidate index there is no
// deferred commit.
//
// The package includes a BadgerDB-backed implementation for production use
// and an in-memory implementation for testing. For distributed deployment,
// swap in a client that talks to a remote key-value service.
package store

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrNotFound is returned by Get when a key does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrUnavailable wraps transport or engine failures so callers can
	// distinguish them from missing data. The engine never retries;
	// retry policy belongs to the orchestration layer.
	ErrUnavailable = errors.New("store: unavailable")
)

// Entry is a key-value pair used by MultiSet.
type Entry struct {
	Key   string
	Value []byte
}

// Store is the exact-store contract: segment id → raw code text.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// MultiGet retrieves many keys at once. The result is parallel to
	// keys; missing entries are nil, never an error.
	MultiGet(ctx context.Context, keys []string) ([][]byte, error)

	// Set stores a key-value pair, overwriting any existing value.
	Set(ctx context.Context, key string, value []byte) error

	// MultiSet atomically stores multiple entries.
	MultiSet(ctx context.Context, entries []Entry) error

	// MultiDelete removes multiple keys. Missing keys are ignored.
	MultiDelete(ctx context.Context, keys []string) error

	// Keys returns every key in the store. Used by full-erase and the
	// repair pass; not intended for the query path.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}
