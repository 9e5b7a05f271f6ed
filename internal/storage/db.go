// Package storage provides the key-value stores behind the local journal.
package storage

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// DB is a key-value store.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach visits keys with the given prefix in ascending key order.
	// The callback receives copies. A non-nil error from fn stops
	// iteration and is returned.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch buffers writes that Commit applies together. Discard drops
// uncommitted writes and releases the batch; after Commit it is a no-op.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}

// Batcher is implemented by stores that can write atomically.
type Batcher interface {
	NewBatch() Batch
}
