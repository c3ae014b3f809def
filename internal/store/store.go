// Package store provides the key-value abstraction the Ledger persists
// entries through, grounded on the teacher pack's blockchain storage
// layer: a small Database interface with an in-memory implementation for
// tests and a durable goleveldb-backed implementation for production.
package store

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Database is a generic ordered key-value store. Keys are iterated in
// lexicographic byte order, which the ledger relies on for sequence-keyed
// range scans.
type Database interface {
	Put(key, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)

	// Iterate calls fn for every key with the given prefix, in ascending
	// key order, until fn returns an error or keys are exhausted. A nil
	// prefix iterates the entire keyspace.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	// PutBatch writes every entry durably as a single atomic unit, the
	// ledger's mechanism for committing an appended entry and its
	// updated tail record together (spec.md §4.6 steps 6–7).
	PutBatch(entries map[string][]byte) error

	Close() error
}
