package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Backend.Get for absent keys.
var ErrNotFound = errors.New("storage: key not found")

// Op is one write in an atomic batch. A nil Value with Delete set removes the key.
type Op struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// ScanFunc receives entries in ascending key order. Returning an error stops the scan.
type ScanFunc func(key, value []byte) error

// Backend is the persistent key-value store the engine runs against.
type Backend interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
	Scan(ctx context.Context, prefix []byte, fn ScanFunc) error
	// Apply writes the whole batch or nothing.
	Apply(ctx context.Context, ops []Op) error
	Close(ctx context.Context) error
}
