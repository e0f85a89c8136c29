package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the key has never been written
	ErrNotFound = errors.New("key not found")
	// ErrUnavailable means the backend could not be reached or read
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded means a write was rejected because the value is too large
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KeyValueStore is the durable key-value storage favorites are persisted to.
// Set overwrites the previous value of key in full.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// StorageError describes a failed storage operation
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func notFound(key string) error {
	return &StorageError{Op: "get", Key: key, Err: ErrNotFound}
}

func unavailable(op, key string, err error) error {
	return &StorageError{Op: op, Key: key, Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
}

func quotaExceeded(key string, size, quota int64) error {
	return &StorageError{
		Op:  "set",
		Key: key,
		Err: fmt.Errorf("%w: %d bytes over a %d byte quota", ErrQuotaExceeded, size, quota),
	}
}
