package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for durable archive storage: a local directory,
// an object store bucket, or memory in tests. Archives are immutable, so
// blobs are written once and read whole.
type Store interface {
	// Open opens a blob for sequential reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create opens a blob for streaming writes. Close commits it.
	Create(ctx context.Context, name string) (io.WriteCloser, error)
	// Put writes a complete blob in one call.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob.
	Delete(ctx context.Context, name string) error
	// List returns the names of blobs matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to stored archive bytes.
type Blob interface {
	io.ReadCloser
	// Size returns the size of the blob in bytes.
	Size() int64
}
