// Package storage provides the byte-stream surface for sealed blobs. The
// gateway never inspects the bytes: it puts, gets and deletes opaque
// objects addressed by a storage key.
package storage

import (
	"context"
	"io"
)

// ObjectStore is the minimal object-storage contract the gateway needs.
type ObjectStore interface {
	// Put stores size bytes from body under key.
	Put(ctx context.Context, key string, body io.Reader, size int64) error
	// Get opens the object for reading. The caller must close the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}
