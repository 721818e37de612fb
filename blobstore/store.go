package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when a blob does not exist.
	//
	// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
	// The default maps to `os.ErrNotExist`.
	ErrNotFound = os.ErrNotExist

	// ErrClosed is returned when reading from a closed blob.
	ErrClosed = errors.New("blobstore: blob is closed")
)

// BlobStore opens immutable-or-rarely-changing data blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
}

// Blob is a read-only handle to a data blob.
//
// Every Blob satisfies the cache's Resource contract: Sync refreshes the
// handle when the blob behind it changed, Location names it for diagnostics.
type Blob interface {
	// ReadAt reads len(p) bytes starting at offset off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for length bytes starting at off.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	// Sync re-validates the handle against the store.
	Sync() error
	// Location identifies the blob, e.g. a path or an s3:// URI.
	Location() string
	io.Closer
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed or synced.
	Bytes() ([]byte, error)
}

// Fetcher is an optional interface for Blobs that can download their whole
// content faster than a single ReadAt, e.g. with parallel ranged requests.
type Fetcher interface {
	// Fetch returns the complete content of the blob as of the last Sync.
	Fetch(ctx context.Context) ([]byte, error)
}

// ClampRange returns how many of the length bytes requested at off exist in
// a blob of the given size. It never overflows, so length may be
// math.MaxInt64 to mean "up to the end".
func ClampRange(off, length, size int64) int64 {
	if off < 0 || off >= size || length <= 0 {
		return 0
	}
	return min(length, size-off)
}

// EmptyReader is what ReadRange returns for a range with no bytes in it.
func EmptyReader() io.ReadCloser {
	return io.NopCloser(bytes.NewReader(nil))
}

// readAtBytes implements ReadAt over an in-memory slice.
func readAtBytes(data []byte, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// rangeOfBytes implements ReadRange over an in-memory slice.
func rangeOfBytes(data []byte, off, length int64) []byte {
	n := ClampRange(off, length, int64(len(data)))
	if n == 0 {
		return nil
	}
	return data[off : off+n]
}
