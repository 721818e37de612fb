package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// MemoryStore is an in-memory BlobStore implementation for testing.
// Each Put creates a new version of the blob; open handles pick it up on Sync.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryVersion
	seq   uint64
	opens atomic.Int64
}

type memoryVersion struct {
	data    []byte
	version uint64
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string]memoryVersion),
	}
}

// Open opens a blob for reading.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	m.opens.Add(1)
	return &memoryBlob{store: m, name: name, cur: v}, nil
}

// Opens returns how many times Open succeeded.
func (m *MemoryStore) Opens() int64 {
	return m.opens.Load()
}

func (m *MemoryStore) get(name string) (memoryVersion, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.blobs[name]
	return v, ok
}

// Put writes a blob atomically.
func (m *MemoryStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	// Copy to prevent external mutation
	m.blobs[name] = memoryVersion{data: bytes.Clone(data), version: m.seq}
	return nil
}

// Delete removes a blob.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.blobs, name)
	return nil
}

// List returns all blobs matching the prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// memoryBlob implements Blob for in-memory data.
type memoryBlob struct {
	store  *MemoryStore
	name   string
	mu     sync.RWMutex
	cur    memoryVersion
	closed atomic.Bool
}

func (b *memoryBlob) data() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur.data
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	return readAtBytes(b.data(), p, off)
}

func (b *memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	return io.NopCloser(bytes.NewReader(rangeOfBytes(b.data(), off, length))), nil
}

func (b *memoryBlob) Size() int64 {
	return int64(len(b.data()))
}

func (b *memoryBlob) Bytes() ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	return b.data(), nil
}

func (b *memoryBlob) Location() string {
	return "mem://" + b.name
}

// Version returns the store version this handle currently reads.
func (b *memoryBlob) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cur.version
}

// Sync switches to the newest version of the blob. A deleted blob reports
// ErrNotFound and keeps serving the old version.
func (b *memoryBlob) Sync() error {
	if b.closed.Load() {
		return ErrClosed
	}
	v, ok := b.store.get(b.name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, b.name)
	}
	b.mu.Lock()
	b.cur = v
	b.mu.Unlock()
	return nil
}

func (b *memoryBlob) Close() error {
	if b.closed.Swap(true) {
		return ErrClosed
	}
	return nil
}
