package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/filecache/internal/mmap"
)

// LocalStore implements BlobStore using the local file system.
type LocalStore struct {
	root string
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Open memory-maps the named file.
func (s *LocalStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := mmap.Open(s.path(name))
	if err != nil {
		return nil, err
	}
	_ = m.Advise(mmap.AdviceRandom)
	return &localBlob{path: m.Path(), m: m}, nil
}

// Put writes a blob atomically by renaming a temporary file into place.
func (s *LocalStore) Put(_ context.Context, name string, data []byte) error {
	path := s.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	err := os.Remove(s.path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

type localBlob struct {
	path   string
	mu     sync.RWMutex
	m      *mmap.Mapping
	closed atomic.Bool
}

func (b *localBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return readAtBytes(b.m.Bytes(), p, off)
}

func (b *localBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	// Copy so the reader stays valid across a remap.
	chunk := bytes.Clone(rangeOfBytes(b.m.Bytes(), off, length))
	return io.NopCloser(bytes.NewReader(chunk)), nil
}

func (b *localBlob) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.m.Size()
}

func (b *localBlob) Bytes() ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.m.Bytes(), nil
}

func (b *localBlob) Location() string {
	return b.path
}

// Sync remaps the file when it was replaced or resized since it was mapped.
func (b *localBlob) Sync() error {
	if b.closed.Load() {
		return ErrClosed
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	stale, err := b.m.Stale()
	if err != nil || !stale {
		return err
	}

	fresh, err := mmap.Open(b.path)
	if err != nil {
		return err
	}
	_ = fresh.Advise(mmap.AdviceRandom)

	old := b.m
	b.m = fresh
	return old.Close()
}

func (b *localBlob) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m.Close()
}
