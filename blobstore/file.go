package blobstore

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/filecache/internal/fs"
)

// FileStore opens local files with plain positioned reads. Use it instead of
// LocalStore on filesystems where memory mapping is unavailable or unsafe,
// such as network mounts.
type FileStore struct {
	root string
	fsys fs.FileSystem
}

// NewFileStore creates a FileStore rooted at the given directory.
func NewFileStore(root string) *FileStore {
	return newFileStore(root, fs.Default)
}

func newFileStore(root string, fsys fs.FileSystem) *FileStore {
	return &FileStore{root: root, fsys: fsys}
}

// Open opens the named file.
func (s *FileStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	f, size, modTime, err := s.open(path)
	if err != nil {
		return nil, err
	}
	return &fileBlob{
		store:   s,
		path:    path,
		f:       f,
		size:    size,
		modTime: modTime,
	}, nil
}

func (s *FileStore) open(path string) (fs.File, int64, time.Time, error) {
	f, err := s.fsys.Open(path)
	if err != nil {
		return nil, 0, time.Time{}, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, time.Time{}, err
	}
	return f, info.Size(), info.ModTime(), nil
}

type fileBlob struct {
	store *FileStore
	path  string

	mu      sync.RWMutex
	f       fs.File
	size    int64
	modTime time.Time
	closed  atomic.Bool
}

func (b *fileBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	return b.f.ReadAt(p, off)
}

func (b *fileBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	n := ClampRange(off, length, b.Size())
	if n == 0 {
		return EmptyReader(), nil
	}
	buf := make([]byte, n)
	read, err := b.ReadAt(ctx, buf, off)
	if err != nil && !(err == io.EOF && int64(read) == n) {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(buf[:read])), nil
}

func (b *fileBlob) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

func (b *fileBlob) Location() string {
	return b.path
}

// Sync reopens the file when it was replaced or resized since it was opened.
func (b *fileBlob) Sync() error {
	if b.closed.Load() {
		return ErrClosed
	}
	info, err := b.store.fsys.Stat(b.path)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if info.Size() == b.size && info.ModTime().Equal(b.modTime) {
		return nil
	}

	f, size, modTime, err := b.store.open(b.path)
	if err != nil {
		return err
	}
	old := b.f
	b.f, b.size, b.modTime = f, size, modTime
	return old.Close()
}

func (b *fileBlob) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.f.Close()
}
