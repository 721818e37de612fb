package mmap

import (
	"io"
	"os"
	"sync/atomic"
	"time"
)

// Mapping represents a read-only memory-mapped file.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	path    string
	data    []byte
	size    int64
	modTime time.Time
	closed  atomic.Bool
	unmap   func() error
}

// Open maps the file at path into memory.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || int64(int(size)) != size {
		return nil, ErrInvalidSize
	}

	m := &Mapping{
		path:    path,
		size:    size,
		modTime: fi.ModTime(),
	}
	if size == 0 {
		return m, nil
	}

	m.data, m.unmap, err = mapReadOnly(f, int(size))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Path returns the mapped file's path.
func (m *Mapping) Path() string {
	return m.path
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int64 {
	return m.size
}

// ModTime returns the file's modification time at the moment it was mapped.
func (m *Mapping) ModTime() time.Time {
	return m.modTime
}

// Stale reports whether the file at the mapped path now has a different size
// or modification time than when it was mapped.
func (m *Mapping) Stale() (bool, error) {
	fi, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return fi.Size() != m.size || !fi.ModTime().Equal(m.modTime), nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap == nil {
		return nil
	}
	return m.unmap()
}

// Bytes returns the underlying byte slice.
// The slice is valid only until Close is called.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Advise passes a readahead hint for the mapped range to the kernel.
func (m *Mapping) Advise(a Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return madvise(m.data, a)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
