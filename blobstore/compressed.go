package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a blob is encoded on the underlying store.
type Compression uint8

const (
	// CompressionNone means the blob is stored as-is.
	CompressionNone Compression = iota
	// CompressionZSTD marks blobs ending in ".zst".
	CompressionZSTD
	// CompressionLZ4 marks blobs ending in ".lz4" (LZ4 frame format).
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// CompressionOf derives the compression from a blob name's extension.
func CompressionOf(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".zst"):
		return CompressionZSTD
	case strings.HasSuffix(name, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

var zstdDecoderPool sync.Pool

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Decompress decodes data according to c.
func Decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		return dec.DecodeAll(data, nil)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return data, nil
	}
}

// Compress encodes data according to c. It is mostly useful for preparing
// fixtures and for writers that feed a CompressedStore.
func Compress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionZSTD:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(data, nil), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return data, nil
	}
}

// CompressedStore wraps a BlobStore and transparently decodes ".zst" and
// ".lz4" blobs. Decoding happens once at open time, which makes these blobs
// expensive to open and cheap to read; exactly what a handle cache is for.
// Uncompressed names are passed through untouched.
type CompressedStore struct {
	inner BlobStore
}

// NewCompressedStore wraps inner.
func NewCompressedStore(inner BlobStore) *CompressedStore {
	return &CompressedStore{inner: inner}
}

// Open opens and, if needed, decodes the named blob.
func (s *CompressedStore) Open(ctx context.Context, name string) (Blob, error) {
	raw, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	c := CompressionOf(name)
	if c == CompressionNone {
		return raw, nil
	}

	b := &decodedBlob{raw: raw, compression: c}
	if err := b.decode(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return b, nil
}

// decodedBlob holds the decoded content of a compressed blob in memory.
type decodedBlob struct {
	raw         Blob
	compression Compression

	mu      sync.RWMutex
	data    []byte
	rawSize int64
	closed  atomic.Bool
}

func (b *decodedBlob) decode(ctx context.Context) error {
	size := b.raw.Size()
	buf, err := readWhole(ctx, b.raw, size)
	if err != nil {
		return fmt.Errorf("read %s: %w", b.raw.Location(), err)
	}
	data, err := Decompress(b.compression, buf)
	if err != nil {
		return fmt.Errorf("decode %s (%s): %w", b.raw.Location(), b.compression, err)
	}

	b.mu.Lock()
	b.data = data
	b.rawSize = size
	b.mu.Unlock()
	return nil
}

// readWhole reads the complete raw blob, preferring its Fetcher when it has
// one.
func readWhole(ctx context.Context, raw Blob, size int64) ([]byte, error) {
	if f, ok := raw.(Fetcher); ok {
		return f.Fetch(ctx)
	}
	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	n, err := raw.ReadAt(ctx, buf, 0)
	if err != nil && !(err == io.EOF && int64(n) == size) {
		return nil, err
	}
	return buf, nil
}

func (b *decodedBlob) bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data
}

func (b *decodedBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}
	return readAtBytes(b.bytes(), p, off)
}

func (b *decodedBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	return io.NopCloser(bytes.NewReader(rangeOfBytes(b.bytes(), off, length))), nil
}

// Size returns the decoded size.
func (b *decodedBlob) Size() int64 {
	return int64(len(b.bytes()))
}

func (b *decodedBlob) Bytes() ([]byte, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}
	return b.bytes(), nil
}

func (b *decodedBlob) Location() string {
	return b.raw.Location()
}

// Sync syncs the underlying blob and decodes it again if its size changed.
func (b *decodedBlob) Sync() error {
	if b.closed.Load() {
		return ErrClosed
	}
	if err := b.raw.Sync(); err != nil {
		return err
	}
	b.mu.RLock()
	unchanged := b.raw.Size() == b.rawSize
	b.mu.RUnlock()
	if unchanged {
		return nil
	}
	return b.decode(context.Background())
}

func (b *decodedBlob) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	b.mu.Lock()
	b.data = nil
	b.mu.Unlock()
	return b.raw.Close()
}
