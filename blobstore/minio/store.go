package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/filecache/blobstore"
	"github.com/minio/minio-go/v7"
)

const syncTimeout = 10 * time.Second

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewStore creates a new MinIO blob store.
// rootPrefix is prepended to all keys (e.g. "gfs/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open stats the object and returns a handle reading it with ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := stat(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, err
	}
	return &minioBlob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		info:   info,
	}, nil
}

// Put writes a blob.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	return err
}

// Delete removes a blob. Deleting a missing blob is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

func isNotFound(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NotFound"
}

func stat(ctx context.Context, client *minio.Client, bucket, key string) (minio.ObjectInfo, error) {
	info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return minio.ObjectInfo{}, fmt.Errorf("%w: %s/%s", blobstore.ErrNotFound, bucket, key)
		}
		return minio.ObjectInfo{}, err
	}
	return info, nil
}

// minioBlob implements blobstore.Blob for MinIO.
type minioBlob struct {
	client *minio.Client
	bucket string
	key    string

	mu     sync.RWMutex
	info   minio.ObjectInfo
	closed atomic.Bool
}

func (b *minioBlob) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info.Size
}

func (b *minioBlob) etag() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.info.ETag
}

func (b *minioBlob) Location() string {
	return "minio://" + b.bucket + "/" + b.key
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if b.closed.Load() {
		return 0, blobstore.ErrClosed
	}
	size := b.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	end := min(off+int64(len(p)), size) - 1
	obj, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = obj.Close() }()

	n, err := io.ReadFull(obj, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *minioBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, blobstore.ErrClosed
	}
	n := blobstore.ClampRange(off, length, b.Size())
	if n == 0 {
		return blobstore.EmptyReader(), nil
	}
	return b.get(ctx, off, off+n-1)
}

func (b *minioBlob) get(ctx context.Context, first, last int64) (*minio.Object, error) {
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(first, last); err != nil {
		return nil, err
	}
	if etag := b.etag(); etag != "" {
		if err := opts.SetMatchETag(etag); err != nil {
			return nil, err
		}
	}
	return b.client.GetObject(ctx, b.bucket, b.key, opts)
}

// Sync re-stats the object.
func (b *minioBlob) Sync() error {
	if b.closed.Load() {
		return blobstore.ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	info, err := stat(ctx, b.client, b.bucket, b.key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.info = info
	b.mu.Unlock()
	return nil
}

func (b *minioBlob) Close() error {
	b.closed.Store(true)
	return nil
}
