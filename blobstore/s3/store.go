package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/filecache/blobstore"
)

// syncTimeout bounds the HEAD request Sync issues.
const syncTimeout = 10 * time.Second

// Client is the subset of the S3 API the store uses.
type Client interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client     Client
	bucket     string
	prefix     string
	downloader *manager.Downloader
}

// NewStore creates a new S3 blob store.
// rootPrefix is prepended to all keys (e.g. "gfs/").
// Whole-object fetches use the downloader defaults unless download options
// are given.
func NewStore(client Client, bucket, rootPrefix string, downloadOpts ...func(*manager.Downloader)) *Store {
	return &Store{
		client:     client,
		bucket:     bucket,
		prefix:     rootPrefix,
		downloader: manager.NewDownloader(client, downloadOpts...),
	}
}

// Options configures New.
type Options struct {
	Prefix string
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for LocalStack.
	Endpoint     string
	UsePathStyle bool
	// PartSize and Concurrency tune whole-object fetches. Zero keeps the
	// downloader defaults.
	PartSize    int64
	Concurrency int
}

// Option configures New.
type Option func(*Options)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion overrides the region from the default AWS config chain.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint points the client at a custom endpoint and switches to
// path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithDownload tunes the parallel ranged GETs used by Fetch.
func WithDownload(partSize int64, concurrency int) Option {
	return func(o *Options) {
		o.PartSize = partSize
		o.Concurrency = concurrency
	}
}

// New creates a store using the default AWS credential chain.
func New(ctx context.Context, bucket string, optFns ...Option) (*Store, error) {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	})
	return NewStore(client, bucket, o.Prefix, func(d *manager.Downloader) {
		if o.PartSize > 0 {
			d.PartSize = o.PartSize
		}
		if o.Concurrency > 0 {
			d.Concurrency = o.Concurrency
		}
	}), nil
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// Open verifies the object exists and records its size and ETag.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	meta, err := head(ctx, s.client, s.bucket, key)
	if err != nil {
		return nil, err
	}
	b := &s3Blob{
		client:     s.client,
		downloader: s.downloader,
		bucket:     s.bucket,
		key:        key,
	}
	b.meta = meta
	return b, nil
}

type objectMeta struct {
	size int64
	etag string
}

func head(ctx context.Context, client Client, bucket, key string) (objectMeta, error) {
	out, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return objectMeta{}, fmt.Errorf("%w: s3://%s/%s", blobstore.ErrNotFound, bucket, key)
		}
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return objectMeta{}, fmt.Errorf("%w: s3://%s/%s", blobstore.ErrNotFound, bucket, key)
		}
		return objectMeta{}, err
	}
	return objectMeta{
		size: aws.ToInt64(out.ContentLength),
		etag: aws.ToString(out.ETag),
	}, nil
}

// s3Blob implements blobstore.Blob
type s3Blob struct {
	client     Client
	downloader *manager.Downloader
	bucket     string
	key        string

	mu     sync.RWMutex
	meta   objectMeta
	closed atomic.Bool
}

func (b *s3Blob) Size() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta.size
}

// ETag returns the entity tag recorded at open or the last Sync.
func (b *s3Blob) ETag() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.meta.etag
}

func (b *s3Blob) Location() string {
	return "s3://" + b.bucket + "/" + b.key
}

// ReadAt reads len(p) bytes starting at offset off with a single ranged GET.
func (b *s3Blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
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
	body, err := b.get(ctx, off, end)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p[:end-off+1])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadRange returns a reader for length bytes starting at off.
func (b *s3Blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if b.closed.Load() {
		return nil, blobstore.ErrClosed
	}
	n := blobstore.ClampRange(off, length, b.Size())
	if n == 0 {
		return blobstore.EmptyReader(), nil
	}
	return b.get(ctx, off, off+n-1)
}

func (b *s3Blob) get(ctx context.Context, first, last int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", first, last)),
	}
	// Reads are pinned to the ETag seen at open or the last Sync.
	if etag := b.ETag(); etag != "" {
		input.IfMatch = aws.String(etag)
	}
	resp, err := b.client.GetObject(ctx, input)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Fetch downloads the whole object with parallel ranged GETs, pinned to the
// ETag seen at open or the last Sync.
func (b *s3Blob) Fetch(ctx context.Context) ([]byte, error) {
	if b.closed.Load() {
		return nil, blobstore.ErrClosed
	}
	b.mu.RLock()
	meta := b.meta
	b.mu.RUnlock()

	input := &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
	}
	if meta.etag != "" {
		input.IfMatch = aws.String(meta.etag)
	}
	d := b.downloader
	if d == nil {
		d = manager.NewDownloader(b.client)
	}
	buf := manager.NewWriteAtBuffer(make([]byte, 0, meta.size))
	n, err := d.Download(ctx, buf, input)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", b.Location(), err)
	}
	return buf.Bytes()[:n], nil
}

// Sync re-reads the object's metadata so reads follow a replaced object.
func (b *s3Blob) Sync() error {
	if b.closed.Load() {
		return blobstore.ErrClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	meta, err := head(ctx, b.client, b.bucket, b.key)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.meta = meta
	b.mu.Unlock()
	return nil
}

// Close marks the blob closed. S3 keeps no per-object connection state.
func (b *s3Blob) Close() error {
	b.closed.Store(true)
	return nil
}
