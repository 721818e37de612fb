// Package blobstore opens data blobs as cacheable handles.
//
// A BlobStore turns a name into a Blob. Every Blob satisfies the
// filecache.Resource contract, so a store plugs straight into a cache via
// filecache.BlobFactory. Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local files, memory-mapped
//   - FileStore: local files read with pread, for mounts that cannot be mapped
//   - MemoryStore: versioned in-memory blobs, mostly for tests
//   - CompressedStore: decodes ".zst" and ".lz4" blobs of another store
//   - s3.Store: Amazon S3 objects read with ranged GETs
//   - minio.Store: S3-compatible object stores through minio-go
//
// # Sync
//
// Blob.Sync is called by the cache whenever an idle handle is handed out
// again. Local blobs remap (or reopen) when the file was replaced, memory blobs switch
// to the newest version, object-store blobs refresh their size and ETag.
package blobstore
