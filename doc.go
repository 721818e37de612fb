// Package filecache keeps expensive-to-open resources alive across short-lived
// requests.
//
// Scientific data readers (netCDF, GRIB, HDF5, object-store blobs) are slow to
// open and cheap to read from once open. A Cache pools open handles under a
// caller-chosen key, lends each handle to exactly one caller at a time and
// closes idle handles least-recently-used first to keep the pool bounded.
//
// # Quick Start
//
//	c, _ := filecache.New(filecache.Config{
//	    MinElements: 10,
//	    SoftLimit:   20,
//	    HardLimit:   100,
//	    Period:      time.Minute,
//	})
//	defer c.Close()
//
//	store := blobstore.NewLocalStore("/data")
//	r, err := c.Acquire(ctx, filecache.BlobFactory(store), nil, "run-42.nc", nil)
//	if err != nil { ... }
//	defer c.Release(r)
//
//	blob := r.(blobstore.Blob)
//
// Lease wraps the acquire/release pair in a value whose Close does the right
// thing even when the cache is disabled.
//
// # Capacity
//
// Three limits shape the pool:
//
//   - SoftLimit: exceeding it schedules one background eviction pass a short
//     delay later, so a burst of misses is handled by a single pass.
//   - HardLimit: exceeding it evicts synchronously inside Acquire.
//   - MinElements: no pass evicts below this many resources.
//
// Eviction only ever touches idle resources. When too many resources are on
// loan a pass logs a warning and the pool stays above its target; Acquire is
// never blocked waiting for a caller to release.
//
// # Resources
//
// A Resource is anything with Close, Sync and Location. Sync is called on each
// cache hit so a handle can notice that the data behind it changed while it
// sat idle. The blobstore packages provide ready-made resources for local
// files (memory-mapped), compressed blobs, S3 and MinIO.
package filecache
