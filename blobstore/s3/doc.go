// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "forecast-archive",
//	    s3.WithPrefix("gfs/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	r, err := cache.Acquire(ctx, filecache.BlobFactory(store), nil, "t2m.grib", nil)
//
// # Features
//
//   - Open issues a single HEAD; data is fetched with ranged GETs
//   - Sync re-validates size and ETag so a replaced object is noticed
//   - Configurable prefix for multi-tenant isolation
package s3
