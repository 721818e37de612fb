// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS,
// Garage) without pulling in the AWS SDK.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "archive", "gfs/")
//	r, err := cache.Acquire(ctx, filecache.BlobFactory(store), nil, "t2m.grib", nil)
//
// Blobs stat the object on Open and again on every Sync, so a handle taken
// from the cache follows an object that was overwritten in the meantime.
package minio
