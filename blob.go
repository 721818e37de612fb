package filecache

import (
	"context"

	"github.com/hupe1980/filecache/blobstore"
)

// BlobFactory opens blobs from store. The location passed to Acquire is the
// blob name and params are ignored.
//
// Keys default to the blob name, so give each store its own key space when
// one cache serves several stores:
//
//	type blobKey struct{ store, name string }
//	r, err := c.Acquire(ctx, filecache.BlobFactory(s3Store), blobKey{"s3", name}, name, nil)
func BlobFactory(store blobstore.BlobStore) Factory {
	return FactoryFunc(func(ctx context.Context, location string, _ any) (Resource, error) {
		b, err := store.Open(ctx, location)
		if err != nil {
			return nil, err
		}
		return b, nil
	})
}
