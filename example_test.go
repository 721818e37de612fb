package filecache_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/filecache"
	"github.com/hupe1980/filecache/blobstore"
)

// Example shows the acquire/release cycle with a blob store as the factory.
func Example() {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	_ = store.Put(ctx, "forecast/t2m.grib", []byte("temperature at 2m"))

	c, err := filecache.New(filecache.Config{MinElements: 1, SoftLimit: 4, HardLimit: 8})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	factory := filecache.BlobFactory(store)
	for range 3 {
		r, err := c.Acquire(ctx, factory, nil, "forecast/t2m.grib", nil)
		if err != nil {
			log.Fatal(err)
		}
		buf := make([]byte, 11)
		_, _ = r.(blobstore.Blob).ReadAt(ctx, buf, 0)
		_ = c.Release(r)
	}

	stats := c.Stats()
	fmt.Printf("hits=%d misses=%d opens=%d\n", stats.Hits, stats.Misses, store.Opens())
	// Output: hits=2 misses=1 opens=1
}

// ExampleCache_Lease shows the lease guard, which also does the right thing
// while the cache is disabled.
func ExampleCache_Lease() {
	ctx := context.Background()

	store := blobstore.NewMemoryStore()
	_ = store.Put(ctx, "obs.nc", []byte("observations"))

	c, err := filecache.New(filecache.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	c.Disable()
	l, err := c.Lease(ctx, filecache.BlobFactory(store), nil, "obs.nc", nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(l.Resource().Location(), c.Stats().Count)
	_ = l.Close()
	// Output: mem://obs.nc 0
}
