// Command filecache-stat hammers a handle cache with concurrent reads of
// local blobs and prints what the cache did.
//
//	FILECACHE_SOFT_LIMIT=4 filecache-stat -root ./data -workers 16 a.grib b.grib.zst c.nc.lz4
//
// Limits come from FILECACHE_* variables (or a .env file). With -metrics the
// Prometheus collector is served on the given address while the run lasts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hupe1980/filecache"
	"github.com/hupe1980/filecache/blobstore"
	fcprom "github.com/hupe1980/filecache/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	root        = flag.String("root", ".", "Directory the blob names are relative to")
	workers     = flag.Int("workers", 8, "Number of concurrent readers")
	iterations  = flag.Int("iterations", 100, "Acquire/release rounds per reader")
	readSize    = flag.Int("read", 4096, "Bytes read per acquire")
	metricsAddr = flag.String("metrics", "", "Serve Prometheus metrics on this address (e.g. :2112)")
	pread       = flag.Bool("pread", false, "Read files with pread instead of mmap")
	verbose     = flag.Bool("v", false, "Debug logging")
)

func main() {
	flag.Parse()
	names := flag.Args()
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "usage: filecache-stat [flags] blob...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	if err := run(names); err != nil {
		log.Fatal(err)
	}
}

func run(names []string) error {
	cfg, err := filecache.ConfigFromEnv()
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	reg := prometheus.NewRegistry()
	collector, err := fcprom.NewCollector(reg)
	if err != nil {
		return err
	}
	if *metricsAddr != "" {
		srv := &http.Server{
			Addr:              *metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server error: %v", err)
			}
		}()
		defer srv.Close()
		fmt.Printf("Prometheus metrics available at http://%s/metrics\n", *metricsAddr)
	}

	cache, err := filecache.New(cfg,
		filecache.WithLogger(filecache.NewTextLogger(level)),
		filecache.WithMetricsCollector(collector),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store blobstore.BlobStore = blobstore.NewLocalStore(*root)
	if *pread {
		store = blobstore.NewFileStore(*root)
	}
	factory := filecache.BlobFactory(blobstore.NewCompressedStore(store))

	start := time.Now()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for w := range *workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(w), 42))
			buf := make([]byte, *readSize)

			for range *iterations {
				if ctx.Err() != nil {
					return
				}
				if err := readOnce(ctx, cache, factory, names[rng.IntN(len(names))], buf, rng); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	fmt.Printf("\n%d workers x %d iterations in %v\n", *workers, *iterations, elapsed.Round(time.Millisecond))
	if err := cache.ShowCache(os.Stdout); err != nil {
		return err
	}
	return firstErr
}

func readOnce(ctx context.Context, cache *filecache.Cache, factory filecache.Factory, name string, buf []byte, rng *rand.Rand) error {
	l, err := cache.Lease(ctx, factory, nil, name, nil)
	if err != nil {
		return err
	}
	defer l.Close()

	blob := l.Resource().(blobstore.Blob)
	if blob.Size() == 0 {
		return nil
	}
	off := rng.Int64N(blob.Size())
	if _, err := blob.ReadAt(ctx, buf, off); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read %s: %w", blob.Location(), err)
	}
	return nil
}
