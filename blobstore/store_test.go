package blobstore

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampRange(t *testing.T) {
	tests := []struct {
		name              string
		off, length, size int64
		want              int64
	}{
		{"inside", 2, 3, 10, 3},
		{"past end", 8, 5, 10, 2},
		{"to end", 2, math.MaxInt64, 10, 8},
		{"max offset and length", math.MaxInt64 - 1, math.MaxInt64, math.MaxInt64, 1},
		{"zero length", 2, 0, 10, 0},
		{"negative length", 2, -1, 10, 0},
		{"offset at size", 10, 1, 10, 0},
		{"negative offset", -1, 1, 10, 0},
		{"empty blob", 0, 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampRange(tt.off, tt.length, tt.size))
		})
	}
}

func TestReadRange_Bounds(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	content := []byte("gridded forecast")

	mem := NewMemoryStore()
	require.NoError(t, mem.Put(ctx, "grid.bin", content))
	zst, err := Compress(CompressionZSTD, content)
	require.NoError(t, err)
	require.NoError(t, mem.Put(ctx, "grid.bin.zst", zst))
	require.NoError(t, NewLocalStore(dir).Put(ctx, "grid.bin", content))

	stores := map[string]struct {
		store BlobStore
		name  string
	}{
		"memory":     {mem, "grid.bin"},
		"compressed": {NewCompressedStore(mem), "grid.bin.zst"},
		"local":      {NewLocalStore(dir), "grid.bin"},
		"file":       {NewFileStore(dir), "grid.bin"},
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			blob, err := s.store.Open(ctx, s.name)
			require.NoError(t, err)
			defer blob.Close()

			read := func(off, length int64) string {
				rc, err := blob.ReadRange(ctx, off, length)
				require.NoError(t, err)
				defer rc.Close()
				data, err := io.ReadAll(rc)
				require.NoError(t, err)
				return string(data)
			}

			assert.Equal(t, "forecast", read(8, math.MaxInt64))
			assert.Equal(t, "gridded forecast", read(0, math.MaxInt64))
			assert.Empty(t, read(4, 0))
			assert.Empty(t, read(4, -1))
			assert.Empty(t, read(int64(len(content)), 1))
			assert.Empty(t, read(math.MaxInt64, math.MaxInt64))
		})
	}
}
