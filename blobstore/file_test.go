package blobstore

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hupe1980/filecache/internal/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Lifecycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "obs.nc"), []byte("surface observations"), 0o644))
	ctx := context.Background()

	blob, err := NewFileStore(dir).Open(ctx, "obs.nc")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(20), blob.Size())
	assert.Equal(t, filepath.Join(dir, "obs.nc"), blob.Location())

	buf := make([]byte, 7)
	_, err = blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "surface", string(buf))

	rc, err := blob.ReadRange(ctx, 8, 100)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "observations", string(got))

	_, err = blob.ReadAt(ctx, buf, 20)
	assert.Equal(t, io.EOF, err)
}

func TestFileStore_OpenMissing(t *testing.T) {
	_, err := NewFileStore(t.TempDir()).Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBlob_SyncReopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.bin")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	ffs := fs.NewFaultyFS(nil)
	blob, err := newFileStore(dir, ffs).Open(context.Background(), "grid.bin")
	require.NoError(t, err)
	defer blob.Close()

	require.NoError(t, blob.Sync())
	assert.Equal(t, int64(1), ffs.Opens(), "unchanged file is not reopened")

	require.NoError(t, os.WriteFile(path, []byte("version two"), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	require.NoError(t, blob.Sync())
	assert.Equal(t, int64(2), ffs.Opens())
	assert.Equal(t, int64(1), ffs.Closes(), "old handle closed")
	assert.Equal(t, int64(11), blob.Size())
}

func TestFileBlob_Faults(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.bin", "b.bin", "c.bin"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	closeErr := errors.New("stale NFS handle")
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("a.bin", fs.Fault{FailOnOpen: true})
	ffs.AddRule("b.bin", fs.Fault{FailOnRead: true})
	ffs.AddRule("c.bin", fs.Fault{FailOnClose: true, Err: closeErr})
	store := newFileStore(dir, ffs)
	ctx := context.Background()

	_, err := store.Open(ctx, "a.bin")
	assert.ErrorIs(t, err, fs.ErrInjected)

	b, err := store.Open(ctx, "b.bin")
	require.NoError(t, err)
	_, err = b.ReadAt(ctx, make([]byte, 1), 0)
	assert.ErrorIs(t, err, fs.ErrInjected)
	require.NoError(t, b.Close())

	c, err := store.Open(ctx, "c.bin")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Close(), closeErr)
	assert.NoError(t, c.Close(), "only the first close reaches the file")
	assert.Equal(t, int64(2), ffs.Closes())
}
