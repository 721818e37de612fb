package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLocalFS(t *testing.T) {
	path := writeFile(t, t.TempDir(), "test.txt", "hello")
	lfs := LocalFS{}

	f, err := lfs.Open(path)
	require.NoError(t, err)

	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	buf := make([]byte, 3)
	_, err = f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(buf))
	assert.NoError(t, f.Close())

	info2, err := lfs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())

	_, err = lfs.Open(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFaultyFS(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.bin", "good")
	badOpen := writeFile(t, dir, "bad-open.bin", "x")
	badRead := writeFile(t, dir, "bad-read.bin", "x")
	badClose := writeFile(t, dir, "bad-close.bin", "x")

	closeErr := errors.New("handle corrupted")
	ffs := NewFaultyFS(nil)
	ffs.AddRule("bad-open", Fault{FailOnOpen: true})
	ffs.AddRule("bad-read", Fault{FailOnRead: true})
	ffs.AddRule("bad-close", Fault{FailOnClose: true, Err: closeErr})

	t.Run("no fault", func(t *testing.T) {
		f, err := ffs.Open(good)
		require.NoError(t, err)
		buf := make([]byte, 4)
		_, err = f.ReadAt(buf, 0)
		require.NoError(t, err)
		assert.NoError(t, f.Close())
	})

	t.Run("open", func(t *testing.T) {
		_, err := ffs.Open(badOpen)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("read", func(t *testing.T) {
		f, err := ffs.Open(badRead)
		require.NoError(t, err)
		defer f.Close()
		_, err = f.ReadAt(make([]byte, 1), 0)
		assert.ErrorIs(t, err, ErrInjected)
	})

	t.Run("close", func(t *testing.T) {
		f, err := ffs.Open(badClose)
		require.NoError(t, err)
		assert.ErrorIs(t, f.Close(), closeErr)
	})

	assert.Equal(t, int64(3), ffs.Opens())
	assert.Equal(t, int64(3), ffs.Closes())
}
