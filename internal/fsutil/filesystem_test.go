package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	dir := filepath.Join(t.TempDir(), "a", "b")

	require.NoError(t, fsys.MkdirAll(dir, 0o755))
	assert.True(t, fsys.Exists(dir))

	name := filepath.Join(dir, "out.txt")
	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	f, err := fsys.Open(name)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	assert.False(t, fsys.Exists(filepath.Join(dir, "missing")))
}

func TestMemoryFileSystemCreateVisibleOnClose(t *testing.T) {
	mfs := NewMemoryFileSystem()

	w, err := mfs.Create("/out/plot.png")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	data, err := mfs.ReadFile("/out/plot.png")
	require.NoError(t, err)
	assert.Empty(t, data, "truncated until closed")

	require.NoError(t, w.Close())
	data, err = mfs.ReadFile("/out/plot.png")
	require.NoError(t, err)
	assert.Equal(t, "partial", string(data))
}

func TestMemoryFileSystemOpen(t *testing.T) {
	mfs := NewMemoryFileSystem()
	mfs.WriteFile("/traces/a.txt", []byte("begin\nend\n"))

	f, err := mfs.Open("/traces/../traces/a.txt")
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, "a.txt", info.Name())
	assert.Equal(t, int64(10), info.Size())

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "begin\nend\n", string(data))
	require.NoError(t, f.Close())

	_, err = mfs.Open("/traces/missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = mfs.ReadFile("/traces/missing.txt")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestMemoryFileSystemDirsAndFiles(t *testing.T) {
	mfs := NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/plots/run1", 0o755))
	assert.True(t, mfs.Exists("/plots"))
	assert.True(t, mfs.Exists("/plots/run1"))

	mfs.WriteFile("/plots/run1/b.png", nil)
	mfs.WriteFile("/plots/run1/a.png", nil)
	mfs.WriteFile("/other/c.png", nil)
	assert.Equal(t, []string{"/plots/run1/a.png", "/plots/run1/b.png"}, mfs.Files("/plots"))
}
