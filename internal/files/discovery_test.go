package files

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickviewer/internal/shared/testutil"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestDiscovery_DateDirs(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	d := NewDiscovery(logger)
	root := t.TempDir()

	for _, name := range []string{"20240103", "20240102", "2024010", "abcdefgh", "202401021", "20231229"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, name), 0755))
	}
	touch(t, filepath.Join(root, "20240104"))

	dates, err := d.DateDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"20231229", "20240102", "20240103"}, dates)
}

func TestDiscovery_DateDirsMissingRoot(t *testing.T) {
	d := NewDiscovery(nil)

	_, err := d.DateDirs(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestDiscovery_ParquetFiles(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	d := NewDiscovery(logger)
	dir := t.TempDir()

	for _, name := range []string{"ZZZ.parquet", "ACME.parquet", "notes.txt", "UPPER.PARQUET", ".hidden.parquet", ".parquet"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dir.parquet"), 0755))

	files, err := d.ParquetFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, []string{"ACME", "ZZZ"}, Stems(files))
	assert.Equal(t, filepath.Join(dir, "ACME.parquet"), files[0].Path)
	assert.Equal(t, int64(1), files[0].Size)
	assert.False(t, files[0].ModTime.IsZero())
}

func TestDiscovery_Documents(t *testing.T) {
	d := NewDiscovery(nil)
	dir := t.TempDir()

	for _, name := range []string{"BBB.json", "AAA.json", "summary.csv", "summary.xlsx", ".AAA.json.123.tmp"} {
		touch(t, filepath.Join(dir, name))
	}

	files, err := d.Documents(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAA", "BBB"}, Stems(files))

	_, err = d.Documents(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSortDescending(t *testing.T) {
	dates := []string{"20240102", "20240105", "20231231"}
	SortDescending(dates)
	assert.Equal(t, []string{"20240105", "20240102", "20231231"}, dates)
}
