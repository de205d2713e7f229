package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name string
	body string
	dir  bool
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cifar-10-python.tar.gz")
	writeTarGz(t, src, []entry{
		{name: "cifar-10-batches-py/", dir: true},
		{name: "cifar-10-batches-py/data_batch_1", body: "batch one"},
		{name: "cifar-10-batches-py/batches.meta", body: "meta"},
	})

	dst := filepath.Join(dir, "out")
	require.NoError(t, ExtractTarGz(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "cifar-10-batches-py", "data_batch_1"))
	require.NoError(t, err)
	assert.Equal(t, "batch one", string(got))
	assert.FileExists(t, filepath.Join(dst, "cifar-10-batches-py", "batches.meta"))
}

func TestExtractTarGz_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.tar.gz")
	writeTarGz(t, src, []entry{{name: "../escaped", body: "x"}})

	err := ExtractTarGz(src, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(dir, "escaped"))
}

func TestExtractTarGz_NotGzip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "plain.tar.gz")
	require.NoError(t, os.WriteFile(src, []byte("not gzip"), 0o644))

	assert.Error(t, ExtractTarGz(src, t.TempDir()))
}

func TestGunzip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "train-labels-idx1-ubyte.gz")

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte{0, 0, 8, 1, 0, 0, 0, 0})
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(src, buf.Bytes(), 0o644))

	dst := filepath.Join(dir, "train-labels-idx1-ubyte")
	require.NoError(t, Gunzip(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 8, 1, 0, 0, 0, 0}, got)
	assert.NoFileExists(t, dst+".partial")
}

func TestGunzip_MissingSource(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Gunzip(filepath.Join(dir, "missing.gz"), filepath.Join(dir, "out")))
}
