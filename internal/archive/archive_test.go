package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	name, body string
}

func writeTarGz(t *testing.T, path string, entries []entry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)
	for _, e := range entries {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Mode:     0644,
			Size:     int64(len(e.body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
}

func writeZip(t *testing.T, path string, entries []entry) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestExtractTarGz(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "team-pack.tar.gz")
	writeTarGz(t, src, []entry{
		{"pack/catalog.yaml", "integrations: []\n"},
		{"pack/extra/more.yaml", "integrations: []\n"},
	})

	dest := filepath.Join(dir, "out")
	files, err := Extract(src, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dest, "pack", "catalog.yaml"),
		filepath.Join(dest, "pack", "extra", "more.yaml"),
	}, files)

	data, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "integrations: []\n", string(data))
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "pack.zip")
	writeZip(t, src, []entry{{"catalog.yml", "integrations: []\n"}})

	files, err := Extract(src, filepath.Join(dir, "out"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "catalog.yml", filepath.Base(files[0]))
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "evil.zip")
	writeZip(t, src, []entry{{"../escape.yaml", "x"}})

	_, err := Extract(src, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrUnsafePath)
	assert.NoFileExists(t, filepath.Join(dir, "escape.yaml"))
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract("pack.rar", t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNames(t *testing.T) {
	assert.True(t, IsArchive("/tmp/pack.tar.xz"))
	assert.True(t, IsArchive("pack.7z"))
	assert.False(t, IsArchive("catalog.yaml"))
	assert.Equal(t, "team-pack", Name("/x/team-pack.tar.bz2"))
	assert.Equal(t, "Pack", Name("Pack.ZIP"))
}
