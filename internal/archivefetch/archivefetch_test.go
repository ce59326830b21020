package archivefetch

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func buildTarXz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	return xzBuf.Bytes()
}

func TestFetchExtractsLocalTarXz(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.tar.xz")
	require.NoError(t, os.WriteFile(archivePath, buildTarXz(t, map[string]string{
		"readme.txt":    "hello",
		"sub/nested.cfg": "value=1",
	}), 0o644))

	destDir := filepath.Join(dir, "out")
	require.NoError(t, Fetch(context.Background(), archivePath, destDir))

	readme, err := os.ReadFile(filepath.Join(destDir, "readme.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(readme))

	nested, err := os.ReadFile(filepath.Join(destDir, "sub", "nested.cfg"))
	require.NoError(t, err)
	require.Equal(t, "value=1", string(nested))
}

func TestFetchExtractsRemoteTarXzOverHttp(t *testing.T) {
	payload := buildTarXz(t, map[string]string{"marker.txt": "fetched"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	destDir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, Fetch(context.Background(), server.URL+"/bundle.tar.xz", destDir))

	marker, err := os.ReadFile(filepath.Join(destDir, "marker.txt"))
	require.NoError(t, err)
	require.Equal(t, "fetched", string(marker))
}

func TestFetchExtractsZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.zip")

	zipFile, err := os.Create(archivePath)
	require.NoError(t, err)
	zw := zip.NewWriter(zipFile)
	entry, err := zw.Create("data/file.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("zipped"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, zipFile.Close())

	destDir := filepath.Join(dir, "out")
	require.NoError(t, Fetch(context.Background(), archivePath, destDir))

	content, err := os.ReadFile(filepath.Join(destDir, "data", "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "zipped", string(content))
}

func TestFetchRejectsUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "bundle.rar")
	require.NoError(t, os.WriteFile(archivePath, []byte("not a real archive"), 0o644))

	err := Fetch(context.Background(), archivePath, filepath.Join(dir, "out"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFetchReturnsErrorOnHttpFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	err := Fetch(context.Background(), server.URL+"/missing.tar.xz", t.TempDir())
	require.Error(t, err)
}
