package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastore/apkstore/pkg/apkstore"
	fsstorage "github.com/alphastore/apkstore/pkg/apkstore/storage/fs"
)

func newBackend(t *testing.T) (*fsstorage.Backend, string) {
	dir := t.TempDir()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: dir})
	require.NoError(t, err)
	return backend, dir
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fsstorage.New(fsstorage.Config{})
	assert.Error(t, err)
}

func TestUploadDownloadDelete(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	err := backend.Upload(ctx, "1700-abc-app.apk", strings.NewReader("payload"))
	require.NoError(t, err)

	rc, err := backend.Download(ctx, "1700-abc-app.apk")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "payload", string(data))

	require.NoError(t, backend.Delete(ctx, "1700-abc-app.apk"))

	_, err = backend.Download(ctx, "1700-abc-app.apk")
	assert.Error(t, err)
	assert.Error(t, backend.Delete(ctx, "1700-abc-app.apk"))
}

func TestNestedKeysAndDirectoryCleanup(t *testing.T) {
	backend, dir := newBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "a/b/c.apk", strings.NewReader("x")))

	_, err := os.Stat(filepath.Join(dir, "a", "b", "c.apk"))
	require.NoError(t, err)

	require.NoError(t, backend.Delete(ctx, "a/b/c.apk"))

	// Empty parent directories are removed, the base directory stays.
	_, err = os.Stat(filepath.Join(dir, "a"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.NoError(t, err)
}

func TestGetObjectMeta(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.UploadWithParams(ctx, strings.NewReader("<html></html>"), apkstore.UploadParams{
		ObjectKey: "page.html",
	}))

	meta, err := backend.GetObjectMeta(ctx, "page.html")
	require.NoError(t, err)
	assert.Equal(t, "page.html", meta.Key)
	assert.Equal(t, int64(13), meta.Size)
	assert.Contains(t, meta.ContentType, "text/html")

	_, err = backend.GetObjectMeta(ctx, "missing")
	assert.Error(t, err)
}

func TestListKeys(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	for _, key := range []string{"100-a.apk", "200-b.apk", "nested/300-c.apk"} {
		require.NoError(t, backend.Upload(ctx, key, strings.NewReader("x")))
	}

	keys, err := backend.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"100-a.apk", "200-b.apk", "nested/300-c.apk"}, keys)

	keys, err = backend.ListKeys(ctx, "nested/")
	require.NoError(t, err)
	assert.Equal(t, []string{"nested/300-c.apk"}, keys)
}

func TestURLsRequirePrefix(t *testing.T) {
	backend, _ := newBackend(t)
	ctx := context.Background()

	_, err := backend.GetDownloadURL(ctx, "key", "file.apk")
	assert.Error(t, err)
	_, err = backend.GetPreviewURL(ctx, "key")
	assert.Error(t, err)
}

func TestURLsWithPrefix(t *testing.T) {
	dir := t.TempDir()
	backend, err := fsstorage.New(fsstorage.Config{BaseDir: dir, URLPrefix: "http://localhost:8080/files/"})
	require.NoError(t, err)
	ctx := context.Background()

	url, err := backend.GetDownloadURL(ctx, "100-a.apk", "my app.apk")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/download/100-a.apk?filename=my+app.apk", url)

	url, err = backend.GetPreviewURL(ctx, "100-a.apk")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/preview/100-a.apk", url)
}
