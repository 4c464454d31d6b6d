package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastore/apkstore/pkg/apkstore"
	"github.com/alphastore/apkstore/pkg/apkstore/storage/memory"
)

func TestUploadDownloadDelete(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "key-1", strings.NewReader("payload")))

	rc, err := backend.Download(ctx, "key-1")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "payload", string(data))

	require.NoError(t, backend.Delete(ctx, "key-1"))

	_, err = backend.Download(ctx, "key-1")
	assert.Error(t, err)
	assert.Error(t, backend.Delete(ctx, "key-1"))
}

func TestUploadWithParamsRecordsMimeType(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader("apk bytes"), apkstore.UploadParams{
		ObjectKey: "key-1",
		MimeType:  "application/vnd.android.package-archive",
	})
	require.NoError(t, err)

	meta, err := backend.GetObjectMeta(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.android.package-archive", meta.ContentType)
	assert.Equal(t, int64(9), meta.Size)
	assert.False(t, meta.UpdatedAt.IsZero())
}

func TestURLsUnsupported(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	_, err := backend.GetDownloadURL(ctx, "key", "file.apk")
	assert.Error(t, err)
	_, err = backend.GetPreviewURL(ctx, "key")
	assert.Error(t, err)
}

func TestListKeys(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	for _, key := range []string{"b-key", "a-key", "prefix-key"} {
		require.NoError(t, backend.Upload(ctx, key, strings.NewReader("x")))
	}

	keys, err := backend.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a-key", "b-key", "prefix-key"}, keys)

	keys, err = backend.ListKeys(ctx, "prefix-")
	require.NoError(t, err)
	assert.Equal(t, []string{"prefix-key"}, keys)
}
