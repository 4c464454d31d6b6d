package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alphastore/apkstore/pkg/apkstore"
)

// Backend is an in-memory implementation of the apkstore.BlobStore
// interface, intended for tests.
type Backend struct {
	mu        sync.RWMutex
	blobs     map[string][]byte
	mimeTypes map[string]string
	storedAt  map[string]time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		blobs:     make(map[string][]byte),
		mimeTypes: make(map[string]string),
		storedAt:  make(map[string]time.Time),
	}
}

// Upload uploads a blob directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.blobs[objectKey] = data
	b.storedAt[objectKey] = time.Now().UTC()
	if _, exists := b.mimeTypes[objectKey]; !exists {
		b.mimeTypes[objectKey] = "application/octet-stream"
	}
	return nil
}

// UploadWithParams uploads a blob with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params apkstore.UploadParams) error {
	if err := b.Upload(ctx, params.ObjectKey, reader); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if params.MimeType != "" {
		b.mimeTypes[params.ObjectKey] = params.MimeType
	}
	return nil
}

// Download downloads a blob directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Delete deletes a blob
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.blobs[objectKey]; !exists {
		return errors.New("object not found")
	}

	delete(b.blobs, objectKey)
	delete(b.mimeTypes, objectKey)
	delete(b.storedAt, objectKey)
	return nil
}

// GetDownloadURL returns a URL for downloading a blob.
// The in-memory implementation doesn't use URLs.
func (b *Backend) GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error) {
	return "", errors.New("direct download required for memory backend")
}

// GetPreviewURL returns a URL for previewing a blob.
// The in-memory implementation doesn't use URLs.
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	return "", errors.New("direct preview required for memory backend")
}

// GetObjectMeta retrieves metadata for a blob in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*apkstore.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.blobs[objectKey]
	if !exists {
		return nil, errors.New("object not found")
	}

	mimeType := b.mimeTypes[objectKey]
	meta := &apkstore.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: mimeType,
		UpdatedAt:   b.storedAt[objectKey],
		Metadata:    map[string]string{"mime_type": mimeType},
	}

	return meta, nil
}

// ListKeys returns every stored key under the given prefix
func (b *Backend) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var keys []string
	for key := range b.blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
