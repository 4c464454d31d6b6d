package apkstore

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends
type BlobStore interface {
	// Upload uploads a blob directly
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads a blob with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download downloads a blob directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Delete deletes a blob
	Delete(ctx context.Context, objectKey string) error

	// GetDownloadURL returns a URL for downloading a blob
	GetDownloadURL(ctx context.Context, objectKey string, downloadFilename string) (string, error)

	// GetPreviewURL returns a URL for previewing a blob inline
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)

	// GetObjectMeta retrieves metadata for a stored blob
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)

	// ListKeys returns every stored key under the given prefix. The orphan
	// reconciliation sweep depends on this to diff storage against the catalog.
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}

// Catalog defines the interface for apk record persistence
type Catalog interface {
	// CreateApk inserts a record. It returns ErrSlugConflict when the slug
	// uniqueness backstop fires.
	CreateApk(ctx context.Context, apk *Apk) error

	// GetApkByID returns a live record by id, or ErrApkNotFound.
	GetApkByID(ctx context.Context, id uuid.UUID) (*Apk, error)

	// GetApkBySlug returns a live record by slug, or ErrApkNotFound.
	GetApkBySlug(ctx context.Context, slug string) (*Apk, error)

	// ListApks returns all live records ordered by created_at descending,
	// ties broken by id ascending.
	ListApks(ctx context.Context) ([]*Apk, error)

	// DeleteApk removes a record, or returns ErrApkNotFound if absent.
	DeleteApk(ctx context.Context, id uuid.UUID) error
}

// EventSink defines the interface for event handling
type EventSink interface {
	// ApkIngested is fired after a record becomes visible in the catalog
	ApkIngested(ctx context.Context, apk *Apk) error

	// ApkRetired is fired after a record's catalog delete has committed
	ApkRetired(ctx context.Context, apk *Apk) error

	// RetirementIncomplete is fired when a retirement's blob deletes did
	// not all succeed and the listed keys were left behind
	RetirementIncomplete(ctx context.Context, apk *Apk, failedKeys []string) error
}
