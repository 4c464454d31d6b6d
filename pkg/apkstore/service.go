package apkstore

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the apkstore library
type Service interface {
	// Ingest validates the request, stores the artifact and preview blobs,
	// and inserts the catalog record. The record becomes visible to readers
	// only when Ingest returns successfully; on partial failure the already
	// written blobs are deleted best-effort before the error is returned.
	Ingest(ctx context.Context, req IngestRequest) (*Apk, error)

	// Retire removes the record identified by id or slug and then deletes
	// its blobs. An absent record is treated as already retired, so Retire
	// is safe to call repeatedly. Blob delete failures after the catalog
	// delete are logged and reported to the event sink, not returned.
	Retire(ctx context.Context, key string) error

	// Read-side catalog contract
	GetBySlug(ctx context.Context, slug string) (*Apk, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Apk, error)
	List(ctx context.Context) ([]*Apk, error)

	// Storage backend operations
	RegisterBackend(name string, store BlobStore)
	GetBackend(name string) (BlobStore, error)
}
