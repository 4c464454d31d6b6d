package apkstore

import (
	"time"

	"github.com/google/uuid"
)

// Apk is a catalog entry referencing a stored artifact and, optionally, a
// preview image. Blob references are written once at ingestion and never
// replaced in place; updates are modeled as retire-then-ingest.
type Apk struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	Category    string    `json:"category,omitempty" db:"category"`

	StorageBackend      string `json:"storage_backend" db:"storage_backend"`
	ArtifactKey         string `json:"artifact_key" db:"artifact_key"`
	ArtifactName        string `json:"artifact_name,omitempty" db:"artifact_name"`
	ArtifactSize        int64  `json:"artifact_size,omitempty" db:"artifact_size"`
	ArtifactContentType string `json:"artifact_content_type,omitempty" db:"artifact_content_type"`
	PreviewKey          string `json:"preview_key,omitempty" db:"preview_key"`
	PreviewName         string `json:"preview_name,omitempty" db:"preview_name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Computed fields (not persisted - populated by the service layer)
	ArtifactURL string `json:"apk_url,omitempty" db:"-"`
	PreviewURL  string `json:"image_url,omitempty" db:"-"`
}

// HasPreview reports whether a preview blob was stored for this record.
func (a *Apk) HasPreview() bool {
	return a.PreviewKey != ""
}

// BlobKeys returns every storage key the record references.
func (a *Apk) BlobKeys() []string {
	keys := []string{a.ArtifactKey}
	if a.PreviewKey != "" {
		keys = append(keys, a.PreviewKey)
	}
	return keys
}

// ObjectMeta contains metadata about a blob as reported by its store.
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading a blob.
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
