package apkstore

import "io"

// IngestRequest contains parameters for ingesting a new artifact.
//
// Artifact is required and its declared size must be positive and within
// the service's configured ceiling. Preview is optional; when nil the
// record is created without a preview blob. Sizes are declared up front so
// validation can reject oversized uploads before any blob write.
type IngestRequest struct {
	Name        string
	Description string
	Category    string

	// StorageBackend selects a registered blob store by name. Empty means
	// the service's default backend.
	StorageBackend string

	Artifact            io.Reader
	ArtifactFilename    string
	ArtifactContentType string
	ArtifactSize        int64

	Preview            io.Reader
	PreviewFilename    string
	PreviewContentType string
	PreviewSize        int64
}
