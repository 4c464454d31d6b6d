package apkstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alphastore/apkstore/pkg/apkstore/objectkey"
)

// service implements the Service interface
type service struct {
	catalog        Catalog
	blobStores     map[string]BlobStore
	defaultBackend string
	eventSink      EventSink
	keys           objectkey.Generator
	logger         *slog.Logger
	clock          func() time.Time

	maxArtifactSize int64
	allowedTypes    []string
}

// DefaultMaxArtifactSize is the artifact size ceiling applied when no
// explicit limit is configured (200 MiB).
const DefaultMaxArtifactSize int64 = 200 << 20

// Option represents a functional option for configuring the service
type Option func(*service)

// WithCatalog sets the catalog store for the service
func WithCatalog(catalog Catalog) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithBlobStore adds a blob storage backend. The first registered backend
// becomes the default unless WithDefaultBackend overrides it.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects which registered backend ingestion uses when
// the request does not name one.
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithObjectKeyGenerator sets the storage key generation strategy
func WithObjectKeyGenerator(g objectkey.Generator) Option {
	return func(s *service) {
		s.keys = g
	}
}

// WithLogger sets the structured logger used for rollback and partial
// retirement reporting
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithMaxArtifactSize sets the artifact size ceiling in bytes
func WithMaxArtifactSize(limit int64) Option {
	return func(s *service) {
		s.maxArtifactSize = limit
	}
}

// WithAllowedArtifactTypes restricts artifact MIME types to the given
// allow-list. An empty list disables the check.
func WithAllowedArtifactTypes(types []string) Option {
	return func(s *service) {
		s.allowedTypes = types
	}
}

// WithClock overrides the time source, used for deterministic slugs and
// storage keys in tests
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores:      make(map[string]BlobStore),
		keys:            objectkey.NewTimestampGenerator(),
		logger:          slog.Default(),
		clock:           time.Now,
		maxArtifactSize: DefaultMaxArtifactSize,
	}

	for _, option := range options {
		option(s)
	}

	if s.catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}

	return s, nil
}

// Ingestion coordinator

func (s *service) Ingest(ctx context.Context, req IngestRequest) (*Apk, error) {
	if err := s.validateIngest(req); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	slug, err := MakeSlug(req.Name, now)
	if err != nil {
		return nil, &ValidationError{Field: "name", Err: err}
	}

	backendName := req.StorageBackend
	if backendName == "" {
		backendName = s.defaultBackend
	}
	store, err := s.GetBackend(backendName)
	if err != nil {
		return nil, err
	}

	// Blob writes strictly precede the catalog insert: a catalog row that
	// points at a missing blob breaks every reader, while an orphaned blob
	// is only storage waiting for the reconciliation sweep.
	artifactKey := s.keys.GenerateKey(req.ArtifactFilename, now)
	if err := store.UploadWithParams(ctx, req.Artifact, UploadParams{
		ObjectKey: artifactKey,
		MimeType:  req.ArtifactContentType,
	}); err != nil {
		return nil, &StorageError{Backend: backendName, Key: artifactKey, Op: "upload_artifact", Err: err}
	}

	var previewKey string
	if req.Preview != nil {
		previewKey = s.keys.GenerateKey(req.PreviewFilename, now)
		if err := store.UploadWithParams(ctx, req.Preview, UploadParams{
			ObjectKey: previewKey,
			MimeType:  req.PreviewContentType,
		}); err != nil {
			s.discardBlob(ctx, store, backendName, artifactKey)
			return nil, &StorageError{Backend: backendName, Key: previewKey, Op: "upload_preview", Err: err}
		}
	}

	apk := &Apk{
		ID:                  uuid.New(),
		Name:                req.Name,
		Slug:                slug,
		Description:         req.Description,
		Category:            req.Category,
		StorageBackend:      backendName,
		ArtifactKey:         artifactKey,
		ArtifactName:        req.ArtifactFilename,
		ArtifactSize:        req.ArtifactSize,
		ArtifactContentType: req.ArtifactContentType,
		PreviewKey:          previewKey,
		PreviewName:         req.PreviewFilename,
		CreatedAt:           now,
	}

	if err := s.catalog.CreateApk(ctx, apk); err != nil {
		s.discardBlob(ctx, store, backendName, artifactKey)
		if previewKey != "" {
			s.discardBlob(ctx, store, backendName, previewKey)
		}
		return nil, &CatalogError{Op: "insert", Slug: slug, Err: err}
	}

	s.resolveURLs(ctx, apk)

	if err := s.eventSink.ApkIngested(ctx, apk); err != nil {
		s.logger.Warn("apk ingested event failed", "slug", apk.Slug, "error", err)
	}

	return apk, nil
}

func (s *service) validateIngest(req IngestRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return &ValidationError{Field: "name", Err: ErrInvalidName}
	}
	if req.Artifact == nil || req.ArtifactSize <= 0 {
		return &ValidationError{Field: "apk_file", Err: ErrEmptyArtifact}
	}
	if req.ArtifactSize > s.maxArtifactSize {
		return &ValidationError{
			Field: "apk_file",
			Err:   fmt.Errorf("%w: %d bytes (limit %d)", ErrArtifactTooLarge, req.ArtifactSize, s.maxArtifactSize),
		}
	}
	if len(s.allowedTypes) > 0 {
		allowed := false
		for _, t := range s.allowedTypes {
			if strings.EqualFold(t, req.ArtifactContentType) {
				allowed = true
				break
			}
		}
		if !allowed {
			return &ValidationError{
				Field: "apk_file",
				Err:   fmt.Errorf("%w: %s", ErrContentTypeNotAllowed, req.ArtifactContentType),
			}
		}
	}
	return nil
}

// discardBlob is the best-effort cleanup used when a later ingestion step
// fails. A failed delete is logged, never escalated: the ingestion has
// already failed and the orphan is the reconciliation sweep's problem.
func (s *service) discardBlob(ctx context.Context, store BlobStore, backend, key string) {
	if err := store.Delete(ctx, key); err != nil {
		s.logger.Warn("orphaned blob could not be cleaned up",
			"backend", backend, "key", key, "error", err)
	}
}

// Retirement coordinator

func (s *service) Retire(ctx context.Context, key string) error {
	apk, err := s.lookup(ctx, key)
	if err != nil {
		if errors.Is(err, ErrApkNotFound) {
			// Already retired; idempotent success.
			return nil
		}
		return &CatalogError{Op: "lookup", Err: err}
	}

	// Catalog delete first: visibility flips off before blobs disappear, so
	// readers are never handed references to blobs mid-deletion.
	if err := s.catalog.DeleteApk(ctx, apk.ID); err != nil {
		if errors.Is(err, ErrApkNotFound) {
			return nil
		}
		return &CatalogError{Op: "delete", Slug: apk.Slug, Err: err}
	}

	s.deleteBlobs(ctx, apk)

	if err := s.eventSink.ApkRetired(ctx, apk); err != nil {
		s.logger.Warn("apk retired event failed", "slug", apk.Slug, "error", err)
	}

	return nil
}

// deleteBlobs removes the record's blobs independently: failure of one must
// not prevent the attempt on the other. The catalog row is already gone and
// cannot be safely reinstated, so failures surface as a partial-retirement
// warning instead of an error to the caller.
func (s *service) deleteBlobs(ctx context.Context, apk *Apk) {
	store, err := s.GetBackend(apk.StorageBackend)
	if err != nil {
		perr := &PartialRetirementError{Slug: apk.Slug, FailedKeys: apk.BlobKeys(), Errs: []error{err}}
		s.reportPartialRetirement(ctx, apk, perr)
		return
	}

	var failed []string
	var errs []error
	for _, key := range apk.BlobKeys() {
		if err := store.Delete(ctx, key); err != nil {
			failed = append(failed, key)
			errs = append(errs, err)
		}
	}
	if len(failed) > 0 {
		perr := &PartialRetirementError{Slug: apk.Slug, FailedKeys: failed, Errs: errs}
		s.reportPartialRetirement(ctx, apk, perr)
	}
}

func (s *service) reportPartialRetirement(ctx context.Context, apk *Apk, perr *PartialRetirementError) {
	s.logger.Warn("retirement incomplete", "slug", apk.Slug, "failed_keys", perr.FailedKeys, "error", perr)
	if err := s.eventSink.RetirementIncomplete(ctx, apk, perr.FailedKeys); err != nil {
		s.logger.Warn("retirement incomplete event failed", "slug", apk.Slug, "error", err)
	}
}

// lookup resolves a retirement key that may be either a record id or a slug.
func (s *service) lookup(ctx context.Context, key string) (*Apk, error) {
	if id, err := uuid.Parse(key); err == nil {
		return s.catalog.GetApkByID(ctx, id)
	}
	return s.catalog.GetApkBySlug(ctx, key)
}

// Catalog reader

func (s *service) GetBySlug(ctx context.Context, slug string) (*Apk, error) {
	apk, err := s.catalog.GetApkBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	s.resolveURLs(ctx, apk)
	return apk, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Apk, error) {
	apk, err := s.catalog.GetApkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveURLs(ctx, apk)
	return apk, nil
}

func (s *service) List(ctx context.Context) ([]*Apk, error) {
	apks, err := s.catalog.ListApks(ctx)
	if err != nil {
		return nil, err
	}
	for _, apk := range apks {
		s.resolveURLs(ctx, apk)
	}
	return apks, nil
}

// resolveURLs populates the computed URL fields from the record's backend.
// Backends without URL support (memory, fs without a prefix) leave the
// fields empty; callers fall back to direct download.
func (s *service) resolveURLs(ctx context.Context, apk *Apk) {
	store, err := s.GetBackend(apk.StorageBackend)
	if err != nil {
		s.logger.Debug("url resolution skipped", "slug", apk.Slug, "backend", apk.StorageBackend, "error", err)
		return
	}

	if url, err := store.GetDownloadURL(ctx, apk.ArtifactKey, apk.ArtifactName); err == nil {
		apk.ArtifactURL = url
	} else {
		s.logger.Debug("artifact url unavailable", "slug", apk.Slug, "error", err)
	}

	if apk.PreviewKey != "" {
		if url, err := store.GetPreviewURL(ctx, apk.PreviewKey); err == nil {
			apk.PreviewURL = url
		} else {
			s.logger.Debug("preview url unavailable", "slug", apk.Slug, "error", err)
		}
	}
}

// Storage backend operations

func (s *service) RegisterBackend(name string, store BlobStore) {
	s.blobStores[name] = store
	if s.defaultBackend == "" {
		s.defaultBackend = name
	}
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	store, exists := s.blobStores[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return store, nil
}
