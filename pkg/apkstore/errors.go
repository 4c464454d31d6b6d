package apkstore

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrApkNotFound indicates no live record matches the given id or slug
	ErrApkNotFound = errors.New("apk not found")

	// ErrInvalidName indicates a display name that is empty or normalizes to nothing
	ErrInvalidName = errors.New("invalid name")

	// ErrSlugConflict indicates the catalog's slug uniqueness backstop fired
	ErrSlugConflict = errors.New("slug already exists")

	// ErrStorageBackendNotFound indicates a storage backend was not registered
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrEmptyArtifact indicates a missing or zero-length artifact payload
	ErrEmptyArtifact = errors.New("artifact payload is empty")

	// ErrArtifactTooLarge indicates the artifact exceeds the configured ceiling
	ErrArtifactTooLarge = errors.New("artifact exceeds maximum size")

	// ErrContentTypeNotAllowed indicates the artifact MIME type failed the allow-list
	ErrContentTypeNotAllowed = errors.New("artifact content type not allowed")
)

// ValidationError represents rejected input. It is always returned before
// any blob or catalog write happens.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError represents a blob backend failure during an operation.
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// CatalogError represents a metadata store failure during an operation.
type CatalogError struct {
	Op   string
	Slug string
	Err  error
}

func (e *CatalogError) Error() string {
	if e.Slug == "" {
		return fmt.Sprintf("catalog operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("catalog operation %s failed for slug %s: %v", e.Op, e.Slug, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// PartialRetirementError records a retirement whose catalog delete committed
// but whose blob deletes did not all succeed. The catalog is the source of
// truth for existence, so this is logged and reported to event sinks rather
// than returned to callers.
type PartialRetirementError struct {
	Slug       string
	FailedKeys []string
	Errs       []error
}

func (e *PartialRetirementError) Error() string {
	return fmt.Sprintf("retirement of %s left %d blob(s) behind: %s",
		e.Slug, len(e.FailedKeys), strings.Join(e.FailedKeys, ", "))
}

func (e *PartialRetirementError) Unwrap() []error {
	return e.Errs
}
