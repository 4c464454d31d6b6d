// Package admin provides the out-of-band orphan reconciliation sweep: a
// process crash between a blob write and the catalog insert, or a failed
// best-effort cleanup, can leave blobs no catalog record references. The
// sweep diffs blob-store contents against catalog references and removes
// what nothing points at.
package admin

import "context"

// Service defines administrative reconciliation operations over the
// catalog and its blob stores
type Service interface {
	// FindOrphans lists blobs that no live catalog record references
	FindOrphans(ctx context.Context, req FindOrphansRequest) (*FindOrphansResponse, error)

	// SweepOrphans deletes orphaned blobs older than the request's grace
	// period. Blobs younger than the grace period are skipped so in-flight
	// ingestions (blobs written, catalog insert pending) are never swept.
	SweepOrphans(ctx context.Context, req SweepOrphansRequest) (*SweepOrphansResponse, error)
}
