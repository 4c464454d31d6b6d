package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alphastore/apkstore/pkg/apkstore"
)

// adminService implements the Service interface
type adminService struct {
	catalog  apkstore.Catalog
	backends map[string]apkstore.BlobStore
	logger   *slog.Logger
	clock    func() time.Time
}

// Ensure adminService implements Service
var _ Service = (*adminService)(nil)

// Option represents a functional option for configuring the admin service
type Option func(*adminService)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *adminService) {
		s.logger = logger
	}
}

// WithClock overrides the time source, used in tests
func WithClock(clock func() time.Time) Option {
	return func(s *adminService) {
		s.clock = clock
	}
}

// New creates a reconciliation service over the given catalog and blob
// stores. The backends map should cover every backend the catalog's
// records reference.
func New(catalog apkstore.Catalog, backends map[string]apkstore.BlobStore, options ...Option) Service {
	s := &adminService{
		catalog:  catalog,
		backends: backends,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *adminService) FindOrphans(ctx context.Context, req FindOrphansRequest) (*FindOrphansResponse, error) {
	referenced, err := s.referencedKeys(ctx)
	if err != nil {
		return nil, err
	}

	resp := &FindOrphansResponse{
		Orphans:   []Orphan{},
		CheckedAt: s.clock().UTC(),
	}

	for name, store := range s.backends {
		if req.Backend != "" && req.Backend != name {
			continue
		}

		keys, err := store.ListKeys(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to list keys on backend %s: %w", name, err)
		}

		for _, key := range keys {
			if referenced[name][key] {
				continue
			}
			orphan := Orphan{Backend: name, Key: key}
			if meta, err := store.GetObjectMeta(ctx, key); err == nil {
				orphan.Size = meta.Size
				orphan.StoredAt = meta.UpdatedAt
			}
			resp.Orphans = append(resp.Orphans, orphan)
		}
	}

	return resp, nil
}

func (s *adminService) SweepOrphans(ctx context.Context, req SweepOrphansRequest) (*SweepOrphansResponse, error) {
	grace := req.GracePeriod
	if grace == 0 {
		grace = DefaultGracePeriod
	}

	found, err := s.FindOrphans(ctx, FindOrphansRequest{Backend: req.Backend})
	if err != nil {
		return nil, err
	}

	resp := &SweepOrphansResponse{
		Removed: []Orphan{},
		Skipped: []Orphan{},
		Failed:  []Orphan{},
		DryRun:  req.DryRun,
	}
	cutoff := s.clock().UTC().Add(-grace)

	for _, orphan := range found.Orphans {
		// An orphan with an unknown age could be an ingestion in flight;
		// only blobs verifiably older than the grace period are removed.
		if orphan.StoredAt.IsZero() || orphan.StoredAt.After(cutoff) {
			resp.Skipped = append(resp.Skipped, orphan)
			continue
		}

		if req.DryRun {
			resp.Removed = append(resp.Removed, orphan)
			continue
		}

		store := s.backends[orphan.Backend]
		if err := store.Delete(ctx, orphan.Key); err != nil {
			s.logger.Warn("orphan sweep delete failed",
				"backend", orphan.Backend, "key", orphan.Key, "error", err)
			resp.Failed = append(resp.Failed, orphan)
			continue
		}
		s.logger.Info("orphaned blob removed", "backend", orphan.Backend, "key", orphan.Key)
		resp.Removed = append(resp.Removed, orphan)
	}

	return resp, nil
}

// referencedKeys collects every blob key the live catalog references,
// grouped by backend name.
func (s *adminService) referencedKeys(ctx context.Context) (map[string]map[string]bool, error) {
	apks, err := s.catalog.ListApks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog: %w", err)
	}

	referenced := make(map[string]map[string]bool)
	for _, apk := range apks {
		keys := referenced[apk.StorageBackend]
		if keys == nil {
			keys = make(map[string]bool)
			referenced[apk.StorageBackend] = keys
		}
		for _, key := range apk.BlobKeys() {
			keys[key] = true
		}
	}

	return referenced, nil
}
