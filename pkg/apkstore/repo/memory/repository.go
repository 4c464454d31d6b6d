package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/alphastore/apkstore/pkg/apkstore"
)

// Repository implements apkstore.Catalog using in-memory storage. State is
// lost on restart and is not shared across instances, which makes it
// suitable for tests and single-process development only.
type Repository struct {
	mu     sync.RWMutex
	apks   map[uuid.UUID]*apkstore.Apk
	bySlug map[string]uuid.UUID
}

// New creates a new in-memory catalog
func New() *Repository {
	return &Repository{
		apks:   make(map[uuid.UUID]*apkstore.Apk),
		bySlug: make(map[string]uuid.UUID),
	}
}

func (r *Repository) CreateApk(ctx context.Context, apk *apkstore.Apk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Slug uniqueness backstop
	if _, exists := r.bySlug[apk.Slug]; exists {
		return apkstore.ErrSlugConflict
	}

	// Store a copy to avoid external modifications
	apkCopy := *apk
	r.apks[apk.ID] = &apkCopy
	r.bySlug[apk.Slug] = apk.ID

	return nil
}

func (r *Repository) GetApkByID(ctx context.Context, id uuid.UUID) (*apkstore.Apk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	apk, exists := r.apks[id]
	if !exists {
		return nil, apkstore.ErrApkNotFound
	}

	apkCopy := *apk
	return &apkCopy, nil
}

func (r *Repository) GetApkBySlug(ctx context.Context, slug string) (*apkstore.Apk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.bySlug[slug]
	if !exists {
		return nil, apkstore.ErrApkNotFound
	}

	apkCopy := *r.apks[id]
	return &apkCopy, nil
}

func (r *Repository) ListApks(ctx context.Context) ([]*apkstore.Apk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*apkstore.Apk, 0, len(r.apks))
	for _, apk := range r.apks {
		apkCopy := *apk
		result = append(result, &apkCopy)
	}

	// created_at descending, ties broken by id ascending
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return bytes.Compare(result[i].ID[:], result[j].ID[:]) < 0
	})

	return result, nil
}

func (r *Repository) DeleteApk(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	apk, exists := r.apks[id]
	if !exists {
		return apkstore.ErrApkNotFound
	}

	delete(r.bySlug, apk.Slug)
	delete(r.apks, id)
	return nil
}
