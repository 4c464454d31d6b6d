package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastore/apkstore/pkg/apkstore"
	"github.com/alphastore/apkstore/pkg/apkstore/repo/memory"
)

func newApk(name, slug string, createdAt time.Time) *apkstore.Apk {
	return &apkstore.Apk{
		ID:             uuid.New(),
		Name:           name,
		Slug:           slug,
		StorageBackend: "memory",
		ArtifactKey:    "key-" + slug,
		CreatedAt:      createdAt,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	apk := newApk("Demo App", "demo-app-1", time.Now().UTC())
	require.NoError(t, repo.CreateApk(ctx, apk))

	byID, err := repo.GetApkByID(ctx, apk.ID)
	require.NoError(t, err)
	assert.Equal(t, apk.Slug, byID.Slug)

	bySlug, err := repo.GetApkBySlug(ctx, apk.Slug)
	require.NoError(t, err)
	assert.Equal(t, apk.ID, bySlug.ID)
}

func TestGetMissing(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	_, err := repo.GetApkByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apkstore.ErrApkNotFound)

	_, err = repo.GetApkBySlug(ctx, "nope")
	assert.ErrorIs(t, err, apkstore.ErrApkNotFound)
}

func TestSlugConflict(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	require.NoError(t, repo.CreateApk(ctx, newApk("A", "same-slug", time.Now())))

	err := repo.CreateApk(ctx, newApk("B", "same-slug", time.Now()))
	assert.ErrorIs(t, err, apkstore.ErrSlugConflict)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	apk := newApk("Demo App", "demo-app-1", time.Now())
	require.NoError(t, repo.CreateApk(ctx, apk))

	got, err := repo.GetApkBySlug(ctx, apk.Slug)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := repo.GetApkBySlug(ctx, apk.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Demo App", again.Name)
}

func TestListOrdering(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	oldest := newApk("Oldest", "oldest-1", base)
	middle := newApk("Middle", "middle-1", base.Add(time.Minute))
	newest := newApk("Newest", "newest-1", base.Add(2*time.Minute))

	for _, apk := range []*apkstore.Apk{middle, newest, oldest} {
		require.NoError(t, repo.CreateApk(ctx, apk))
	}

	apks, err := repo.ListApks(ctx)
	require.NoError(t, err)
	require.Len(t, apks, 3)
	assert.Equal(t, "Newest", apks[0].Name)
	assert.Equal(t, "Middle", apks[1].Name)
	assert.Equal(t, "Oldest", apks[2].Name)
}

func TestListOrderingTieBreak(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	a := newApk("A", "a-1", at)
	b := newApk("B", "b-1", at)
	require.NoError(t, repo.CreateApk(ctx, a))
	require.NoError(t, repo.CreateApk(ctx, b))

	apks, err := repo.ListApks(ctx)
	require.NoError(t, err)
	require.Len(t, apks, 2)

	// Equal timestamps fall back to id ordering, so repeated listings are stable.
	again, err := repo.ListApks(ctx)
	require.NoError(t, err)
	assert.Equal(t, apks[0].ID, again[0].ID)
	assert.Equal(t, apks[1].ID, again[1].ID)
	assert.True(t, apks[0].ID.String() < apks[1].ID.String())
}

func TestDeleteApk(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	apk := newApk("Demo App", "demo-app-1", time.Now())
	require.NoError(t, repo.CreateApk(ctx, apk))
	require.NoError(t, repo.DeleteApk(ctx, apk.ID))

	_, err := repo.GetApkBySlug(ctx, apk.Slug)
	assert.ErrorIs(t, err, apkstore.ErrApkNotFound)

	// Slug is freed for reuse after delete.
	require.NoError(t, repo.CreateApk(ctx, newApk("Demo App", "demo-app-1", time.Now())))

	assert.ErrorIs(t, repo.DeleteApk(ctx, apk.ID), apkstore.ErrApkNotFound)
}
