package admin_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphastore/apkstore/pkg/apkstore"
	"github.com/alphastore/apkstore/pkg/apkstore/admin"
	repomemory "github.com/alphastore/apkstore/pkg/apkstore/repo/memory"
	memorystorage "github.com/alphastore/apkstore/pkg/apkstore/storage/memory"
)

type fixture struct {
	catalog *repomemory.Repository
	store   *memorystorage.Backend
	svc     admin.Service
	now     time.Time
}

func setup(t *testing.T) *fixture {
	f := &fixture{
		catalog: repomemory.New(),
		store:   memorystorage.New(),
		// Blobs are stamped with time.Now at upload; an hour ahead makes
		// every blob older than the default grace period.
		now: time.Now().UTC().Add(2 * time.Hour),
	}
	f.svc = admin.New(
		f.catalog,
		map[string]apkstore.BlobStore{"memory": f.store},
		admin.WithClock(func() time.Time { return f.now }),
	)
	return f
}

// addRecord stores blobs and a catalog record referencing them.
func (f *fixture) addRecord(t *testing.T, slug string, withPreview bool) *apkstore.Apk {
	ctx := context.Background()

	apk := &apkstore.Apk{
		ID:             uuid.New(),
		Name:           slug,
		Slug:           slug,
		StorageBackend: "memory",
		ArtifactKey:    slug + "-artifact",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, f.store.Upload(ctx, apk.ArtifactKey, strings.NewReader("apk")))
	if withPreview {
		apk.PreviewKey = slug + "-preview"
		require.NoError(t, f.store.Upload(ctx, apk.PreviewKey, strings.NewReader("png")))
	}
	require.NoError(t, f.catalog.CreateApk(ctx, apk))
	return apk
}

// addOrphan stores a blob nothing references.
func (f *fixture) addOrphan(t *testing.T, key string) {
	require.NoError(t, f.store.Upload(context.Background(), key, strings.NewReader("stray")))
}

func TestFindOrphans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addRecord(t, "live-app", true)
	f.addOrphan(t, "stray-1")
	f.addOrphan(t, "stray-2")

	resp, err := f.svc.FindOrphans(ctx, admin.FindOrphansRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Orphans, 2)

	keys := []string{resp.Orphans[0].Key, resp.Orphans[1].Key}
	assert.ElementsMatch(t, []string{"stray-1", "stray-2"}, keys)
	for _, orphan := range resp.Orphans {
		assert.Equal(t, "memory", orphan.Backend)
		assert.False(t, orphan.StoredAt.IsZero())
	}
}

func TestFindOrphansNoneWhenAllReferenced(t *testing.T) {
	f := setup(t)

	f.addRecord(t, "app-one", true)
	f.addRecord(t, "app-two", false)

	resp, err := f.svc.FindOrphans(context.Background(), admin.FindOrphansRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Orphans)
}

func TestFindOrphansUnknownBackendScopesToNothing(t *testing.T) {
	f := setup(t)
	f.addOrphan(t, "stray-1")

	resp, err := f.svc.FindOrphans(context.Background(), admin.FindOrphansRequest{Backend: "s3"})
	require.NoError(t, err)
	assert.Empty(t, resp.Orphans)
}

func TestSweepOrphansRemovesOldOrphans(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	live := f.addRecord(t, "live-app", false)
	f.addOrphan(t, "stray-1")

	resp, err := f.svc.SweepOrphans(ctx, admin.SweepOrphansRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Removed, 1)
	assert.Equal(t, "stray-1", resp.Removed[0].Key)
	assert.Empty(t, resp.Failed)

	// The orphan is gone, the referenced blob stays.
	keys, err := f.store.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{live.ArtifactKey}, keys)
}

func TestSweepOrphansSkipsYoungBlobs(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addOrphan(t, "fresh-stray")
	// Clock pinned to upload time: the orphan is inside the grace period.
	f.now = time.Now().UTC()

	resp, err := f.svc.SweepOrphans(ctx, admin.SweepOrphansRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Removed)
	require.Len(t, resp.Skipped, 1)
	assert.Equal(t, "fresh-stray", resp.Skipped[0].Key)

	keys, err := f.store.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-stray"}, keys)
}

func TestSweepOrphansDryRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addOrphan(t, "stray-1")

	resp, err := f.svc.SweepOrphans(ctx, admin.SweepOrphansRequest{DryRun: true})
	require.NoError(t, err)
	assert.True(t, resp.DryRun)
	require.Len(t, resp.Removed, 1)

	// Nothing was actually deleted.
	keys, err := f.store.ListKeys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"stray-1"}, keys)
}

func TestSweepOrphansCustomGracePeriod(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addOrphan(t, "stray-1")

	// A week-long grace period keeps the two-hour-old orphan safe.
	resp, err := f.svc.SweepOrphans(ctx, admin.SweepOrphansRequest{GracePeriod: 7 * 24 * time.Hour})
	require.NoError(t, err)
	assert.Empty(t, resp.Removed)
	assert.Len(t, resp.Skipped, 1)
}
