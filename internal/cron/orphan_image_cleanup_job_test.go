package cron

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/dealboard/dealboard-backend/pkg/storage"
)

const testBaseURL = "https://cdn.example.com/deal-images/"

type stubDealImages struct {
	urls []string
	err  error
}

func (s *stubDealImages) ImageURLs(context.Context) ([]string, error) { return s.urls, s.err }

type fakeBucket struct {
	objects   []storage.Object
	deleted   []string
	failOn    map[string]bool
	listErr   error
	listedFor string
}

func (f *fakeBucket) List(_ context.Context, prefix string) ([]storage.Object, error) {
	f.listedFor = prefix
	return f.objects, f.listErr
}

func (f *fakeBucket) Delete(_ context.Context, key string) error {
	if f.failOn[key] {
		return errors.New("access denied")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeBucket) KeyFromURL(raw string) (string, bool) {
	if !strings.HasPrefix(raw, testBaseURL) {
		return "", false
	}
	return strings.TrimPrefix(raw, testBaseURL), true
}

var jobNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newCleanupJob(t *testing.T, deals *stubDealImages, bucket *fakeBucket) Job {
	t.Helper()
	job, err := NewOrphanImageCleanupJob(OrphanImageCleanupJobParams{
		Logger:  testLogger(),
		Deals:   deals,
		Storage: bucket,
		MinAge:  24 * time.Hour,
		Now:     func() time.Time { return jobNow },
	})
	require.NoError(t, err)
	return job
}

func TestOrphanImageCleanupDeletesOnlyOldUnreferenced(t *testing.T) {
	old := jobNow.Add(-48 * time.Hour)
	bucket := &fakeBucket{objects: []storage.Object{
		{Key: "images/1-used.jpg", LastModified: old},
		{Key: "images/2-orphan.png", LastModified: old},
		{Key: "images/3-fresh.png", LastModified: jobNow.Add(-time.Hour)},
	}}
	deals := &stubDealImages{urls: []string{
		testBaseURL + "images/1-used.jpg",
		"https://elsewhere.example.com/images/2-orphan.png",
	}}

	job := newCleanupJob(t, deals, bucket)
	assert.Equal(t, "orphan-image-cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, "images/", bucket.listedFor)
	assert.Equal(t, []string{"images/2-orphan.png"}, bucket.deleted)
}

func TestOrphanImageCleanupAggregatesFailures(t *testing.T) {
	old := jobNow.Add(-48 * time.Hour)
	bucket := &fakeBucket{
		objects: []storage.Object{
			{Key: "images/a.png", LastModified: old},
			{Key: "images/b.png", LastModified: old},
			{Key: "images/c.png", LastModified: old},
		},
		failOn: map[string]bool{"images/a.png": true, "images/c.png": true},
	}

	err := newCleanupJob(t, &stubDealImages{}, bucket).Run(context.Background())
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"images/b.png"}, bucket.deleted)
}

func TestOrphanImageCleanupStopsWhenReferencesUnavailable(t *testing.T) {
	bucket := &fakeBucket{objects: []storage.Object{{Key: "images/a.png", LastModified: jobNow.Add(-72 * time.Hour)}}}

	err := newCleanupJob(t, &stubDealImages{err: errors.New("db down")}, bucket).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, bucket.deleted)
}

func TestNewOrphanImageCleanupJobValidation(t *testing.T) {
	_, err := NewOrphanImageCleanupJob(OrphanImageCleanupJobParams{})
	assert.Error(t, err)
	_, err = NewOrphanImageCleanupJob(OrphanImageCleanupJobParams{Logger: testLogger(), Deals: &stubDealImages{}})
	assert.Error(t, err)
}
