package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dealboard/dealboard-backend/pkg/logger"
	"github.com/dealboard/dealboard-backend/pkg/storage"
)

const (
	defaultOrphanImageAge = 24 * time.Hour
	orphanImagePrefix     = "images/"
)

type imageReferences interface {
	ImageURLs(ctx context.Context) ([]string, error)
}

type imageBucket interface {
	List(ctx context.Context, prefix string) ([]storage.Object, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(raw string) (string, bool)
}

type OrphanImageCleanupJobParams struct {
	Logger  *logger.Logger
	Deals   imageReferences
	Storage imageBucket
	MinAge  time.Duration
	Now     func() time.Time
}

// NewOrphanImageCleanupJob removes uploaded images that no deal references once they
// are older than MinAge. Uploads happen before submission, so younger objects may
// still be claimed.
func NewOrphanImageCleanupJob(params OrphanImageCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Deals == nil {
		return nil, fmt.Errorf("deal repository required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("storage client required")
	}
	minAge := params.MinAge
	if minAge <= 0 {
		minAge = defaultOrphanImageAge
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &orphanImageCleanupJob{
		logg:    params.Logger,
		deals:   params.Deals,
		storage: params.Storage,
		minAge:  minAge,
		now:     now,
	}, nil
}

type orphanImageCleanupJob struct {
	logg    *logger.Logger
	deals   imageReferences
	storage imageBucket
	minAge  time.Duration
	now     func() time.Time
}

func (j *orphanImageCleanupJob) Name() string { return "orphan-image-cleanup" }

func (j *orphanImageCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.minAge)

	objects, err := j.storage.List(ctx, orphanImagePrefix)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	urls, err := j.deals.ImageURLs(ctx)
	if err != nil {
		return fmt.Errorf("load deal image urls: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, raw := range urls {
		if key, ok := j.storage.KeyFromURL(raw); ok {
			referenced[key] = struct{}{}
		}
	}

	var (
		errs    error
		deleted int
		young   int
	)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			young++
			continue
		}
		if err := j.storage.Delete(ctx, obj.Key); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", obj.Key, err))
			continue
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":     cutoff,
		"objects":    len(objects),
		"referenced": len(referenced),
		"too_young":  young,
		"deleted":    deleted,
		"failed":     len(multierr.Errors(errs)),
	})
	j.logg.Info(logCtx, "cron.orphan_images_swept")
	return errs
}
