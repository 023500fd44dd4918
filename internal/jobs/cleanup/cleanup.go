package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const objectPrefix = "ads/"

type assetLister interface {
	ListAssetURLs(ctx context.Context) ([]string, error)
}

type objectStore interface {
	ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
	KeyFromURL(url string) string
	Delete(ctx context.Context, key string) error
}

// Job deletes uploaded objects that no advertisement references anymore.
// Uploads happen before the record is persisted, so an edit that fails or is
// abandoned mid-flight leaves orphans behind; the retention window keeps
// in-flight uploads safe.
type Job struct {
	ads       assetLister
	storage   objectStore
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewOrphanSweepJob(ads assetLister, storage objectStore, retention time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		ads:       ads,
		storage:   storage,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

func (j *Job) Run(ctx context.Context) error {
	if j.ads == nil || j.storage == nil {
		return nil
	}

	cutoff := j.now().Add(-j.retention)
	stored, err := j.storage.ListOlderThan(ctx, objectPrefix, cutoff)
	if err != nil {
		return fmt.Errorf("list stored asset objects: %w", err)
	}
	if len(stored) == 0 {
		return nil
	}

	urls, err := j.ads.ListAssetURLs(ctx)
	if err != nil {
		return fmt.Errorf("list referenced asset urls: %w", err)
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, url := range urls {
		if key := j.storage.KeyFromURL(url); key != "" {
			referenced[key] = struct{}{}
		}
	}

	deleted := 0
	for _, key := range stored {
		if _, ok := referenced[key]; ok {
			continue
		}
		if err := j.storage.Delete(ctx, key); err != nil {
			j.logger.Warn("failed to delete orphaned asset object", zap.Error(err), zap.String("object_key", key))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		j.logger.Info("orphaned asset sweep completed", zap.Int("deleted", deleted), zap.Int("scanned", len(stored)))
	}
	return nil
}
