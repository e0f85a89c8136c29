package scheduler

import (
	"context"
	"fmt"

	"aniverse/catalog"
	"aniverse/favorites"

	"go.uber.org/zap"
)

// RefreshJob updates the stored favorites with the latest catalog records,
// so rankings, posters and trailers in the list do not go stale.
type RefreshJob struct {
	source catalog.Source
	store  *favorites.Store
	logger *zap.Logger
}

// NewRefreshJob creates a new favorites refresh job
func NewRefreshJob(source catalog.Source, store *favorites.Store, logger *zap.Logger) *RefreshJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshJob{
		source: source,
		store:  store,
		logger: logger,
	}
}

// Name returns the name of the job
func (j *RefreshJob) Name() string {
	return "favorites_refresh"
}

// Run executes the job
func (j *RefreshJob) Run(ctx context.Context) error {
	if j.store.Len() == 0 {
		j.logger.Debug("Favorites list is empty, nothing to refresh")
		return nil
	}

	titles, err := j.source.ListTitles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list catalog titles: %w", err)
	}

	updated, err := j.store.Refresh(ctx, titles)
	if err != nil {
		return fmt.Errorf("failed to refresh favorites: %w", err)
	}

	j.logger.Info("Favorites refresh complete",
		zap.Int("catalog_titles", len(titles)),
		zap.Int("favorites", j.store.Len()),
		zap.Int("updated", updated))
	return nil
}
