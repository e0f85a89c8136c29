package scheduler

import (
	"context"
	"errors"
	"testing"

	"aniverse/catalog"
	"aniverse/favorites"
	"aniverse/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	titles []catalog.Title
	err    error
	calls  int
}

func (s *stubSource) ListTitles(ctx context.Context) ([]catalog.Title, error) {
	s.calls++
	return s.titles, s.err
}

func (s *stubSource) Recommended(ctx context.Context) ([]catalog.Title, error) {
	return nil, nil
}

func (s *stubSource) ListGenres(ctx context.Context) ([]catalog.Genre, error) {
	return nil, nil
}

func TestRefreshJob(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStorage()
	store, err := favorites.Open(ctx, kv, favorites.Options{})
	require.NoError(t, err)

	src := &stubSource{}
	job := NewRefreshJob(src, store, nil)
	assert.Equal(t, "favorites_refresh", job.Name())

	// nothing to refresh
	require.NoError(t, job.Run(ctx))
	assert.Zero(t, src.calls)

	old := catalog.Title{ID: "tt01", Title: "Frieren", Ranking: catalog.Ranking{Value: 4.2, Name: "Great"}}
	_, err = store.Add(ctx, old)
	require.NoError(t, err)

	fresh := old
	fresh.Ranking = catalog.Ranking{Value: 4.8, Name: "Excellent"}
	src.titles = []catalog.Title{fresh, {ID: "tt02", Title: "Other"}}

	require.NoError(t, job.Run(ctx))
	got, ok := store.Get("tt01")
	require.True(t, ok)
	assert.Equal(t, 4.8, got.Ranking.Value)
	assert.False(t, store.Contains("tt02"))

	// the refreshed snapshot was persisted
	reopened, err := favorites.Open(ctx, kv, favorites.Options{Strict: true})
	require.NoError(t, err)
	assert.Equal(t, store.List(), reopened.List())

	src.err = errors.New("catalog down")
	assert.ErrorContains(t, job.Run(ctx), "catalog down")
}
