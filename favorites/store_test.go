package favorites

import (
	"context"
	"errors"
	"testing"

	"aniverse/catalog"
	"aniverse/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStorage fails Get or Set on demand
type flakyStorage struct {
	*storage.MemoryStorage
	getErr error
	setErr error
	sets   int
}

func newFlakyStorage() *flakyStorage {
	return &flakyStorage{MemoryStorage: storage.NewMemoryStorage()}
}

func (f *flakyStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.MemoryStorage.Get(ctx, key)
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.sets++
	return f.MemoryStorage.Set(ctx, key, value)
}

func title(id string) catalog.Title {
	return catalog.Title{
		ID:         id,
		Title:      "Title " + id,
		PosterPath: "https://img.example/" + id + ".jpg",
		Genres:     []catalog.Genre{{ID: 1, Name: "Shounen"}},
		Ranking:    catalog.Ranking{Value: 4.5, Name: "Great"},
	}
}

func openStore(t *testing.T, kv storage.KeyValueStore) *Store {
	t.Helper()
	s, err := Open(context.Background(), kv, Options{})
	require.NoError(t, err)
	return s
}

func stored(t *testing.T, kv storage.KeyValueStore, key string) string {
	t.Helper()
	b, err := kv.Get(context.Background(), key)
	require.NoError(t, err)
	return string(b)
}

func TestScenario(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStorage()

	s := openStore(t, kv)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, DefaultKey, s.Key())

	added, err := s.Add(ctx, title("a"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, s.Contains("a"))

	added, err = s.Add(ctx, title("a"))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 1, s.Len())

	removed, err := s.Remove(ctx, "a")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, s.Contains("a"))

	// the empty list is persisted, not deleted
	assert.Equal(t, "[]", stored(t, kv, DefaultKey))

	reopened := openStore(t, kv)
	assert.Equal(t, 0, reopened.Len())
	assert.NoError(t, reopened.LoadErr())
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryStorage())

	for _, id := range []string{"c", "a", "b", "a"} {
		_, err := s.Add(ctx, title(id))
		require.NoError(t, err)
	}

	want := []catalog.Title{title("c"), title("a"), title("b")}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestAddRejectsMissingID(t *testing.T) {
	kv := newFlakyStorage()
	s := openStore(t, kv)

	_, err := s.Add(context.Background(), catalog.Title{Title: "No id"})
	assert.ErrorIs(t, err, ErrMissingID)
	assert.Zero(t, kv.sets)
}

func TestDuplicateAddDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)

	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)
	_, err = s.Add(ctx, title("a"))
	require.NoError(t, err)

	assert.Equal(t, 1, kv.sets)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)
	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)

	removed, err := s.Remove(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, []catalog.Title{title("a")}, s.List())
	assert.Equal(t, 1, kv.sets)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryStorage())
	for _, id := range []string{"a", "b"} {
		_, err := s.Add(ctx, title(id))
		require.NoError(t, err)
	}
	before := s.List()

	_, err := s.Add(ctx, title("c"))
	require.NoError(t, err)
	_, err = s.Remove(ctx, "c")
	require.NoError(t, err)

	assert.Equal(t, before, s.List())
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStorage()
	s := openStore(t, kv)

	full := title("tt0245429")
	full.AdminReview = "A classic."
	full.YouTubeID = "ByXuk9QqQkk"
	full.Genres = append(full.Genres, catalog.Genre{ID: 7, Name: "Fantasy"})

	for _, tt := range []catalog.Title{full, title("b"), title("c")} {
		_, err := s.Add(ctx, tt)
		require.NoError(t, err)
	}

	reopened := openStore(t, kv)
	if diff := cmp.Diff(s.List(), reopened.List()); diff != "" {
		t.Errorf("reloaded list mismatch (-want +got):\n%s", diff)
	}
}

func TestListIsACopy(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, storage.NewMemoryStorage())
	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)

	list := s.List()
	list[0].Title = "mutated"

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Title a", got.Title)

	_, ok = s.Get("b")
	assert.False(t, ok)
}

func TestOpenMissingKey(t *testing.T) {
	s, err := Open(context.Background(), storage.NewMemoryStorage(), Options{Key: "profile_2", Strict: true})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "profile_2", s.Key())
}

func TestOpenNormalizesStoredData(t *testing.T) {
	ctx := context.Background()

	t.Run("null", func(t *testing.T) {
		kv := storage.NewMemoryStorage()
		require.NoError(t, kv.Set(ctx, DefaultKey, []byte("null")))

		s := openStore(t, kv)
		assert.Equal(t, 0, s.Len())
		assert.NoError(t, s.LoadErr())
	})

	t.Run("duplicates keep first", func(t *testing.T) {
		kv := storage.NewMemoryStorage()
		require.NoError(t, kv.Set(ctx, DefaultKey,
			[]byte(`[{"imdb_id":"a","title":"first"},{"imdb_id":"b"},{"imdb_id":"a","title":"second"}]`)))

		s := openStore(t, kv)
		require.Equal(t, 2, s.Len())
		got, _ := s.Get("a")
		assert.Equal(t, "first", got.Title)
	})
}

func TestOpenCorrupt(t *testing.T) {
	ctx := context.Background()

	for name, raw := range map[string]string{
		"not json":   "{oops",
		"object":     `{"imdb_id":"a"}`,
		"missing id": `[{"title":"nameless"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			kv := storage.NewMemoryStorage()
			require.NoError(t, kv.Set(ctx, DefaultKey, []byte(raw)))

			s, err := Open(ctx, kv, Options{})
			require.NoError(t, err)
			assert.Equal(t, 0, s.Len())
			assert.ErrorIs(t, s.LoadErr(), ErrCorrupt)

			// the corrupt value stays until the next change overwrites it
			assert.Equal(t, raw, stored(t, kv, DefaultKey))

			_, err = s.Add(ctx, title("a"))
			require.NoError(t, err)
			assert.NoError(t, s.LoadErr())

			decoded, err := Decode([]byte(stored(t, kv, DefaultKey)))
			require.NoError(t, err)
			assert.Equal(t, []catalog.Title{title("a")}, decoded)
		})
	}
}

func TestOpenCorruptStrict(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStorage()
	require.NoError(t, kv.Set(ctx, DefaultKey, []byte("{oops")))

	s, err := Open(ctx, kv, Options{Strict: true})
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenUnavailable(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	kv.getErr = &storage.StorageError{Op: "get", Key: DefaultKey, Err: storage.ErrUnavailable}

	s, err := Open(ctx, kv, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
	assert.ErrorIs(t, s.LoadErr(), storage.ErrUnavailable)

	_, err = Open(ctx, kv, Options{Strict: true})
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}

func TestUnavailableReadKeepsStoredList(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	seed := openStore(t, kv)
	for _, id := range []string{"x", "y", "z"} {
		_, err := seed.Add(ctx, title(id))
		require.NoError(t, err)
	}
	writes := kv.sets

	kv.getErr = &storage.StorageError{Op: "get", Key: DefaultKey, Err: storage.ErrUnavailable}
	s := openStore(t, kv)
	require.ErrorIs(t, s.LoadErr(), storage.ErrUnavailable)

	// changes are refused while the stored list cannot be read
	added, err := s.Add(ctx, title("new"))
	assert.False(t, added)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	_, err = s.Remove(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.ErrorIs(t, s.Save(ctx), storage.ErrUnavailable)
	assert.Equal(t, writes, kv.sets)

	kv.getErr = nil
	added, err = s.Add(ctx, title("new"))
	require.NoError(t, err)
	assert.True(t, added)
	assert.NoError(t, s.LoadErr())

	want := []catalog.Title{title("x"), title("y"), title("z"), title("new")}
	if diff := cmp.Diff(want, s.List()); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
	reopened := openStore(t, kv)
	if diff := cmp.Diff(want, reopened.List()); diff != "" {
		t.Errorf("stored list mismatch (-want +got):\n%s", diff)
	}
}

func TestUnavailableReadThenCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	require.NoError(t, kv.MemoryStorage.Set(ctx, DefaultKey, []byte("{not json")))

	kv.getErr = &storage.StorageError{Op: "get", Key: DefaultKey, Err: storage.ErrUnavailable}
	s := openStore(t, kv)
	kv.getErr = nil

	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)
	assert.NoError(t, s.LoadErr())
	assert.Equal(t, []catalog.Title{title("a")}, openStore(t, kv).List())
}

func TestQuotaExceededLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	s := openStore(t, storage.WithQuota(mem, 300))

	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)
	persisted := stored(t, mem, DefaultKey)

	big := title("b")
	big.AdminReview = string(make([]byte, 400))
	added, err := s.Add(ctx, big)
	require.Error(t, err)
	assert.False(t, added)
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

	var storageErr *storage.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "set", storageErr.Op)

	assert.False(t, s.Contains("b"))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, persisted, stored(t, mem, DefaultKey))
}

func TestRemoveWriteFailure(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)
	_, err := s.Add(ctx, title("a"))
	require.NoError(t, err)

	kv.setErr = &storage.StorageError{Op: "set", Key: DefaultKey, Err: storage.ErrUnavailable}
	removed, err := s.Remove(ctx, "a")
	assert.False(t, removed)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.True(t, s.Contains("a"))
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)

	require.NoError(t, s.Save(ctx))
	assert.Equal(t, "[]", stored(t, kv, DefaultKey))

	kv.setErr = &storage.StorageError{Op: "set", Key: DefaultKey, Err: storage.ErrQuotaExceeded}
	assert.ErrorIs(t, s.Save(ctx), storage.ErrQuotaExceeded)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.Add(ctx, title(id))
		require.NoError(t, err)
	}
	writes := kv.sets

	// identical records do not trigger a write
	updated, err := s.Refresh(ctx, []catalog.Title{title("a"), title("zzz")})
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, writes, kv.sets)

	fresh := title("b")
	fresh.Ranking = catalog.Ranking{Value: 4.9, Name: "Excellent"}
	fresh.YouTubeID = "pkKu9hLT-t8"
	updated, err = s.Refresh(ctx, []catalog.Title{fresh, title("zzz")})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, writes+1, kv.sets)

	assert.Equal(t, []catalog.Title{title("a"), fresh, title("c")}, s.List())
	assert.False(t, s.Contains("zzz"))
}

func TestRefreshTreatsNilAndEmptyGenresAsEqual(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyStorage()
	s := openStore(t, kv)

	saved := title("a")
	saved.Genres = []catalog.Genre{}
	_, err := s.Add(ctx, saved)
	require.NoError(t, err)
	writes := kv.sets

	latest := title("a")
	latest.Genres = nil
	updated, err := s.Refresh(ctx, []catalog.Title{latest})
	require.NoError(t, err)
	assert.Zero(t, updated)
	assert.Equal(t, writes, kv.sets)

	latest.Genres = []catalog.Genre{{ID: 2, Name: "Mecha"}}
	updated, err = s.Refresh(ctx, []catalog.Title{latest})
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
}
