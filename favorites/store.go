// Package favorites keeps the user's saved-for-later list of titles and
// mirrors it to a single key in durable storage after every change.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"aniverse/catalog"
	"aniverse/storage"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/zap"
)

// DefaultKey is the storage key used when Options.Key is empty
const DefaultKey = "aniverse_favorites"

var (
	// ErrCorrupt means the stored value is not a list of titles
	ErrCorrupt = errors.New("favorites data is corrupt")
	// ErrMissingID is returned when adding a title without an identifier
	ErrMissingID = errors.New("title has no identifier")
)

// Options configures how a Store is opened
type Options struct {
	Key string
	// Strict makes Open fail on unreadable or corrupt data instead of starting empty.
	Strict bool
	Logger *zap.Logger
}

// Store is the single source of truth for one profile's favorites.
// It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	kv      storage.KeyValueStore
	key     string
	titles  []catalog.Title
	loadErr error
	stale   bool // stored list unreadable since Open
	logger  *zap.Logger
}

// Open reads the list stored under opts.Key.
//
// A missing key starts an empty list. When the stored value cannot be read or
// parsed, a non-strict Open logs a warning, starts empty and keeps the cause
// in LoadErr. A corrupt value is overwritten by the next change. An unreadable
// one is read again before the next change, and the change fails until that
// read succeeds. A strict Open returns the error instead.
func Open(ctx context.Context, kv storage.KeyValueStore, opts Options) (*Store, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Store{
		kv:     kv,
		key:    opts.Key,
		titles: []catalog.Title{},
		logger: opts.Logger,
	}

	titles, err := s.load(ctx)
	if err != nil {
		if opts.Strict {
			return nil, err
		}
		s.loadErr = err
		s.stale = errors.Is(err, storage.ErrUnavailable)
		s.logger.Warn("Starting with an empty favorites list",
			zap.String("key", s.key),
			zap.Error(err))
		return s, nil
	}

	s.titles = titles
	s.logger.Debug("Favorites loaded",
		zap.String("key", s.key),
		zap.Int("count", len(titles)))
	return s, nil
}

func (s *Store) load(ctx context.Context) ([]catalog.Title, error) {
	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return []catalog.Title{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read favorites: %w", err)
	}

	titles, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode favorites under %q: %w", s.key, err)
	}
	return titles, nil
}

// reload retries a read that failed in Open. Callers hold the write lock.
func (s *Store) reload(ctx context.Context) error {
	if !s.stale {
		return nil
	}

	titles, err := s.load(ctx)
	switch {
	case errors.Is(err, storage.ErrUnavailable):
		return err
	case err != nil:
		// readable but corrupt: the next write replaces it
		s.loadErr = err
		s.stale = false
		s.logger.Warn("Stored favorites are corrupt", zap.String("key", s.key), zap.Error(err))
		return nil
	}

	s.titles = titles
	s.loadErr = nil
	s.stale = false
	s.logger.Info("Favorites reloaded",
		zap.String("key", s.key),
		zap.Int("count", len(titles)))
	return nil
}

// LoadErr returns why Open fell back to an empty list, or nil
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Key returns the storage key the list is persisted under
func (s *Store) Key() string {
	return s.key
}

// Add appends title unless a title with the same identifier is already present.
// It reports whether the list changed. When the write fails the list is left
// as it was and the *storage.StorageError is returned.
func (s *Store) Add(ctx context.Context, title catalog.Title) (bool, error) {
	if title.ID == "" {
		return false, ErrMissingID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return false, err
	}
	next, added := appendUnique(s.titles, title)
	if !added {
		return false, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	s.logger.Info("Added to favorites", zap.String("id", title.ID), zap.String("title", title.Title))
	return true, nil
}

// Remove drops every title with the identifier and reports whether any was removed
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return false, err
	}
	next, removed := removeID(s.titles, id)
	if !removed {
		return false, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}

	s.logger.Info("Removed from favorites", zap.String("id", id))
	return true, nil
}

// Refresh replaces stored snapshots with newer catalog records that share an
// identifier. Order is kept and titles missing from latest are left alone.
func (s *Store) Refresh(ctx context.Context, latest []catalog.Title) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return 0, err
	}
	next, updated := refresh(s.titles, latest)
	if updated == 0 {
		return 0, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return 0, err
	}
	return updated, nil
}

// Contains reports whether a title with the identifier is in the list
func (s *Store) Contains(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.titles, id) >= 0
}

// Get returns the stored title with the identifier
func (s *Store) Get(id string) (catalog.Title, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := indexOf(s.titles, id)
	if i < 0 {
		return catalog.Title{}, false
	}
	return s.titles[i], true
}

// List returns a copy of the list in insertion order
func (s *Store) List() []catalog.Title {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]catalog.Title, len(s.titles))
	copy(out, s.titles)
	return out
}

// Len returns the number of favorites
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.titles)
}

// Save writes the whole current list to storage
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return err
	}
	return s.write(ctx, s.titles)
}

// commit persists next and only then makes it the current list.
// Callers hold the write lock.
func (s *Store) commit(ctx context.Context, next []catalog.Title) error {
	if err := s.write(ctx, next); err != nil {
		return err
	}
	s.titles = next
	s.loadErr = nil
	s.stale = false
	return nil
}

func (s *Store) write(ctx context.Context, titles []catalog.Title) error {
	data, err := Encode(titles)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error("Failed to persist favorites",
			zap.String("key", s.key),
			zap.Int("count", len(titles)),
			zap.Error(err))
		return err
	}
	return nil
}

func indexOf(titles []catalog.Title, id string) int {
	for i, t := range titles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// appendUnique returns a new slice with title appended, or titles itself
// when the identifier is already present.
func appendUnique(titles []catalog.Title, title catalog.Title) ([]catalog.Title, bool) {
	if indexOf(titles, title.ID) >= 0 {
		return titles, false
	}
	next := make([]catalog.Title, len(titles), len(titles)+1)
	copy(next, titles)
	return append(next, title), true
}

func removeID(titles []catalog.Title, id string) ([]catalog.Title, bool) {
	next := make([]catalog.Title, 0, len(titles))
	for _, t := range titles {
		if t.ID != id {
			next = append(next, t)
		}
	}
	return next, len(next) != len(titles)
}

func refresh(titles, latest []catalog.Title) ([]catalog.Title, int) {
	byID := make(map[string]catalog.Title, len(latest))
	for _, t := range latest {
		byID[t.ID] = t
	}

	next := make([]catalog.Title, len(titles))
	updated := 0
	for i, t := range titles {
		next[i] = t
		if fresh, ok := byID[t.ID]; ok && !cmp.Equal(fresh, t, cmpopts.EquateEmpty()) {
			next[i] = fresh
			updated++
		}
	}
	return next, updated
}
