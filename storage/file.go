package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"syscall"
)

// FileStorage keeps one file per key under a directory.
// Writes go to a temp file first and are renamed into place.
type FileStorage struct {
	dir string
}

func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{dir: dir}
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, url.PathEscape(key)+".json")
}

func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(key)
		}
		return nil, unavailable("get", key, fmt.Errorf("read file: %w", err))
	}
	return b, nil
}

func (s *FileStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return writeError(key, fmt.Errorf("mkdir: %w", err))
	}

	p := s.path(key)
	tmp := p + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return writeError(key, fmt.Errorf("open tmp: %w", err))
	}
	if _, err := f.Write(value); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return writeError(key, fmt.Errorf("write tmp: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return writeError(key, fmt.Errorf("close tmp: %w", err))
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return writeError(key, fmt.Errorf("rename tmp: %w", err))
	}
	return nil
}

func (s *FileStorage) Close() error {
	return nil
}

// writeError maps a full disk to ErrQuotaExceeded and anything else to ErrUnavailable
func writeError(key string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return &StorageError{Op: "set", Key: key, Err: fmt.Errorf("%w: %w", ErrQuotaExceeded, err)}
	}
	return unavailable("set", key, err)
}
