package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
)

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a storage backend
type Options struct {
	Backend     string
	DataPath    string
	RedisURL    string
	RedisPrefix string
	QuotaBytes  int64
}

// Open builds the configured backend and applies the write quota
func Open(ctx context.Context, opts Options, logger *zap.Logger) (KeyValueStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var kv KeyValueStore
	switch opts.Backend {
	case BackendSQLite, "":
		s := NewSQLiteStorage(opts.DataPath, logger)
		if err := s.Initialize(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		kv = s
	case BackendFile:
		kv = NewFileStorage(filepath.Join(opts.DataPath, "favorites"))
	case BackendRedis:
		s, err := OpenRedisStorage(ctx, opts.RedisURL, opts.RedisPrefix)
		if err != nil {
			return nil, err
		}
		kv = s
	case BackendMemory:
		kv = NewMemoryStorage()
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}

	logger.Info("Storage opened",
		zap.String("backend", opts.Backend),
		zap.Int64("quota_bytes", opts.QuotaBytes))
	return WithQuota(kv, opts.QuotaBytes), nil
}
