package storage

import "context"

// DefaultQuotaBytes matches the per-origin limit browsers apply to local storage
const DefaultQuotaBytes int64 = 5 * 1024 * 1024

// QuotaStorage rejects writes larger than a fixed number of bytes
type QuotaStorage struct {
	KeyValueStore
	quota int64
}

// WithQuota wraps kv so that values above quota bytes fail with ErrQuotaExceeded.
// A quota <= 0 returns kv unchanged.
func WithQuota(kv KeyValueStore, quota int64) KeyValueStore {
	if quota <= 0 {
		return kv
	}
	return &QuotaStorage{KeyValueStore: kv, quota: quota}
}

func (s *QuotaStorage) Set(ctx context.Context, key string, value []byte) error {
	if size := int64(len(value)); size > s.quota {
		return quotaExceeded(key, size, s.quota)
	}
	return s.KeyValueStore.Set(ctx, key, value)
}
