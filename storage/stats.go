package storage

import "context"

// StatsProvider is implemented by backends that can summarize what they hold
type StatsProvider interface {
	GetStats() (map[string]int, error)
	Keys(ctx context.Context) ([]string, error)
}

// StatsOf returns the StatsProvider behind kv, looking through a quota wrapper
func StatsOf(kv KeyValueStore) (StatsProvider, bool) {
	if q, ok := kv.(*QuotaStorage); ok {
		kv = q.KeyValueStore
	}
	sp, ok := kv.(StatsProvider)
	return sp, ok
}
