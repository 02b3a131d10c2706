// Package cache stores raw HTTP responses.
package cache

import (
	"fmt"
	"path/filepath"
	"time"
)

// CacheProvider is an interface for a cache provider.
// It stores and retrieves []byte values, which represent HTTP responses,
// along with the time each entry was stored. The stored time is the clock
// that freshness is measured against.
//
// Implementations must be thread-safe!
type CacheProvider interface {
	// Get returns the cache entry for the given key, if it exists.
	// A missing entry is not an error.
	Get(key string) (CacheEntry, bool, error)
	// Put stores the given entry, replacing any previous entry with the same
	// key. A zero StoredAt is replaced with the current time.
	Put(entry CacheEntry) error
	// Clear removes all entries.
	Clear() error
	Close() error
}

type CacheEntry struct {
	Key      string
	StoredAt time.Time
	Bytes    []byte
}

// Provider names accepted by Open.
const (
	ProviderFile    = "file"
	ProviderSQLite  = "sqlite"
	ProviderLevelDB = "leveldb"
	ProviderMemory  = "memory"
)

// Open opens the named provider with its data under dir.
// An empty provider name selects the file provider.
func Open(provider string, dir string) (CacheProvider, error) {
	switch provider {
	case "", ProviderFile:
		return NewFileCache(dir)
	case ProviderSQLite:
		return NewSQLiteCache(filepath.Join(dir, "cache.db"))
	case ProviderLevelDB:
		return NewLevelDBCache(filepath.Join(dir, "leveldb"))
	case ProviderMemory:
		return NewMemCache(), nil
	}
	return nil, fmt.Errorf("unknown cache provider %q", provider)
}

func storedAt(entry CacheEntry) time.Time {
	if entry.StoredAt.IsZero() {
		return time.Now()
	}
	return entry.StoredAt
}
