package cache

import "sync"

// MemCache keeps entries in memory only.
type MemCache struct {
	mu      *sync.RWMutex
	entries map[string]CacheEntry
}

func NewMemCache() MemCache {
	return MemCache{
		mu:      &sync.RWMutex{},
		entries: make(map[string]CacheEntry),
	}
}

func (m MemCache) Get(key string) (CacheEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	if ok {
		entry.Bytes = append([]byte(nil), entry.Bytes...)
	}
	return entry, ok, nil
}

func (m MemCache) Put(entry CacheEntry) error {
	entry.StoredAt = storedAt(entry)
	entry.Bytes = append([]byte(nil), entry.Bytes...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m MemCache) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.entries)
	return nil
}

func (m MemCache) Close() error {
	return nil
}
