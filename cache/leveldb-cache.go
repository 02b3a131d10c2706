package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var entryPrefix = []byte("e:")

// LevelDBCache keeps gob-encoded entries in a LevelDB database.
type LevelDBCache struct {
	db *leveldb.DB
}

func NewLevelDBCache(path string) (LevelDBCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return LevelDBCache{}, fmt.Errorf("opening leveldb cache: %w", err)
	}
	return LevelDBCache{db: db}, nil
}

func dbKey(key string) []byte {
	return append(append([]byte{}, entryPrefix...), key...)
}

func (l LevelDBCache) Get(key string) (CacheEntry, bool, error) {
	b, err := l.db.Get(dbKey(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, err
	}
	var entry CacheEntry
	if err := decodeGob(b, &entry); err != nil {
		return CacheEntry{}, false, fmt.Errorf("decoding entry %s: %w", key, err)
	}
	return entry, true, nil
}

func (l LevelDBCache) Put(entry CacheEntry) error {
	entry.StoredAt = storedAt(entry)
	b, err := encodeGob(entry)
	if err != nil {
		return err
	}
	return l.db.Put(dbKey(entry.Key), b, nil)
}

func (l LevelDBCache) Clear() error {
	it := l.db.NewIterator(util.BytesPrefix(entryPrefix), nil)
	defer it.Release()
	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte{}, it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	return l.db.Write(batch, nil)
}

func (l LevelDBCache) Close() error {
	return l.db.Close()
}

func encodeGob(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(b []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(b)).Decode(v)
}
