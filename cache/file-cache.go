package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const fileExt = ".http"

// FileCache stores one file per key in a directory. The file modification
// time is the stored time. Writes go to a temporary file which is then renamed
// over the entry, so readers never see partial entries.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) (FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return FileCache{}, err
	}
	return FileCache{dir: dir}, nil
}

func (f FileCache) path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f FileCache) Get(key string) (CacheEntry, bool, error) {
	p := f.path(key)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return CacheEntry{}, false, nil
	}
	if err != nil {
		return CacheEntry{}, false, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return CacheEntry{}, false, err
	}
	return CacheEntry{Key: key, StoredAt: info.ModTime(), Bytes: b}, true, nil
}

func (f FileCache) Put(entry CacheEntry) error {
	tmp, err := os.CreateTemp(f.dir, entry.Key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(entry.Bytes); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	t := storedAt(entry)
	if err := os.Chtimes(tmp.Name(), t, t); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path(entry.Key))
}

// Clear removes entry files and leftover temporary files. Other files in the
// directory are left alone.
func (f FileCache) Clear() error {
	dirEntries, err := os.ReadDir(f.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !(strings.HasSuffix(name, fileExt) || strings.HasSuffix(name, ".tmp")) {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f FileCache) Close() error {
	return nil
}
