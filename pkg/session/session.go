// Package session keeps the results of the last search so that they can be
// opened by number later.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ericselin/go2web/pkg/search"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoSession is returned by Load when no search has been saved.
	ErrNoSession = errors.New("no saved search")
	// ErrNoResult is returned for result numbers outside the result set.
	ErrNoResult = errors.New("no such result")
)

type ResultSet struct {
	ID        uuid.UUID       `yaml:"id"`
	Term      string          `yaml:"term"`
	CreatedAt time.Time       `yaml:"createdAt"`
	Results   []search.Result `yaml:"results"`
}

func NewResultSet(term string, results []search.Result) ResultSet {
	return ResultSet{
		ID:        uuid.New(),
		Term:      term,
		CreatedAt: time.Now().UTC(),
		Results:   results,
	}
}

// Result returns result number n, counting from 1.
func (rs ResultSet) Result(n int) (search.Result, error) {
	if n < 1 || n > len(rs.Results) {
		return search.Result{}, fmt.Errorf("%w: %d of %d for %q", ErrNoResult, n, len(rs.Results), rs.Term)
	}
	return rs.Results[n-1], nil
}

// Store persists a single result set as a YAML file.
type Store struct {
	Path string
}

func (s Store) Load() (ResultSet, error) {
	var rs ResultSet
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return rs, ErrNoSession
	}
	if err != nil {
		return rs, err
	}
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return rs, fmt.Errorf("reading %s: %w", s.Path, err)
	}
	return rs, nil
}

// Save replaces the stored result set.
func (s Store) Save(rs ResultSet) error {
	b, err := yaml.Marshal(rs)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
