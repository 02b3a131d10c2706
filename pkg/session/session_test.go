package session

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ericselin/go2web/pkg/search"
)

func TestSaveLoad(t *testing.T) {
	store := Store{Path: filepath.Join(t.TempDir(), "nested", "last-search.yaml")}
	rs := NewResultSet("golang", []search.Result{
		{Title: "Go", URL: "https://go.dev/"},
		{Title: "Tour", URL: "https://go.dev/tour/"},
	})
	if err := store.Save(rs); err != nil {
		t.Fatal(err)
	}
	loaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != rs.ID || loaded.Term != "golang" || !loaded.CreatedAt.Equal(rs.CreatedAt) {
		t.Fatalf("Loaded %+v", loaded)
	}
	if r, err := loaded.Result(2); err != nil || r.URL != "https://go.dev/tour/" {
		t.Fatalf("Result 2 is %+v (%v)", r, err)
	}
}

func TestLoadMissing(t *testing.T) {
	store := Store{Path: filepath.Join(t.TempDir(), "none.yaml")}
	if _, err := store.Load(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("Error is %v", err)
	}
}

func TestResultOutOfRange(t *testing.T) {
	rs := NewResultSet("x", []search.Result{{Title: "a", URL: "https://a.example/"}})
	for _, n := range []int{0, 2, -1} {
		if _, err := rs.Result(n); !errors.Is(err, ErrNoResult) {
			t.Fatalf("Result %d: %v", n, err)
		}
	}
}
