package storage

import (
	"os"
	"path/filepath"
	"testing"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestStoreRoundTrip(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Save("zanger-watchlist", doc{Name: "NVDA", Count: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got doc
	ok, err := s.Load("zanger-watchlist", &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected document present")
	}
	if got.Name != "NVDA" || got.Count != 2 {
		t.Fatalf("unexpected document: %+v", got)
	}
}

func TestStoreLoadMissingKey(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	var got doc
	ok, err := s.Load("never-saved", &got)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatal("expected missing key to report false")
	}
}

func TestStoreSaveOverwrites(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Save("k", doc{Count: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save("k", doc{Count: 2}); err != nil {
		t.Fatalf("save: %v", err)
	}

	var got doc
	if _, err := s.Load("k", &got); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Count != 2 {
		t.Fatalf("expected overwritten document, got %+v", got)
	}
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := s.Save("k", doc{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "k.json")); !os.IsNotExist(err) {
		t.Fatal("expected file removed")
	}

	// deleting again is a no-op
	if err := s.Delete("k"); err != nil {
		t.Fatalf("delete absent: %v", err)
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, key := range []string{"", "../escape", "UPPER", "a b", ".hidden"} {
		if err := s.Save(key, doc{}); err == nil {
			t.Fatalf("expected key %q rejected", key)
		}
	}
}
