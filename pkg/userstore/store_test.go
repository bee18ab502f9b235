package userstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"covenant/pkg/store"
)

func newLayout(t *testing.T) store.Layout {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "users"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	return store.Layout{Root: root}
}

func TestCreateThenLoadRoundTrips(t *testing.T) {
	s := New(newLayout(t))
	u, err := s.Create("pk-abc")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.UUID == "" {
		t.Fatal("expected a generated UUID")
	}

	got, err := s.Load(u.UUID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.PubKey != "pk-abc" {
		t.Fatalf("expected pubkey pk-abc, got %q", got.PubKey)
	}
}

func TestLoadMissingUserReturnsErrNotFound(t *testing.T) {
	s := New(newLayout(t))
	if _, err := s.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateAssignsDistinctUUIDsForRepeatedCalls(t *testing.T) {
	s := New(newLayout(t))
	a, _ := s.Create("pk-a")
	b, _ := s.Create("pk-a")
	if a.UUID == b.UUID {
		t.Fatal("expected distinct UUIDs for two separate user records")
	}
}
