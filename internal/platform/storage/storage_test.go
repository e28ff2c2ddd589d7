package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(t.TempDir())
}

func TestSavePendingWritesUnderEmployeePrefix(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SavePending("emp-1", "Scan.PDF", []byte("content"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(saved.Path, "pending/emp-1/") {
		t.Fatalf("unexpected path %q", saved.Path)
	}
	if !strings.HasSuffix(saved.Path, ".pdf") {
		t.Fatalf("extension must be lowercased, got %q", saved.Path)
	}
	if saved.URL != "/files/"+saved.Path {
		t.Fatalf("unexpected url %q", saved.URL)
	}
	if !store.Exists(saved.Path) {
		t.Fatal("saved file must exist")
	}
	if !IsPendingPath(saved.Path) {
		t.Fatal("saved path must be recognized as pending")
	}
}

func TestSavePermanentWritesUnderEmployeesPrefix(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SavePermanent("emp-1", "nid.png", []byte("content"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(saved.Path, "employees/emp-1/") {
		t.Fatalf("unexpected path %q", saved.Path)
	}
	if IsPendingPath(saved.Path) {
		t.Fatal("permanent path must not be pending")
	}
}

func TestPromoteCopiesAndKeepsSource(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SavePending("emp-1", "scan.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	promoted, err := store.Promote(saved.Path, "emp-1")
	if err != nil {
		t.Fatalf("promote failed: %v", err)
	}
	if !strings.HasPrefix(promoted, "employees/emp-1/") {
		t.Fatalf("unexpected promoted path %q", promoted)
	}
	if filepath.Base(promoted) != filepath.Base(saved.Path) {
		t.Fatal("promotion must keep the file name")
	}
	if !store.Exists(saved.Path) {
		t.Fatal("pending source must survive promotion for retry safety")
	}
	if !store.Exists(promoted) {
		t.Fatal("promoted copy must exist")
	}

	data, err := os.ReadFile(filepath.Join(store.Root, filepath.FromSlash(promoted)))
	if err != nil {
		t.Fatalf("read promoted: %v", err)
	}
	if string(data) != "content" {
		t.Fatalf("promoted content mismatch: %q", data)
	}
}

func TestPromoteRejectsNonPendingPath(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Promote("employees/emp-1/nid.pdf", "emp-1"); err == nil {
		t.Fatal("promoting a permanent path must fail")
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	saved, err := store.SavePending("emp-1", "scan.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Delete(saved.Path); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if store.Exists(saved.Path) {
		t.Fatal("file must be gone")
	}
	if err := store.Delete(saved.Path); err != nil {
		t.Fatalf("second delete must be a no-op, got %v", err)
	}
}

func TestTraversalGuard(t *testing.T) {
	parent := t.TempDir()
	store := New(filepath.Join(parent, "docs"))

	secret := filepath.Join(parent, "secret.txt")
	if err := os.WriteFile(secret, []byte("outside"), 0o600); err != nil {
		t.Fatal(err)
	}

	// Leading dot-dot segments are confined inside the root, never resolved
	// against the parent directory.
	for _, relPath := range []string{"../secret.txt", "pending/../../secret.txt"} {
		if _, err := store.Open(relPath); err == nil {
			t.Fatalf("Open(%q) must not reach outside the root", relPath)
		}
	}
	if _, err := os.Stat(secret); err != nil {
		t.Fatalf("outside file must be untouched: %v", err)
	}

	for _, relPath := range []string{"/", ""} {
		if _, err := store.Open(relPath); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("Open(%q) = %v, want ErrOutsideRoot", relPath, err)
		}
		if err := store.Delete(relPath); !errors.Is(err, ErrOutsideRoot) {
			t.Fatalf("Delete(%q) = %v, want ErrOutsideRoot", relPath, err)
		}
	}
}

func TestListPending(t *testing.T) {
	store := newTestStore(t)

	files, err := store.ListPending()
	if err != nil {
		t.Fatalf("empty root must not error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %+v", files)
	}

	first, err := store.SavePending("emp-1", "a.pdf", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.SavePending("emp-2", "b.pdf", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SavePermanent("emp-1", "c.pdf", []byte("c")); err != nil {
		t.Fatal(err)
	}

	files, err = store.ListPending()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 pending files, got %+v", files)
	}
	seen := map[string]bool{}
	for _, file := range files {
		seen[file.Path] = true
		if file.ModTime.IsZero() {
			t.Fatalf("mod time missing for %q", file.Path)
		}
	}
	if !seen[first.Path] || !seen[second.Path] {
		t.Fatalf("pending files not listed: %+v", files)
	}
}
