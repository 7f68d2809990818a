package filesystem

import (
	"errors"
	"io"
	"testing"
)

func newTestStore(t *testing.T) BlobStore {
	t.Helper()
	store, err := NewLocal(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestBlobLifecycle(t *testing.T) {
	store := newTestStore(t)

	w, err := store.Create("blob-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("Hello, World!")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	size, err := store.Size("blob-1")
	if err != nil {
		t.Fatal(err)
	}
	if size != 13 {
		t.Errorf("expected size 13, got %d", size)
	}

	r, err := store.Open("blob-1")
	if err != nil {
		t.Fatal(err)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	r.Close()
	if string(content) != "Hello, World!" {
		t.Errorf("expected content back, got %q", content)
	}

	if _, err := store.Path("blob-1"); err != nil {
		t.Errorf("expected a path for an existing blob: %v", err)
	}

	if err := store.Remove("blob-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Open("blob-1"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound after remove, got %v", err)
	}
}

func TestBlobMissing(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Open("nope"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
	if _, err := store.Path("nope"); !errors.Is(err, ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
	if err := store.Remove("nope"); err != nil {
		t.Errorf("removing a missing blob is not an error, got %v", err)
	}
}

func TestBlobInvalidID(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		if _, err := store.Create(id); !errors.Is(err, ErrInvalidID) {
			t.Errorf("%q: expected ErrInvalidID, got %v", id, err)
		}
	}
}
