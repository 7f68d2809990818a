package session

import (
	"errors"
	"testing"
	"time"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Hour)

	created, err := store.Create("10.0.0.1", "alice")
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("expected a session id")
	}

	got, err := store.Get(created.ID, "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != "alice" {
		t.Errorf("expected alice, got %q", got.UserID)
	}

	if _, err := store.Get(created.ID, "10.0.0.2"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected a different address to miss, got %v", err)
	}
	if _, err := store.Get("unknown", "10.0.0.1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected an unknown id to miss, got %v", err)
	}

	if err := store.Delete(created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(created.ID, "10.0.0.1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected a deleted session to miss, got %v", err)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	store.ttl = -time.Second // every session is born expired

	expired, err := store.Create("10.0.0.1", "alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(expired.ID, "10.0.0.1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected an expired session to miss, got %v", err)
	}
	if removed := store.Sweep(); removed != 1 {
		t.Errorf("expected 1 swept session, got %d", removed)
	}
	if removed := store.Sweep(); removed != 0 {
		t.Errorf("expected nothing left to sweep, got %d", removed)
	}
}
