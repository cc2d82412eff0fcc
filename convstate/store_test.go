package convstate

import (
	"path/filepath"
	"testing"
	"time"
)

type testState struct {
	Kind  string `json:"kind"`
	Notes string `json:"notes,omitempty"`
}

func newTestStore(t *testing.T, opts Options) *Store[testState] {
	t.Helper()
	s, err := New[testState](filepath.Join(t.TempDir(), "state.json"), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t, Options{})

	s.Set("user-1", testState{Kind: "first"})
	s.Set("user-1", testState{Kind: "second"})

	if s.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", s.Len())
	}

	state, ok := s.Get("user-1")
	if !ok {
		t.Fatal("expected state to exist")
	}
	if state.Kind != "second" {
		t.Errorf("expected second state, got %q", state.Kind)
	}
}

func TestStore_GetExpiresByTTL(t *testing.T) {
	s := newTestStore(t, Options{TTL: 20 * time.Millisecond})

	s.Set("user-1", testState{Kind: "pending"})
	time.Sleep(40 * time.Millisecond)

	if _, ok := s.Get("user-1"); ok {
		t.Error("expected expired state to be treated as absent")
	}
	// The expired entry is implicitly cleared
	if s.Len() != 0 {
		t.Errorf("expected 0 entries after expiry, got %d", s.Len())
	}
}

func TestStore_ClearIsIdempotent(t *testing.T) {
	s := newTestStore(t, Options{})

	s.Set("user-1", testState{Kind: "pending"})
	s.Clear("user-1")
	s.Clear("user-1")

	if _, ok := s.Get("user-1"); ok {
		t.Error("expected state to be cleared")
	}
}

func TestStore_PruneRemovesExpired(t *testing.T) {
	s := newTestStore(t, Options{TTL: 20 * time.Millisecond})

	s.Set("stale", testState{Kind: "old"})
	time.Sleep(40 * time.Millisecond)
	s.Set("fresh", testState{Kind: "new"})

	removed := s.Prune()
	if removed != 1 {
		t.Errorf("expected 1 pruned entry, got %d", removed)
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("expected fresh entry to survive prune")
	}
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1, err := New[testState](path, Options{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s1.Set("user-1", testState{Kind: "story_confirmation", Notes: "3 tasks"})
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := New[testState](path, Options{})
	if err != nil {
		t.Fatalf("New after restart failed: %v", err)
	}
	defer s2.Close()

	state, ok := s2.Get("user-1")
	if !ok {
		t.Fatal("expected state to survive restart")
	}
	if state.Kind != "story_confirmation" || state.Notes != "3 tasks" {
		t.Errorf("unexpected state after reload: %+v", state)
	}
}

func TestStore_ExpiredEntriesDroppedOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s1, err := New[testState](path, Options{TTL: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s1.Set("user-1", testState{Kind: "tentative"})
	if err := s1.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	time.Sleep(40 * time.Millisecond)

	s2, err := New[testState](path, Options{TTL: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New after restart failed: %v", err)
	}
	defer s2.Close()

	if s2.Len() != 0 {
		t.Errorf("expected expired entries to be dropped on load, got %d", s2.Len())
	}
}

func TestStore_DebouncedFlushCoalesces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s, err := New[testState](path, Options{FlushDelay: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.Set("user-1", testState{Kind: "pending"})
		time.Sleep(5 * time.Millisecond)
	}

	// Wait for the debounce window to elapse and the flush to land
	time.Sleep(100 * time.Millisecond)

	s2, err := New[testState](path, Options{})
	if err != nil {
		t.Fatalf("New after flush failed: %v", err)
	}
	defer s2.Close()

	if _, ok := s2.Get("user-1"); !ok {
		t.Error("expected debounced flush to have persisted the state")
	}
}
