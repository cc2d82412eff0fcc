// Package convstate persists at most one pending interaction per user, with
// staleness expiry. The on-disk layout is a single JSON object mapping user
// identifiers to entries; writes are debounced and atomic so a crash mid-write
// cannot corrupt the file.
package convstate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/attent-app/attent/log"
)

var logger = log.GetLogger("ConvState")

const (
	// DefaultTTL is how long a pending interaction stays answerable
	DefaultTTL = 30 * time.Minute

	// DefaultFlushDelay coalesces rapid writes into one disk flush
	DefaultFlushDelay = time.Second

	// DefaultPruneInterval is how often expired entries are swept
	DefaultPruneInterval = 10 * time.Minute
)

// Options configures a Store
type Options struct {
	TTL        time.Duration
	FlushDelay time.Duration
}

// entry wraps a stored state with the timestamp used for staleness
type entry[T any] struct {
	State     T         `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store is a durable per-user key/value store holding at most one pending
// state per user. The in-memory map is authoritative; disk persistence is
// best-effort and failures only degrade restart survival.
type Store[T any] struct {
	path       string
	ttl        time.Duration
	flushDelay time.Duration

	mu      sync.Mutex
	entries map[string]entry[T]
	dirty   bool
	timer   *time.Timer
	closed  bool
}

// New creates a store persisted at path, loading any prior state. Entries
// already past the TTL are silently discarded on load.
func New[T any](path string, opts Options) (*Store[T], error) {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = DefaultFlushDelay
	}

	s := &Store[T]{
		path:       path,
		ttl:        opts.TTL,
		flushDelay: opts.FlushDelay,
		entries:    make(map[string]entry[T]),
	}

	if err := s.load(); err != nil {
		// Corrupt or unreadable state file: start empty rather than fail
		logger.Error().Err(err).Str("path", path).Msg("failed to load conversation state")
	}

	return s, nil
}

// Set stores the pending state for a user, stamping it with the current time.
// Any prior state for that user is overwritten.
func (s *Store[T]) Set(userID string, state T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = entry[T]{State: state, CreatedAt: time.Now().UTC()}
	s.markDirtyLocked()
}

// Get returns the stored state for a user. An entry older than the TTL is
// treated as absent and cleared.
func (s *Store[T]) Get(userID string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	e, ok := s.entries[userID]
	if !ok {
		return zero, false
	}

	if time.Since(e.CreatedAt) > s.ttl {
		delete(s.entries, userID)
		s.markDirtyLocked()
		logger.Debug().Str("user", userID).Msg("pending interaction expired")
		return zero, false
	}

	return e.State, true
}

// Clear removes the stored state for a user. Clearing an absent user is a
// no-op.
func (s *Store[T]) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[userID]; !ok {
		return
	}
	delete(s.entries, userID)
	s.markDirtyLocked()
}

// Prune removes all expired entries and returns how many were removed.
// Get already filters by age, so this is a hygiene pass only.
func (s *Store[T]) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, e := range s.entries {
		if time.Since(e.CreatedAt) > s.ttl {
			delete(s.entries, userID)
			removed++
		}
	}
	if removed > 0 {
		s.markDirtyLocked()
		logger.Debug().Int("removed", removed).Msg("pruned expired conversation state")
	}
	return removed
}

// StartPruning runs Prune on the given interval until the context is
// cancelled.
func (s *Store[T]) StartPruning(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Prune()
			}
		}
	}()
}

// Len returns the number of stored entries, expired or not
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close cancels any pending flush and writes the current state synchronously
func (s *Store[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	dirty := s.dirty
	s.dirty = false
	s.mu.Unlock()

	if dirty {
		return s.flush()
	}
	return nil
}

// markDirtyLocked schedules a debounced flush. Caller must hold s.mu.
func (s *Store[T]) markDirtyLocked() {
	s.dirty = true
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Reset(s.flushDelay)
		return
	}
	s.timer = time.AfterFunc(s.flushDelay, func() {
		s.mu.Lock()
		if !s.dirty || s.closed {
			s.mu.Unlock()
			return
		}
		s.dirty = false
		s.mu.Unlock()

		if err := s.flush(); err != nil {
			// In-memory state stays authoritative for this process lifetime
			logger.Error().Err(err).Str("path", s.path).Msg("failed to persist conversation state")
		}
	})
}

// flush writes the whole map atomically (write temp, then rename)
func (s *Store[T]) flush() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".convstate-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Rename(tmpPath, s.path)
}

// load reads the state file, dropping entries already past the TTL
func (s *Store[T]) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var entries map[string]entry[T]
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}

	loaded := 0
	for userID, e := range entries {
		if time.Since(e.CreatedAt) > s.ttl {
			continue
		}
		s.entries[userID] = e
		loaded++
	}

	if loaded > 0 {
		logger.Info().Int("entries", loaded).Msg("restored conversation state")
	}
	return nil
}
