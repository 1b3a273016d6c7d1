// Package memory is an in-process db.Store with per-key expiry.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kailas-cloud/kmlfilter/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// Store keeps values in a map. Expired keys are dropped lazily on access
// and when room is needed for a new key.
type Store struct {
	mu       sync.Mutex
	data     map[string]entry
	capacity int
	now      func() time.Time
}

// NewStore creates a store holding at most capacity keys; 0 means unbounded.
func NewStore(capacity int) *Store {
	return &Store{data: make(map[string]entry), capacity: capacity, now: time.Now}
}

// WithClock replaces the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops every key.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.data)
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(e.value), nil
}

// Set stores a value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value that expires after ttl; ttl <= 0 never expires.
// When the store is at capacity, expired keys are purged first, then the
// key closest to expiry is evicted.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: slices.Clone(value)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}

	if _, exists := s.live(key); !exists && s.capacity > 0 && len(s.data) >= s.capacity {
		s.purge()
		if len(s.data) >= s.capacity && !s.evictOne() {
			return &db.Error{Op: db.OpSet, Err: db.ErrStoreFull}
		}
	}
	s.data[key] = e
	return nil
}

// Del removes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Exists reports whether key is present and not expired.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.live(key)
	return ok, nil
}

// Len returns the number of stored keys, including expired ones not yet purged.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// live returns the entry for key, deleting it if expired. Caller holds mu.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.data, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) purge() {
	now := s.now()
	for k, e := range s.data {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(s.data, k)
		}
	}
}

// evictOne drops the expiring key with the earliest deadline. Keys
// without expiry are never evicted.
func (s *Store) evictOne() bool {
	var (
		victim string
		first  time.Time
	)
	for k, e := range s.data {
		if e.expires.IsZero() {
			continue
		}
		if first.IsZero() || e.expires.Before(first) {
			victim, first = k, e.expires
		}
	}
	if first.IsZero() {
		return false
	}
	delete(s.data, victim)
	return true
}
