// Package memory holds process-local store implementations for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/repository"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// KeyValueStore is a mutex-guarded map with lazy expiry on read.
type KeyValueStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// Option customises a KeyValueStore.
type Option func(*KeyValueStore)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *KeyValueStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewKeyValueStore returns an empty store.
func NewKeyValueStore(opts ...Option) *KeyValueStore {
	s := &KeyValueStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns repository.ErrNotFound for absent keys and evicts expired ones.
func (s *KeyValueStore) Get(_ context.Context, namespace, key string) (string, error) {
	k := namespace + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[k]
	if !ok {
		return "", repository.ErrNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, k)
		return "", repository.ErrNotFound
	}
	return e.value, nil
}

// Set stores value until now+ttl, replacing any previous entry.
func (s *KeyValueStore) Set(_ context.Context, namespace, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	s.mu.Lock()
	s.entries[namespace+":"+key] = entry{value: value, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// Delete removes the key if present.
func (s *KeyValueStore) Delete(_ context.Context, namespace, key string) error {
	s.mu.Lock()
	delete(s.entries, namespace+":"+key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (s *KeyValueStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ port.KeyValueStore = (*KeyValueStore)(nil)
