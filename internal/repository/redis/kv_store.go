package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/phamyourfam/blissbite/internal/core/port"
	"github.com/phamyourfam/blissbite/internal/repository"
)

const defaultKVPrefix = "blissbite"

// KeyValueStore keeps the ephemeral signup records as plain string keys
// of the form prefix:namespace:key, relying on Redis expiry.
type KeyValueStore struct {
	client *red.Client
	prefix string
}

// NewKeyValueStore constructs a Redis-backed ephemeral store.
func NewKeyValueStore(client *red.Client, keyPrefix string) *KeyValueStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultKVPrefix
	}
	return &KeyValueStore{client: client, prefix: prefix}
}

// Get returns the value or repository.ErrNotFound when the key is absent or expired.
func (s *KeyValueStore) Get(ctx context.Context, namespace, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(namespace, key)).Result()
	if errors.Is(err, red.Nil) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get: %w", err)
	}
	return value, nil
}

// Set overwrites the value and restarts its TTL.
func (s *KeyValueStore) Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}
	if err := s.client.Set(ctx, s.key(namespace, key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes the key. Missing keys are ignored.
func (s *KeyValueStore) Delete(ctx context.Context, namespace, key string) error {
	if err := s.client.Del(ctx, s.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *KeyValueStore) key(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, namespace, key)
}

var _ port.KeyValueStore = (*KeyValueStore)(nil)
