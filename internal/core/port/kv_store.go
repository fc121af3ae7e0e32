package port

import (
	"context"
	"time"
)

// KeyValueStore is a namespaced ephemeral store with per-entry expiry.
// Get returns repository.ErrNotFound for absent or expired keys.
type KeyValueStore interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, namespace, key string) error
}
