// Package storage holds the key-value blob stores the task list persists into.
// Each store keeps one string value per key; the task list only ever uses one key.
package storage

import (
	"context"
)

// KV is a key-value string store. Get reports ok=false when the key has never been set.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}
