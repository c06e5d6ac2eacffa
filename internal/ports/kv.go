package ports

import "context"

// KVStore defines the generic key-value capability the repositories are
// built on. Adapters may be backed by SQLite or an in-memory map; values
// are pre-serialized blobs keyed by collection name.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
