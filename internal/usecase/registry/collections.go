package registry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"testvault/internal/bootstrap/logging"
	"testvault/internal/errs"
	"testvault/internal/ports"
)

// loadCollection reads and decodes one collection. A missing key or a value
// that fails to parse yields the empty collection: corruption is treated as
// absent, not fatal. Only storage access failures surface as errors.
func loadCollection[T any](ctx context.Context, kv ports.KVStore, key string) ([]T, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return nil, errs.Wrapf(err, "read collection %q", key)
	}
	if !found {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logging.Warn(ctx, "collection failed to parse, treating as empty",
			slog.String("component", "registry"),
			slog.String("key", key),
			slog.Any("err", errs.Loggable(err)))
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// saveCollection encodes and writes one collection. A quota rejection from
// the store propagates unmodified so callers can match ports.ErrQuotaExceeded.
func saveCollection[T any](ctx context.Context, kv ports.KVStore, key string, items []T) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if items == nil {
		items = []T{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return errs.Wrapf(err, "encode collection %q", key)
	}
	if err := kv.Set(ctx, key, string(raw)); err != nil {
		return errs.Wrapf(err, "write collection %q", key)
	}
	return nil
}
