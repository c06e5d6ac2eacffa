package registry

import (
	"context"
	"fmt"
	"time"

	"testvault/internal/ports"
)

// fakeKV is a map-backed KVStore for tests.
type fakeKV struct {
	data   map[string]string
	setErr error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

var _ ports.KVStore = (*fakeKV)(nil)

// newTestService wires a Service over a fake store with a fixed clock, a
// fixed user and a counting id generator ("id-1", "id-2", ...).
func newTestService(kv *fakeKV) *Service {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	counter := 0
	svc := NewService(kv,
		ports.ClockFunc(func() time.Time { return at }),
		ports.IdentityFunc(func() string { return "tester" }),
	)
	return svc.WithIDGenerator(func() string {
		counter++
		return fmt.Sprintf("id-%d", counter)
	})
}
