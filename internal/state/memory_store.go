package state

import (
	"context"
	"maps"
	"sync"

	"git.home.luguber.info/inful/releasebot/internal/foundation"
)

// MemoryStore is an in-memory Store for tests and dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]string
	calls   MemoryCalls
	fail    map[string]error
}

// MemoryCalls tracks method invocations for test verification.
type MemoryCalls struct {
	Get    int
	Put    int
	Delete int
	// Puts lists every Put in order as key=value.
	Puts []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]string),
		fail:    make(map[string]error),
	}
}

// NewMemoryStoreFrom copies the given records into a new store.
func NewMemoryStoreFrom(records map[string]string) *MemoryStore {
	m := NewMemoryStore()
	maps.Copy(m.records, records)
	return m
}

// FailOn makes the named operation ("get", "put", "delete") return err.
// The operation may be narrowed to one key as "put:last_pin.txt".
// A nil err clears the failure.
func (m *MemoryStore) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, op)
		return
	}
	m.fail[op] = err
}

func (m *MemoryStore) Get(_ context.Context, key string) (foundation.Option[string], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Get++
	if err := m.failure("get", key); err != nil {
		return foundation.None[string](), err
	}
	v, ok := m.records[key]
	if !ok {
		return foundation.None[string](), nil
	}
	return foundation.Some(v), nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++
	if err := m.failure("put", key); err != nil {
		return err
	}
	m.calls.Puts = append(m.calls.Puts, key+"="+value)
	m.records[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++
	if err := m.failure("delete", key); err != nil {
		return err
	}
	delete(m.records, key)
	return nil
}

func (m *MemoryStore) failure(op, key string) error {
	if err := m.fail[op+":"+key]; err != nil {
		return err
	}
	return m.fail[op]
}

func (m *MemoryStore) Close() error { return nil }

// Calls returns a snapshot of the call counters.
func (m *MemoryStore) Calls() MemoryCalls {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.calls
	c.Puts = append([]string(nil), m.calls.Puts...)
	return c
}

// Snapshot returns a copy of all records.
func (m *MemoryStore) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.records)
}
