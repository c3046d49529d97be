package storage

import (
	"context"
	"sync"
	"time"
)

// KeyValue is the browser-storage contract shared by every backend.
// Get reports a missing key as ok == false with a nil error.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

var (
	_ KeyValue = (*MemoryStore)(nil)
	_ KeyValue = (*RedisStore)(nil)
	_ KeyValue = (*PostgresStore)(nil)
	_ KeyValue = (*Namespace)(nil)
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps values in process memory. A zero TTL means no expiry.
type MemoryStore struct {
	TTL time.Duration

	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	e := memoryEntry{value: value}
	if m.TTL > 0 {
		e.expiresAt = m.now().Add(m.TTL)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Namespace prefixes every key, scoping a shared store to one profile.
type Namespace struct {
	Store  KeyValue
	Prefix string
}

func NewNamespace(store KeyValue, parts ...string) *Namespace {
	prefix := ""
	for _, p := range parts {
		prefix += p + ":"
	}
	return &Namespace{Store: store, Prefix: prefix}
}

func (n *Namespace) Get(ctx context.Context, key string) (string, bool, error) {
	return n.Store.Get(ctx, n.Prefix+key)
}

func (n *Namespace) Set(ctx context.Context, key, value string) error {
	return n.Store.Set(ctx, n.Prefix+key, value)
}

func (n *Namespace) Delete(ctx context.Context, key string) error {
	return n.Store.Delete(ctx, n.Prefix+key)
}
