package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Memory is a process-local Store. Values are copied on the way in and out.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return clone(entry.value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = m.entry(value, ttl)
	return nil
}

func (m *Memory) SetMulti(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		m.entries[key] = m.entry(value, 0)
	}
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lookup(key); ok {
		return false, nil
	}
	m.entries[key] = m.entry(value, ttl)
	return true, nil
}

func (m *Memory) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	entry, ok := m.lookup(key)
	if ok {
		parsed, err := strconv.ParseInt(string(entry.value), 10, 64)
		if err != nil {
			return 0, err
		}
		count = parsed
	}
	count++
	if !ok {
		entry = m.entry(nil, ttl)
	}
	entry.value = []byte(strconv.FormatInt(count, 10))
	m.entries[key] = entry
	return count, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

// lookup drops expired entries. Callers hold m.mu.
func (m *Memory) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if entry.expired(m.now()) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *Memory) entry(value []byte, ttl time.Duration) memoryEntry {
	entry := memoryEntry{value: clone(value)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	return entry
}

func clone(value []byte) []byte {
	if value == nil {
		return nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
