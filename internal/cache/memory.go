package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-process set of keys that each expire at a fixed
// instant. Expired keys are dropped lazily and by Sweep.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]time.Time
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]time.Time), now: time.Now}
}

func (m *MemoryStore) Add(key string, until time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.items[key]; ok && cur.After(until) {
		return
	}
	m.items[key] = until
}

func (m *MemoryStore) Contains(key string) bool {
	m.mu.RLock()
	until, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if m.now().Before(until) {
		return true
	}

	m.mu.Lock()
	if cur, ok := m.items[key]; ok && !m.now().Before(cur) {
		delete(m.items, key)
	}
	m.mu.Unlock()
	return false
}

// Sweep removes every expired key and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for k, until := range m.items {
		if !now.Before(until) {
			delete(m.items, k)
			removed++
		}
	}
	return removed
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
