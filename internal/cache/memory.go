package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"
)

const defaultMemorySize = 1024

type memoryEntry struct {
	key     string
	value   []byte
	expires time.Time
}

// MemoryBackend is a size-bounded LRU kept in process memory.
type MemoryBackend struct {
	mu      sync.Mutex
	size    int
	order   *list.List // front = most recently used
	entries map[string]*list.Element
	now     func() time.Time
}

// NewMemoryBackend creates an LRU holding at most size entries.
func NewMemoryBackend(size int) *MemoryBackend {
	if size <= 0 {
		size = defaultMemorySize
	}
	return &MemoryBackend{
		size:    size,
		order:   list.New(),
		entries: make(map[string]*list.Element, size),
		now:     time.Now,
	}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*memoryEntry)
	if !e.expires.IsZero() && m.now().After(e.expires) {
		m.removeElement(el)
		return nil, false, nil
	}
	m.order.MoveToFront(el)
	return e.value, true, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = m.now().Add(ttl)
	}
	if el, ok := m.entries[key]; ok {
		e := el.Value.(*memoryEntry)
		e.value, e.expires = value, expires
		m.order.MoveToFront(el)
		return nil
	}

	m.entries[key] = m.order.PushFront(&memoryEntry{key: key, value: value, expires: expires})
	for m.order.Len() > m.size {
		m.removeElement(m.order.Back())
	}
	return nil
}

func (m *MemoryBackend) DeletePrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for key, el := range m.entries {
		if strings.HasPrefix(key, prefix) {
			m.removeElement(el)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of entries, expired ones included.
func (m *MemoryBackend) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

func (m *MemoryBackend) Close() error { return nil }

func (m *MemoryBackend) removeElement(el *list.Element) {
	m.order.Remove(el)
	delete(m.entries, el.Value.(*memoryEntry).key)
}
