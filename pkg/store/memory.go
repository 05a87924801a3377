package store

import (
	"context"
	"maps"
	"slices"
	"sync"
)

type memoryStore struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]uint32
	closed     bool
}

// NewMemoryStore returns a non persistent Store. Used for tests and for
// deployments where mappings are rebuilt by reconciliation on every start.
func NewMemoryStore() Store {
	return &memoryStore{
		namespaces: map[string]map[string]uint32{},
	}
}

func (m *memoryStore) Get(_ context.Context, namespace, name string) (uint32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, false, ErrClosed
	}
	idx, exists := m.namespaces[namespace][name]
	return idx, exists, nil
}

func (m *memoryStore) Put(_ context.Context, namespace, name string, index uint32) error {
	if err := validate(namespace, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	ns, exists := m.namespaces[namespace]
	if !exists {
		ns = map[string]uint32{}
		m.namespaces[namespace] = ns
	}
	ns[name] = index
	return nil
}

func (m *memoryStore) Delete(_ context.Context, namespace, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	ns, exists := m.namespaces[namespace]
	if !exists {
		return nil
	}
	delete(ns, name)
	if len(ns) == 0 {
		delete(m.namespaces, namespace)
	}
	return nil
}

func (m *memoryStore) List(_ context.Context, namespace string) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	result := make([]*Entry, 0, len(m.namespaces[namespace]))
	for name, idx := range m.namespaces[namespace] {
		result = append(result, &Entry{Namespace: namespace, Name: name, Index: idx})
	}
	return sortEntries(result), nil
}

func (m *memoryStore) Namespaces(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	return slices.Sorted(maps.Keys(m.namespaces)), nil
}

func (m *memoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
