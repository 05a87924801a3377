package txn

import "sync"

// Scratch is a free form key/value space for handler local state that
// lives as long as the transaction.
type Scratch struct {
	m      *sync.RWMutex
	values map[string]any
}

func newScratch() *Scratch {
	return &Scratch{
		m:      &sync.RWMutex{},
		values: map[string]any{},
	}
}

func (s *Scratch) Get(key string) (any, bool) {
	s.m.RLock()
	defer s.m.RUnlock()
	v, exists := s.values[key]
	return v, exists
}

func (s *Scratch) Put(key string, v any) {
	s.m.Lock()
	defer s.m.Unlock()
	s.values[key] = v
}

func (s *Scratch) Delete(key string) {
	s.m.Lock()
	defer s.m.Unlock()
	delete(s.values, key)
}
