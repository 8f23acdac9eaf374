package memory

import (
	"context"
	"sync"
)

// KV is a map-backed key-value store. Values are copied on the way in and
// on the way out.
type KV struct {
	mu    sync.Mutex
	items map[string][]byte
}

func New() *KV {
	return &KV{items: make(map[string][]byte)}
}

// NewWithData seeds the store, mainly for tests.
func NewWithData(seed map[string][]byte) *KV {
	kv := New()
	for k, v := range seed {
		kv.items[k] = append([]byte(nil), v...)
	}
	return kv
}

// Get implements persist.KV
func (s *KV) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set implements persist.KV
func (s *KV) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	return nil
}

// Delete removes key. Used to simulate the user clearing storage.
func (s *KV) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}
