package fluxbind

import "sync"

// MapStore is a keyed in-memory store.
//
// Get subscribes the building owner to the key that was read; Keys and
// Snapshot subscribe it to the whole store via KeyAll. Set and Delete
// publish a change for the affected key when the value actually changed,
// using the package Equal comparison.
type MapStore struct {
	StoreBase

	values map[StoreKey]any
	mu     sync.RWMutex
}

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{
		StoreBase: NewStoreBase(),
		values:    make(map[StoreKey]any),
	}
}

// Get returns the value for key and records the read with the active build.
// Returns nil for a missing key; reading a missing key still subscribes, so
// the owner rebuilds when the key appears.
func (s *MapStore) Get(key StoreKey) any {
	s.mu.RLock()
	value := s.values[key]
	s.mu.RUnlock()

	RecordRead(s, key)
	return value
}

// Peek returns the value for key without recording a read.
// Use this outside the build phase, where Get would panic.
func (s *MapStore) Peek(key StoreKey) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Keys returns every key present in the store and records a KeyAll read:
// the owner depends on the store's whole key set, not one entry.
func (s *MapStore) Keys() []StoreKey {
	s.mu.RLock()
	keys := make([]StoreKey, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	RecordRead(s, KeyAll)
	return keys
}

// Snapshot returns a copy of the store's contents and records a KeyAll read.
func (s *MapStore) Snapshot() map[StoreKey]any {
	s.mu.RLock()
	snap := make(map[StoreKey]any, len(s.values))
	for k, v := range s.values {
		snap[k] = v
	}
	s.mu.RUnlock()

	RecordRead(s, KeyAll)
	return snap
}

// Len returns the number of keys in the store without recording a read.
func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Set stores value under key and publishes a change if the value differs
// from the current one.
func (s *MapStore) Set(key StoreKey, value any) {
	s.mu.Lock()
	old, existed := s.values[key]
	changed := !existed || !Equal(old, value)
	if changed {
		s.values[key] = value
	}
	s.mu.Unlock()

	if changed {
		s.Publish(key)
	}
}

// Delete removes key and publishes a change if the key existed.
func (s *MapStore) Delete(key StoreKey) {
	s.mu.Lock()
	_, existed := s.values[key]
	if existed {
		delete(s.values, key)
	}
	s.mu.Unlock()

	if existed {
		s.Publish(key)
	}
}

// PublishAll notifies every subscription on this store, regardless of key.
// Use this after bulk mutations applied through means other than Set.
func (s *MapStore) PublishAll() {
	s.Publish(KeyAll)
}
