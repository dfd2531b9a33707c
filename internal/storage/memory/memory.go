// Package memory implements storage.Slots in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/kart-storefront/internal/storage"
)

var _ storage.Slots = (*Slots)(nil)

type slotKey struct {
	session string
	key     string
}

// Slots keeps values in a map. Values are copied on the way in and out.
type Slots struct {
	mu     sync.RWMutex
	values map[slotKey][]byte
}

// New returns empty in-memory slots.
func New() *Slots {
	return &Slots{values: make(map[slotKey][]byte)}
}

// Get returns a copy of the stored value or storage.ErrNotFound.
func (s *Slots) Get(_ context.Context, session, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[slotKey{session, key}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set stores a copy of value.
func (s *Slots) Set(_ context.Context, session, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[slotKey{session, key}] = append([]byte(nil), value...)
	return nil
}
