// Package memory implements an in-memory snapshot store.
package memory

import (
	"context"
	"sync"

	"github.com/auditforge/workspacefs/pkg/store/snapshot"
)

// Store keeps snapshots in a map. Values are copied on save and load.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates an empty in-memory snapshot store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Load implements snapshot.Store.
func (s *Store) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[name]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Save implements snapshot.Store.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.data[name] = stored
	s.mu.Unlock()
	return nil
}
