package memory

import (
	"context"
	"sync"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
)

// MemoryContentStore implements content.Store using in-memory storage.
//
// This implementation stores all content in a map. It's designed for:
//   - Testing and development
//   - Ephemeral workspaces that are never persisted
//
// Characteristics:
//   - Fast: All operations are memory-speed
//   - Volatile: Data lost on restart
//   - Thread-safe: Protected by RWMutex
//
// Implemented Interfaces:
//   - content.Store
//   - content.Lister
//   - content.StatsProvider
//
// Thread Safety:
// Multiple concurrent readers are allowed, but writes are exclusive. Copying
// data on read/write prevents data races with caller-owned buffers.
type MemoryContentStore struct {
	// data stores file content keyed by inode
	data map[vfs.Ino][]byte

	// mu protects concurrent access to data map
	mu sync.RWMutex
}

// NewMemoryContentStore creates a new, empty in-memory content store.
//
// Returns an error only if ctx is already cancelled.
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		data: make(map[vfs.Ino][]byte),
	}, nil
}

// GetStorageStats returns statistics calculated from the current state.
func (s *MemoryContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	usedSize := uint64(0)
	for _, data := range s.data {
		usedSize += uint64(len(data))
	}

	return content.NewStorageStats(uint64(len(s.data)), usedSize), nil
}

// List returns every inode with stored content, in no particular order.
func (s *MemoryContentStore) List(ctx context.Context) ([]vfs.Ino, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	inos := make([]vfs.Ino, 0, len(s.data))
	for ino := range s.data {
		inos = append(inos, ino)
	}
	return inos, nil
}
