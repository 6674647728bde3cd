package memory

import (
	"context"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Write replaces the content for ino with a copy of data.
func (s *MemoryContentStore) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[ino] = stored
	return nil
}

// Delete removes the content for ino. Absent content is not an error.
func (s *MemoryContentStore) Delete(ctx context.Context, ino vfs.Ino) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, ino)
	return nil
}
