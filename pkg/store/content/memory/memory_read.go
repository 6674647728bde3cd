package memory

import (
	"context"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Read returns a copy of the content stored for ino.
//
// Never-written inodes yield an empty, non-nil slice.
func (s *MemoryContentStore) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[ino]
	if !ok {
		return []byte{}, nil
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
