package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	badger "github.com/dgraph-io/badger/v4"
)

// ContentStore implements content.Store on the shared DB.
//
// Thread Safety:
// BadgerDB transactions are MVCC; every operation runs in its own
// transaction and needs no extra locking.
type ContentStore struct {
	db *DB
}

// Read implements content.Store.
func (s *ContentStore) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyContent(ino))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return []byte{}, nil
		}
		return nil, mapError(fmt.Errorf("failed to read content %d: %w", ino, err))
	}

	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write implements content.Store.
func (s *ContentStore) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.db.maxValueSize > 0 && int64(len(data)) > s.db.maxValueSize {
		return fmt.Errorf("write content %d (%d bytes): %w", ino, len(data), content.ErrTooLarge)
	}

	// Badger may retain the slice until commit; hand it a private copy.
	value := make([]byte, len(data))
	copy(value, data)

	err := s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyContent(ino), value)
	})
	if err != nil {
		return mapError(fmt.Errorf("failed to write content %d: %w", ino, err))
	}
	return nil
}

// Delete implements content.Store.
func (s *ContentStore) Delete(ctx context.Context, ino vfs.Ino) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyContent(ino))
	})
	if err != nil {
		return mapError(fmt.Errorf("failed to delete content %d: %w", ino, err))
	}
	return nil
}

// List returns every inode with stored content in ascending order.
func (s *ContentStore) List(ctx context.Context) ([]vfs.Ino, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var inos []vfs.Ino
	err := s.scan(func(ino vfs.Ino, _ int64) {
		inos = append(inos, ino)
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to list content: %w", err))
	}
	return inos, nil
}

// GetStorageStats implements content.StatsProvider.
func (s *ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var count, used uint64
	err := s.scan(func(_ vfs.Ino, size int64) {
		count++
		used += uint64(size)
	})
	if err != nil {
		return nil, mapError(fmt.Errorf("failed to compute content stats: %w", err))
	}
	return content.NewStorageStats(count, used), nil
}

// scan iterates over content keys without fetching values.
func (s *ContentStore) scan(fn func(ino vfs.Ino, size int64)) error {
	return s.db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefixContent)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if ino, ok := inoFromContentKey(item.Key()); ok {
				fn(ino, item.ValueSize())
			}
		}
		return nil
	})
}

// mapError tags errors from a closed database with content.ErrClosed.
func mapError(err error) error {
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %w", content.ErrClosed, err)
	}
	return err
}
