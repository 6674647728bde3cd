package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	badger "github.com/dgraph-io/badger/v4"
)

// SnapshotStore implements snapshot.Store on the shared DB.
type SnapshotStore struct {
	db *DB
}

// Load implements snapshot.Store.
func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return nil, false, err
	}

	var data []byte
	err := s.db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keySnapshot(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot %q: %w", name, err)
	}
	return data, true, nil
}

// Save implements snapshot.Store.
func (s *SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snapshot.ValidateName(name); err != nil {
		return err
	}

	value := make([]byte, len(data))
	copy(value, data)

	err := s.db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keySnapshot(name), value)
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", name, err)
	}
	return nil
}
