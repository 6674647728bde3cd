package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/store/snapshot"
	"github.com/jackc/pgx/v5"
)

// SnapshotStore implements snapshot.Store on the shared pool.
type SnapshotStore struct {
	db *DB
}

// Load implements snapshot.Store.
func (s *SnapshotStore) Load(ctx context.Context, name string) ([]byte, bool, error) {
	const op = "postgres.SnapshotStore.Load"

	if err := snapshot.ValidateName(name); err != nil {
		return nil, false, err
	}
	client, err := s.db.client()
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT data
		FROM workspace_snapshots
		WHERE namespace = $1 AND name = $2
	`

	var data []byte
	err = client.QueryRow(ctx, query, s.db.namespace, name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s %q: %w", op, name, err)
	}
	return data, true, nil
}

// Save implements snapshot.Store.
func (s *SnapshotStore) Save(ctx context.Context, name string, data []byte) error {
	const op = "postgres.SnapshotStore.Save"

	if err := snapshot.ValidateName(name); err != nil {
		return err
	}
	client, err := s.db.client()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO workspace_snapshots (namespace, name, data, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (namespace, name)
		DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`

	if data == nil {
		data = []byte{}
	}
	if _, err := client.Exec(ctx, query, s.db.namespace, name, data); err != nil {
		return fmt.Errorf("%s %q: %w", op, name, err)
	}
	return nil
}
