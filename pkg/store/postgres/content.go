package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/jackc/pgx/v5"
)

// ContentStore implements content.Store on the shared pool.
//
// Every operation is a single statement, so no extra locking is needed.
type ContentStore struct {
	db *DB
}

// Read implements content.Store.
func (s *ContentStore) Read(ctx context.Context, ino vfs.Ino) ([]byte, error) {
	const op = "postgres.ContentStore.Read"

	client, err := s.db.client()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT data
		FROM workspace_content
		WHERE namespace = $1 AND ino = $2
	`

	var data []byte
	err = client.QueryRow(ctx, query, s.db.namespace, int64(ino)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []byte{}, nil
		}
		return nil, fmt.Errorf("%s %d: %w", op, ino, err)
	}

	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// Write implements content.Store.
func (s *ContentStore) Write(ctx context.Context, ino vfs.Ino, data []byte) error {
	const op = "postgres.ContentStore.Write"

	if s.db.maxValueSize > 0 && int64(len(data)) > s.db.maxValueSize {
		return fmt.Errorf("%s %d (%d bytes): %w", op, ino, len(data), content.ErrTooLarge)
	}

	client, err := s.db.client()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		INSERT INTO workspace_content (namespace, ino, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (namespace, ino)
		DO UPDATE SET data = EXCLUDED.data
	`

	if data == nil {
		data = []byte{}
	}
	if _, err := client.Exec(ctx, query, s.db.namespace, int64(ino), data); err != nil {
		return fmt.Errorf("%s %d: %w", op, ino, err)
	}
	return nil
}

// Delete implements content.Store.
func (s *ContentStore) Delete(ctx context.Context, ino vfs.Ino) error {
	const op = "postgres.ContentStore.Delete"

	client, err := s.db.client()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `
		DELETE FROM workspace_content
		WHERE namespace = $1 AND ino = $2
	`

	if _, err := client.Exec(ctx, query, s.db.namespace, int64(ino)); err != nil {
		return fmt.Errorf("%s %d: %w", op, ino, err)
	}
	return nil
}

// List returns every inode with stored content in ascending order.
func (s *ContentStore) List(ctx context.Context) ([]vfs.Ino, error) {
	const op = "postgres.ContentStore.List"

	client, err := s.db.client()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT ino
		FROM workspace_content
		WHERE namespace = $1
		ORDER BY ino
	`

	rows, err := client.Query(ctx, query, s.db.namespace)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	inos := make([]vfs.Ino, 0, len(raw))
	for _, ino := range raw {
		inos = append(inos, vfs.Ino(ino))
	}
	return inos, nil
}

// GetStorageStats implements content.StatsProvider.
func (s *ContentStore) GetStorageStats(ctx context.Context) (*content.StorageStats, error) {
	const op = "postgres.ContentStore.GetStorageStats"

	client, err := s.db.client()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `
		SELECT count(*), coalesce(sum(octet_length(data)), 0)
		FROM workspace_content
		WHERE namespace = $1
	`

	var count, used int64
	if err := client.QueryRow(ctx, query, s.db.namespace).Scan(&count, &used); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return content.NewStorageStats(uint64(count), uint64(used)), nil
}
