package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS workspace_content (
		namespace TEXT   NOT NULL,
		ino       BIGINT NOT NULL,
		data      BYTEA  NOT NULL,
		PRIMARY KEY (namespace, ino)
	)`,
	`CREATE TABLE IF NOT EXISTS workspace_snapshots (
		namespace  TEXT        NOT NULL,
		name       TEXT        NOT NULL,
		data       BYTEA       NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (namespace, name)
	)`,
}

// ensureSchema creates the tables used by the stores.
func ensureSchema(ctx context.Context, db Client) error {
	err := WithTransaction(ctx, db, func(tx pgx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create postgres schema: %w", err)
	}
	return nil
}
