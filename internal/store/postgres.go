package store

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresEngine stores snapshots in a single table, one row per
// collection. Save performs a compare-and-set on the version column,
// which rejects writes from a process working off a stale snapshot.
type PostgresEngine struct {
	db *sql.DB
}

func NewPostgresEngine(db *sql.DB) *PostgresEngine {
	return &PostgresEngine{db: db}
}

// EnsureSchema creates the snapshots table when it does not exist.
func (e *PostgresEngine) EnsureSchema(ctx context.Context) error {
	_, err := e.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS collection_snapshots (
			name       TEXT PRIMARY KEY,
			version    BIGINT NOT NULL,
			data       JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("create snapshots table: %w", err)
	}
	return nil
}

func (e *PostgresEngine) Load(ctx context.Context, name string) (Snapshot, error) {
	var snap Snapshot
	err := e.db.QueryRowContext(ctx, `
		SELECT version, data
		FROM collection_snapshots
		WHERE name = $1
	`, name).Scan(&snap.Version, &snap.Data)

	if err == sql.ErrNoRows {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot: %w", err)
	}
	return snap, nil
}

func (e *PostgresEngine) Save(ctx context.Context, name string, expectedVersion int64, data []byte) error {
	res, err := e.db.ExecContext(ctx, `
		INSERT INTO collection_snapshots (name, version, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (name) DO UPDATE
		SET version = EXCLUDED.version,
		    data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at
		WHERE collection_snapshots.version = $4
	`, name, expectedVersion+1, data, expectedVersion)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}
