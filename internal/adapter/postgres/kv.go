package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/driver-presence/internal/domain/types"
	"github.com/Temutjin2k/driver-presence/pkg/metrics"
	"github.com/jackc/pgx/v5"
)

// KVRepo keeps the persisted keys in a single table. A row is only replaced
// by a write that is at least as new, a nil value marks a deleted key.
type KVRepo struct {
	db Querier
}

func NewKVRepo(db Querier) *KVRepo {
	return &KVRepo{
		db: db,
	}
}

// Migrate creates the kv_store table when it does not exist.
func (r *KVRepo) Migrate(ctx context.Context) error {
	const op = "KVRepo.Migrate"
	query := `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      BYTEA,
			updated_at TIMESTAMPTZ NOT NULL
		)`

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, error) {
	const op = "KVRepo.Get"
	query := `
		SELECT value FROM kv_store
		WHERE key = $1`

	var value []byte
	err := r.db.QueryRow(ctx, query, key).Scan(&value)
	metrics.RecordStoreOperation(types.StorePostgres, "get", ignoreNoRows(err))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if value == nil {
		return nil, types.ErrNotFound
	}

	return value, nil
}

func (r *KVRepo) Set(ctx context.Context, key string, value []byte, at time.Time) error {
	const op = "KVRepo.Set"
	if value == nil {
		value = []byte{}
	}
	if err := r.upsert(ctx, key, value, at); err != nil {
		metrics.RecordStoreOperation(types.StorePostgres, "set", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordStoreOperation(types.StorePostgres, "set", nil)
	return nil
}

func (r *KVRepo) Delete(ctx context.Context, key string, at time.Time) error {
	const op = "KVRepo.Delete"
	if err := r.upsert(ctx, key, nil, at); err != nil {
		metrics.RecordStoreOperation(types.StorePostgres, "delete", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordStoreOperation(types.StorePostgres, "delete", nil)
	return nil
}

func (r *KVRepo) upsert(ctx context.Context, key string, value []byte, at time.Time) error {
	query := `
		INSERT INTO kv_store(key, value, updated_at)
		VALUES($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		WHERE kv_store.updated_at <= EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query, key, value, at.UTC())
	return err
}

func ignoreNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}
