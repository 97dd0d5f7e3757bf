package postgres

import (
	"context"
	"fmt"

	"strategy-supervisor/internal/storage"
)

// SystemStateStore implements storage.SystemStateStore using PostgreSQL.
type SystemStateStore struct {
	pool *Pool
}

// NewSystemStateStore creates a new SystemStateStore.
func NewSystemStateStore(pool *Pool) *SystemStateStore {
	return &SystemStateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SystemStateStore = (*SystemStateStore)(nil)

const upsertStateQuery = `
	INSERT INTO system_state (key, value, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`

// Set writes one key.
func (s *SystemStateStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, upsertStateQuery, key, value)
	if err != nil {
		return fmt.Errorf("set system state: %w", err)
	}
	return nil
}

// SetMulti writes several keys in one transaction. Either all keys land
// or none do.
func (s *SystemStateStore) SetMulti(ctx context.Context, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	for k := range kv {
		if k == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin system state tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for k, v := range kv {
		if _, err := tx.Exec(ctx, upsertStateQuery, k, v); err != nil {
			return fmt.Errorf("set system state %q: %w", k, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit system state tx: %w", err)
	}
	return nil
}

// Get reads one key. Returns ErrNotFound if the key was never set.
func (s *SystemStateStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM system_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("get system state: %w", err)
	}
	return value, nil
}
