package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// VersionStore implements storage.VersionStore using PostgreSQL.
type VersionStore struct {
	pool *Pool
}

// NewVersionStore creates a new VersionStore.
func NewVersionStore(pool *Pool) *VersionStore {
	return &VersionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.VersionStore = (*VersionStore)(nil)

// Insert adds a new version. Returns ErrDuplicateKey if (strategy, version) exists.
func (s *VersionStore) Insert(ctx context.Context, v *domain.StrategyVersion) error {
	if v.Strategy == "" || v.Version == "" {
		return storage.ErrInvalidInput
	}

	params, err := json.Marshal(paramsOrEmpty(v.Parameters))
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}

	query := `
		INSERT INTO strategy_versions (
			strategy, version, state, content_hash, parameters, created_at, updated_at, promoted_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		v.Strategy,
		v.Version,
		string(v.State),
		v.ContentHash,
		params,
		v.CreatedAt,
		v.UpdatedAt,
		v.PromotedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// Get retrieves one version. Returns ErrNotFound if not exists.
func (s *VersionStore) Get(ctx context.Context, strategy, version string) (*domain.StrategyVersion, error) {
	query := `
		SELECT strategy, version, state, content_hash, parameters, created_at, updated_at, promoted_at
		FROM strategy_versions
		WHERE strategy = $1 AND version = $2
	`

	row := s.pool.QueryRow(ctx, query, strategy, version)
	v, err := scanVersion(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get version: %w", err)
	}
	return v, nil
}

// GetByStrategy retrieves all versions of a strategy, ordered by created-at ASC.
func (s *VersionStore) GetByStrategy(ctx context.Context, strategy string) ([]*domain.StrategyVersion, error) {
	query := `
		SELECT strategy, version, state, content_hash, parameters, created_at, updated_at, promoted_at
		FROM strategy_versions
		WHERE strategy = $1
		ORDER BY created_at ASC, version ASC
	`

	rows, err := s.pool.Query(ctx, query, strategy)
	if err != nil {
		return nil, fmt.Errorf("get versions by strategy: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

// GetByState retrieves all versions currently in the given state.
func (s *VersionStore) GetByState(ctx context.Context, state domain.DeploymentState) ([]*domain.StrategyVersion, error) {
	query := `
		SELECT strategy, version, state, content_hash, parameters, created_at, updated_at, promoted_at
		FROM strategy_versions
		WHERE state = $1
		ORDER BY created_at ASC, strategy ASC, version ASC
	`

	rows, err := s.pool.Query(ctx, query, string(state))
	if err != nil {
		return nil, fmt.Errorf("get versions by state: %w", err)
	}
	defer rows.Close()

	return scanVersions(rows)
}

// UpdateState moves a version to a new state, stamping updated-at and,
// when promotedAt is non-nil, promoted-at.
func (s *VersionStore) UpdateState(ctx context.Context, strategy, version string, state domain.DeploymentState, promotedAt *time.Time) error {
	query := `
		UPDATE strategy_versions
		SET state = $3, updated_at = now(), promoted_at = COALESCE($4, promoted_at)
		WHERE strategy = $1 AND version = $2
	`

	tag, err := s.pool.Exec(ctx, query, strategy, version, string(state), promotedAt)
	if err != nil {
		return fmt.Errorf("update version state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func paramsOrEmpty(p map[string]string) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return p
}

// scanVersion scans a single row into a StrategyVersion.
func scanVersion(row pgx.Row) (*domain.StrategyVersion, error) {
	var v domain.StrategyVersion
	var stateStr string
	var params []byte

	err := row.Scan(
		&v.Strategy,
		&v.Version,
		&stateStr,
		&v.ContentHash,
		&params,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.PromotedAt,
	)
	if err != nil {
		return nil, err
	}

	v.State = domain.DeploymentState(stateStr)
	if err := json.Unmarshal(params, &v.Parameters); err != nil {
		return nil, fmt.Errorf("unmarshal parameters: %w", err)
	}
	return &v, nil
}

// scanVersions scans multiple rows into a slice of StrategyVersion.
func scanVersions(rows pgx.Rows) ([]*domain.StrategyVersion, error) {
	var versions []*domain.StrategyVersion

	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version row: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate version rows: %w", err)
	}

	return versions, nil
}
