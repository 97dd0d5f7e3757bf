package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// DeploymentStore implements storage.DeploymentStore using PostgreSQL.
type DeploymentStore struct {
	pool *Pool
}

// NewDeploymentStore creates a new DeploymentStore.
func NewDeploymentStore(pool *Pool) *DeploymentStore {
	return &DeploymentStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DeploymentStore = (*DeploymentStore)(nil)

// Insert adds a new deployment. Returns ErrDuplicateKey if the
// (strategy, version, environment) row exists.
func (s *DeploymentStore) Insert(ctx context.Context, d *domain.StrategyDeployment) error {
	if d.Strategy == "" || d.Version == "" || d.Environment == "" {
		return storage.ErrInvalidInput
	}

	perf, err := marshalPerformance(d.Performance)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO strategy_deployments (
			strategy, version, environment, state, shadow_mode, deployed_at, last_eval_at, performance
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = s.pool.Exec(ctx, query,
		d.Strategy,
		d.Version,
		string(d.Environment),
		string(d.State),
		d.ShadowMode,
		d.DeployedAt,
		d.LastEvalAt,
		perf,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert deployment: %w", err)
	}
	return nil
}

// Get retrieves one deployment. Returns ErrNotFound if not exists.
func (s *DeploymentStore) Get(ctx context.Context, strategy, version string, env domain.Environment) (*domain.StrategyDeployment, error) {
	query := `
		SELECT strategy, version, environment, state, shadow_mode, deployed_at, last_eval_at, performance
		FROM strategy_deployments
		WHERE strategy = $1 AND version = $2 AND environment = $3
	`

	row := s.pool.QueryRow(ctx, query, strategy, version, string(env))
	d, err := scanDeployment(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get deployment: %w", err)
	}
	return d, nil
}

// GetByEnvironment retrieves all deployments in an environment, ordered by
// deployed-at ASC.
func (s *DeploymentStore) GetByEnvironment(ctx context.Context, env domain.Environment) ([]*domain.StrategyDeployment, error) {
	query := `
		SELECT strategy, version, environment, state, shadow_mode, deployed_at, last_eval_at, performance
		FROM strategy_deployments
		WHERE environment = $1
		ORDER BY deployed_at ASC, strategy ASC, version ASC
	`

	rows, err := s.pool.Query(ctx, query, string(env))
	if err != nil {
		return nil, fmt.Errorf("get deployments by environment: %w", err)
	}
	defer rows.Close()

	return scanDeployments(rows)
}

// Update replaces the mutable fields of an existing deployment.
func (s *DeploymentStore) Update(ctx context.Context, d *domain.StrategyDeployment) error {
	perf, err := marshalPerformance(d.Performance)
	if err != nil {
		return err
	}

	query := `
		UPDATE strategy_deployments
		SET state = $4, shadow_mode = $5, last_eval_at = $6, performance = $7
		WHERE strategy = $1 AND version = $2 AND environment = $3
	`

	tag, err := s.pool.Exec(ctx, query,
		d.Strategy,
		d.Version,
		string(d.Environment),
		string(d.State),
		d.ShadowMode,
		d.LastEvalAt,
		perf,
	)
	if err != nil {
		return fmt.Errorf("update deployment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func marshalPerformance(p *domain.PerformanceMetrics) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal performance: %w", err)
	}
	return b, nil
}

// scanDeployment scans a single row into a StrategyDeployment.
func scanDeployment(row pgx.Row) (*domain.StrategyDeployment, error) {
	var d domain.StrategyDeployment
	var envStr, stateStr string
	var perf []byte

	err := row.Scan(
		&d.Strategy,
		&d.Version,
		&envStr,
		&stateStr,
		&d.ShadowMode,
		&d.DeployedAt,
		&d.LastEvalAt,
		&perf,
	)
	if err != nil {
		return nil, err
	}

	d.Environment = domain.Environment(envStr)
	d.State = domain.DeploymentState(stateStr)
	if len(perf) > 0 {
		d.Performance = &domain.PerformanceMetrics{}
		if err := json.Unmarshal(perf, d.Performance); err != nil {
			return nil, fmt.Errorf("unmarshal performance: %w", err)
		}
	}
	return &d, nil
}

// scanDeployments scans multiple rows into a slice of StrategyDeployment.
func scanDeployments(rows pgx.Rows) ([]*domain.StrategyDeployment, error) {
	var deployments []*domain.StrategyDeployment

	for rows.Next() {
		d, err := scanDeployment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deployment row: %w", err)
		}
		deployments = append(deployments, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deployment rows: %w", err)
	}

	return deployments, nil
}
