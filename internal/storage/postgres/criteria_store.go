package postgres

import (
	"context"
	"fmt"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// CriteriaStore implements storage.CriteriaStore using PostgreSQL.
type CriteriaStore struct {
	pool *Pool
}

// NewCriteriaStore creates a new CriteriaStore.
func NewCriteriaStore(pool *Pool) *CriteriaStore {
	return &CriteriaStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CriteriaStore = (*CriteriaStore)(nil)

// Upsert inserts or replaces the criteria row for c.Strategy.
func (s *CriteriaStore) Upsert(ctx context.Context, c domain.PromotionCriteria) error {
	query := `
		INSERT INTO promotion_criteria (
			strategy, min_testnet_runtime_hours, min_shadow_mode_hours, min_trades,
			min_sharpe_ratio, max_drawdown_pct, min_win_rate_pct, min_profit_factor,
			max_consecutive_losses
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (strategy) DO UPDATE SET
			min_testnet_runtime_hours = EXCLUDED.min_testnet_runtime_hours,
			min_shadow_mode_hours = EXCLUDED.min_shadow_mode_hours,
			min_trades = EXCLUDED.min_trades,
			min_sharpe_ratio = EXCLUDED.min_sharpe_ratio,
			max_drawdown_pct = EXCLUDED.max_drawdown_pct,
			min_win_rate_pct = EXCLUDED.min_win_rate_pct,
			min_profit_factor = EXCLUDED.min_profit_factor,
			max_consecutive_losses = EXCLUDED.max_consecutive_losses
	`

	_, err := s.pool.Exec(ctx, query,
		c.Strategy,
		c.MinTestnetRuntimeHours,
		c.MinShadowModeHours,
		c.MinTrades,
		c.MinSharpeRatio,
		c.MaxDrawdownPct,
		c.MinWinRatePct,
		c.MinProfitFactor,
		c.MaxConsecutiveLosses,
	)
	if err != nil {
		return fmt.Errorf("upsert criteria: %w", err)
	}
	return nil
}

// Get retrieves the row for the given strategy (empty string for the
// global default). Returns ErrNotFound if not exists.
func (s *CriteriaStore) Get(ctx context.Context, strategy string) (domain.PromotionCriteria, error) {
	query := `
		SELECT strategy, min_testnet_runtime_hours, min_shadow_mode_hours, min_trades,
		       min_sharpe_ratio, max_drawdown_pct, min_win_rate_pct, min_profit_factor,
		       max_consecutive_losses
		FROM promotion_criteria
		WHERE strategy = $1
	`

	var c domain.PromotionCriteria
	err := s.pool.QueryRow(ctx, query, strategy).Scan(
		&c.Strategy,
		&c.MinTestnetRuntimeHours,
		&c.MinShadowModeHours,
		&c.MinTrades,
		&c.MinSharpeRatio,
		&c.MaxDrawdownPct,
		&c.MinWinRatePct,
		&c.MinProfitFactor,
		&c.MaxConsecutiveLosses,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.PromotionCriteria{}, storage.ErrNotFound
		}
		return domain.PromotionCriteria{}, fmt.Errorf("get criteria: %w", err)
	}
	return c, nil
}
