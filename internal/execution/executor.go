// Package execution defines the interface to the trading collaborator
// that actually holds positions, and a paper implementation used for
// testnet and shadow-mode runs.
package execution

import (
	"context"

	"strategy-supervisor/internal/domain"
)

// Executor is the command surface the supervisor drives after each cycle.
// Implementations must make every call idempotent: closing an absent
// position or disabling an already-disabled strategy is a no-op.
type Executor interface {
	// ClosePosition closes all positions on the given symbol.
	ClosePosition(ctx context.Context, symbol string) error

	// CloseAllPositions flattens the whole book. Used on pause.
	CloseAllPositions(ctx context.Context) error

	// DisableStrategy stops a strategy from opening new positions.
	DisableStrategy(ctx context.Context, strategy string) error

	// EnableStrategy re-enables a previously disabled strategy.
	EnableStrategy(ctx context.Context, strategy string) error

	// GetAllPositions returns the currently open positions.
	GetAllPositions(ctx context.Context) ([]domain.Position, error)

	// GetTotalMarginUsed returns margin currently committed, in USD.
	GetTotalMarginUsed(ctx context.Context) (float64, error)

	// GetTotalUnrealizedPnl returns the aggregate unrealized PnL, in USD.
	GetTotalUnrealizedPnl(ctx context.Context) (float64, error)
}
