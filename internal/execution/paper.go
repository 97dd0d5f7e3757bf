package execution

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"strategy-supervisor/internal/domain"
)

// PaperExecutor is an in-memory Executor for testnet and shadow-mode
// deployments. Closed positions are recorded as trade results so the
// lifecycle manager can compute live performance from them.
type PaperExecutor struct {
	mu        sync.RWMutex
	positions []domain.Position
	disabled  map[string]struct{}
	trades    []domain.TradeResult
	versions  map[string]string // strategy -> version currently attributed
	shadow    bool
	now       func() time.Time
}

// NewPaperExecutor creates an empty paper book.
func NewPaperExecutor() *PaperExecutor {
	return &PaperExecutor{
		disabled: make(map[string]struct{}),
		versions: make(map[string]string),
		now:      time.Now,
	}
}

// Compile-time interface check.
var _ Executor = (*PaperExecutor)(nil)

// SetShadow marks subsequently recorded trades as shadow-run.
func (e *PaperExecutor) SetShadow(shadow bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shadow = shadow
}

// SetClock overrides the time source. Test hook.
func (e *PaperExecutor) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// TrackVersion attributes future trades of a strategy to a version.
func (e *PaperExecutor) TrackVersion(strategy, version string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.versions[strategy] = version
}

// OpenPosition adds a position to the paper book. Positions of disabled
// strategies are silently dropped, mirroring a live venue that rejects
// orders from a disabled strategy.
func (e *PaperExecutor) OpenPosition(p domain.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, off := e.disabled[p.Strategy]; off {
		return
	}
	if p.OpenedAt.IsZero() {
		p.OpenedAt = e.now().UTC()
	}
	e.positions = append(e.positions, p)
}

// MarkPrice updates the mark price and unrealized PnL of every position
// on a symbol.
func (e *PaperExecutor) MarkPrice(symbol string, price float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.positions {
		p := &e.positions[i]
		if p.Symbol != symbol {
			continue
		}
		p.MarkPrice = price
		direction := 1.0
		if p.Side == "SHORT" {
			direction = -1.0
		}
		p.UnrealizedPnl = direction * (price - p.EntryPrice) * p.Quantity
	}
}

// ClosePosition closes all positions on the given symbol.
func (e *PaperExecutor) ClosePosition(_ context.Context, symbol string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeWhere(func(p domain.Position) bool { return p.Symbol == symbol })
	return nil
}

// CloseAllPositions flattens the whole book.
func (e *PaperExecutor) CloseAllPositions(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeWhere(func(domain.Position) bool { return true })
	return nil
}

// closeWhere converts every matching position into a trade result.
// Caller holds the lock.
func (e *PaperExecutor) closeWhere(match func(domain.Position) bool) {
	var kept []domain.Position
	closedAt := e.now().UTC()
	for _, p := range e.positions {
		if !match(p) {
			kept = append(kept, p)
			continue
		}
		pnlPct := 0.0
		if notional := p.EntryPrice * p.Quantity; notional != 0 {
			pnlPct = p.UnrealizedPnl / notional * 100
		}
		e.trades = append(e.trades, domain.TradeResult{
			TradeID:   uuid.NewString(),
			Strategy:  p.Strategy,
			Version:   e.versions[p.Strategy],
			Symbol:    p.Symbol,
			PnlPct:    pnlPct,
			PnlUSD:    p.UnrealizedPnl,
			OpenedAt:  p.OpenedAt,
			ClosedAt:  closedAt,
			ShadowRun: e.shadow,
		})
	}
	e.positions = kept
}

// DisableStrategy stops a strategy from opening new paper positions.
func (e *PaperExecutor) DisableStrategy(_ context.Context, strategy string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disabled[strategy] = struct{}{}
	return nil
}

// EnableStrategy re-enables a previously disabled strategy.
func (e *PaperExecutor) EnableStrategy(_ context.Context, strategy string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.disabled, strategy)
	return nil
}

// GetAllPositions returns a copy of the open positions.
func (e *PaperExecutor) GetAllPositions(_ context.Context) ([]domain.Position, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Position, len(e.positions))
	copy(out, e.positions)
	return out, nil
}

// GetTotalMarginUsed sums entry notional over leverage for every position.
func (e *PaperExecutor) GetTotalMarginUsed(_ context.Context) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := 0.0
	for _, p := range e.positions {
		lev := p.Leverage
		if lev <= 0 {
			lev = 1
		}
		total += p.EntryPrice * p.Quantity / lev
	}
	return total, nil
}

// GetTotalUnrealizedPnl sums unrealized PnL over every position.
func (e *PaperExecutor) GetTotalUnrealizedPnl(_ context.Context) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := 0.0
	for _, p := range e.positions {
		total += p.UnrealizedPnl
	}
	return total, nil
}

// DisabledStrategies returns the disabled set, sorted.
func (e *PaperExecutor) DisabledStrategies() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.disabled))
	for s := range e.disabled {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// TradesFor returns recorded trades attributed to a strategy version,
// in close order.
func (e *PaperExecutor) TradesFor(_ context.Context, strategy, version string) ([]domain.TradeResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.TradeResult
	for _, tr := range e.trades {
		if tr.Strategy == strategy && tr.Version == version {
			out = append(out, tr)
		}
	}
	return out, nil
}
