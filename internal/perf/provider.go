package perf

import (
	"context"
	"fmt"
	"time"

	"strategy-supervisor/internal/domain"
)

// TradeSource yields the closed trades attributed to a strategy version.
// The paper executor implements it; a live deployment would back it with
// the exchange's fill history.
type TradeSource interface {
	TradesFor(ctx context.Context, strategy, version string) ([]domain.TradeResult, error)
}

// Provider computes metrics on demand from a trade source.
type Provider struct {
	source TradeSource
	now    func() time.Time
}

// NewProvider creates a Provider. now may be nil to use time.Now.
func NewProvider(source TradeSource, now func() time.Time) *Provider {
	if now == nil {
		now = time.Now
	}
	return &Provider{source: source, now: now}
}

// MetricsFor computes the current aggregate metrics for a version.
func (p *Provider) MetricsFor(ctx context.Context, strategy, version string) (*domain.PerformanceMetrics, error) {
	trades, err := p.source.TradesFor(ctx, strategy, version)
	if err != nil {
		return nil, fmt.Errorf("load trades for %s@%s: %w", strategy, version, err)
	}
	return Compute(trades, p.now().UTC()), nil
}
