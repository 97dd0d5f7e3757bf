// Package account supplies the account snapshot each cycle starts from.
package account

import (
	"context"
	"errors"
	"sync"

	"strategy-supervisor/internal/domain"
)

// ErrNoSnapshot is returned before the first snapshot has been received.
var ErrNoSnapshot = errors.New("account: no snapshot available")

// Provider yields the most recent account state.
type Provider interface {
	Snapshot(ctx context.Context) (*domain.AccountSnapshot, error)
}

// StaticProvider serves a fixed snapshot. Used in tests and dry runs.
type StaticProvider struct {
	mu       sync.RWMutex
	snapshot *domain.AccountSnapshot
}

// NewStaticProvider creates a provider serving the given snapshot.
func NewStaticProvider(s *domain.AccountSnapshot) *StaticProvider {
	return &StaticProvider{snapshot: s}
}

// Compile-time interface check.
var _ Provider = (*StaticProvider)(nil)

// Set replaces the served snapshot.
func (p *StaticProvider) Set(s *domain.AccountSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = s
}

// Snapshot returns the configured snapshot.
func (p *StaticProvider) Snapshot(_ context.Context) (*domain.AccountSnapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	out := *p.snapshot
	return &out, nil
}
