package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"strategy-supervisor/internal/domain"
)

const (
	reconnectDelay  = 5 * time.Second
	defaultMaxStale = 2 * time.Minute
)

// wirePosition mirrors one open position on the account stream.
type wirePosition struct {
	Symbol        string  `json:"symbol"`
	Strategy      string  `json:"strategy"`
	Side          string  `json:"side"`
	Quantity      float64 `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	MarkPrice     float64 `json:"mark_price"`
	UnrealizedPnl float64 `json:"unrealized_pnl"`
	Leverage      float64 `json:"leverage"`
	OpenedAt      int64   `json:"opened_at_ms"`
}

// wireSnapshot is one full account update on the stream.
type wireSnapshot struct {
	Equity             float64            `json:"equity"`
	AvailableMargin    float64            `json:"available_margin"`
	MarginUsed         float64            `json:"margin_used"`
	UnrealizedPnl      float64            `json:"unrealized_pnl"`
	PeakEquity         float64            `json:"peak_equity"`
	DrawdownPct        float64            `json:"drawdown_pct"`
	Positions          []wirePosition     `json:"positions"`
	CurrentAllocations map[string]float64 `json:"current_allocations"`
	DisabledStrategies []string           `json:"disabled_strategies"`
	TimestampMs        int64              `json:"timestamp_ms"`
}

// Feed consumes the execution collaborator's account stream over a
// websocket and caches the latest snapshot for cycle consumption.
type Feed struct {
	url      string
	maxStale time.Duration

	mu         sync.RWMutex
	latest     *domain.AccountSnapshot
	receivedAt time.Time
}

// NewFeed creates a Feed for the given websocket URL. maxStale bounds
// how old a cached snapshot may be before Snapshot refuses to serve it;
// zero selects the default of two minutes.
func NewFeed(url string, maxStale time.Duration) *Feed {
	if maxStale <= 0 {
		maxStale = defaultMaxStale
	}
	return &Feed{url: url, maxStale: maxStale}
}

// Compile-time interface check.
var _ Provider = (*Feed)(nil)

// Run connects and consumes the stream until ctx is cancelled,
// reconnecting on any failure. Blocking; run in its own goroutine.
func (f *Feed) Run(ctx context.Context) error {
	for {
		if err := f.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[account] stream error: %v, reconnecting in %s", err, reconnectDelay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
}

// consume runs one websocket session until it fails or ctx is cancelled.
func (f *Feed) consume(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	log.Printf("[account] connected to %s", f.url)

	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var ws wireSnapshot
		if err := json.Unmarshal(msg, &ws); err != nil {
			log.Printf("[account] skip malformed message: %v", err)
			continue
		}
		f.store(&ws)
	}
}

// store converts a wire snapshot and caches it.
func (f *Feed) store(ws *wireSnapshot) {
	snap := &domain.AccountSnapshot{
		Equity:             ws.Equity,
		AvailableMargin:    ws.AvailableMargin,
		MarginUsed:         ws.MarginUsed,
		UnrealizedPnl:      ws.UnrealizedPnl,
		PeakEquity:         ws.PeakEquity,
		DrawdownPct:        ws.DrawdownPct,
		CurrentAllocations: ws.CurrentAllocations,
		DisabledStrategies: ws.DisabledStrategies,
		TakenAt:            time.UnixMilli(ws.TimestampMs).UTC(),
	}
	for _, p := range ws.Positions {
		snap.OpenPositions = append(snap.OpenPositions, domain.Position{
			Symbol:        p.Symbol,
			Strategy:      p.Strategy,
			Side:          p.Side,
			Quantity:      p.Quantity,
			EntryPrice:    p.EntryPrice,
			MarkPrice:     p.MarkPrice,
			UnrealizedPnl: p.UnrealizedPnl,
			Leverage:      p.Leverage,
			OpenedAt:      time.UnixMilli(p.OpenedAt).UTC(),
		})
	}

	f.mu.Lock()
	f.latest = snap
	f.receivedAt = time.Now()
	f.mu.Unlock()
}

// Snapshot returns the latest cached snapshot. Returns ErrNoSnapshot
// before the first message or once the cache has gone stale.
func (f *Feed) Snapshot(_ context.Context) (*domain.AccountSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.latest == nil {
		return nil, ErrNoSnapshot
	}
	if time.Since(f.receivedAt) > f.maxStale {
		return nil, fmt.Errorf("%w: last update %s ago", ErrNoSnapshot, time.Since(f.receivedAt).Round(time.Second))
	}
	out := *f.latest
	return &out, nil
}
