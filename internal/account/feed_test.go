package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strategy-supervisor/internal/domain"
)

func newStreamServer(t *testing.T, messages ...string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, m := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open so the feed keeps the last snapshot.
		time.Sleep(2 * time.Second)
	}))
}

func wsURL(s *httptest.Server) string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func waitForSnapshot(t *testing.T, f *Feed) *domain.AccountSnapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if snap, err := f.Snapshot(context.Background()); err == nil {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("no snapshot received before deadline")
	return nil
}

func TestFeed_CachesLatestSnapshot(t *testing.T) {
	server := newStreamServer(t, `{
		"equity": 100000,
		"available_margin": 60000,
		"margin_used": 40000,
		"unrealized_pnl": -500,
		"peak_equity": 105000,
		"drawdown_pct": -4.76,
		"positions": [
			{"symbol": "BTCUSDT", "strategy": "momentum", "side": "LONG",
			 "quantity": 0.5, "entry_price": 60000, "mark_price": 59000,
			 "unrealized_pnl": -500, "leverage": 3, "opened_at_ms": 1714560000000}
		],
		"current_allocations": {"momentum": 40, "mean_reversion": 30, "breakout": 20, "funding_arbitrage": 10},
		"disabled_strategies": [],
		"timestamp_ms": 1714563600000
	}`)
	defer server.Close()

	feed := NewFeed(wsURL(server), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	snap := waitForSnapshot(t, feed)
	assert.InDelta(t, 100000, snap.Equity, 1e-9)
	assert.InDelta(t, -4.76, snap.DrawdownPct, 1e-9)
	require.Len(t, snap.OpenPositions, 1)
	assert.Equal(t, "BTCUSDT", snap.OpenPositions[0].Symbol)
	assert.InDelta(t, 40, snap.CurrentAllocations["momentum"], 1e-9)
}

func TestFeed_SkipsMalformedMessages(t *testing.T) {
	server := newStreamServer(t, `not json`, `{"equity": 42000, "timestamp_ms": 1714563600000}`)
	defer server.Close()

	feed := NewFeed(wsURL(server), time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	snap := waitForSnapshot(t, feed)
	assert.InDelta(t, 42000, snap.Equity, 1e-9)
}

func TestFeed_NoSnapshotBeforeFirstMessage(t *testing.T) {
	feed := NewFeed("ws://127.0.0.1:1/never", time.Minute)

	_, err := feed.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(nil)

	_, err := p.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)

	p.Set(&domain.AccountSnapshot{Equity: 5000})
	snap, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5000, snap.Equity, 1e-9)

	// Mutating the returned copy does not touch the stored snapshot.
	snap.Equity = 0
	again, err := p.Snapshot(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 5000, again.Equity, 1e-9)
}
