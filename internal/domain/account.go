package domain

import "time"

// Position is one open position as reported by the execution collaborator.
type Position struct {
	Symbol        string
	Strategy      string
	Side          string // LONG | SHORT
	Quantity      float64
	EntryPrice    float64
	MarkPrice     float64
	UnrealizedPnl float64
	Leverage      float64
	OpenedAt      time.Time
}

// AccountSnapshot is the account/context state gathered at the start of a
// cycle and passed to the oracles and the decision engine.
type AccountSnapshot struct {
	Equity          float64
	AvailableMargin float64
	MarginUsed      float64
	UnrealizedPnl   float64
	PeakEquity      float64
	DrawdownPct     float64 // decline from peak equity, negative when down

	OpenPositions      []Position
	CurrentAllocations map[string]float64
	DisabledStrategies []string

	TakenAt time.Time
}

// OpenSymbols returns the distinct symbols of all open positions,
// preserving first-seen order.
func (s *AccountSnapshot) OpenSymbols() []string {
	seen := make(map[string]struct{}, len(s.OpenPositions))
	symbols := make([]string, 0, len(s.OpenPositions))
	for _, p := range s.OpenPositions {
		if _, ok := seen[p.Symbol]; ok {
			continue
		}
		seen[p.Symbol] = struct{}{}
		symbols = append(symbols, p.Symbol)
	}
	return symbols
}
