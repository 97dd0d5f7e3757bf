package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// DecisionStore implements storage.DecisionStore using ClickHouse.
type DecisionStore struct {
	conn *Conn
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(conn *Conn) *DecisionStore {
	return &DecisionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

// Append records one decision. Returns ErrDuplicateKey on an ID collision.
func (s *DecisionStore) Append(ctx context.Context, d *domain.CycleDecision) error {
	if d.DecisionID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, d.DecisionID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	allocations, err := json.Marshal(d.Allocations)
	if err != nil {
		return fmt.Errorf("marshal allocations: %w", err)
	}

	query := `
		INSERT INTO cycle_decisions (
			decision_id, created_at, allocations_json, disable_strategies,
			enable_strategies, close_symbols, leverage_cap, risk_tier,
			should_pause, pause_reason, reasoning, risk_score, risk_trend,
			oracle_model, latency_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		d.DecisionID,
		d.CreatedAt,
		string(allocations),
		emptyIfNil(d.DisableStrategies),
		emptyIfNil(d.EnableStrategies),
		emptyIfNil(d.CloseSymbols),
		d.LeverageCap,
		string(d.RiskTier),
		boolToUInt8(d.ShouldPause),
		d.PauseReason,
		emptyIfNil(d.Reasoning),
		d.RiskScore,
		d.RiskTrend,
		d.OracleModel,
		d.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetRecent retrieves up to limit decisions, newest first.
func (s *DecisionStore) GetRecent(ctx context.Context, limit int) ([]*domain.CycleDecision, error) {
	query := `
		SELECT decision_id, created_at, allocations_json, disable_strategies,
		       enable_strategies, close_symbols, leverage_cap, risk_tier,
		       should_pause, pause_reason, reasoning, risk_score, risk_trend,
		       oracle_model, latency_ms
		FROM cycle_decisions
		ORDER BY created_at DESC, decision_id DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, uint64(limit))
	if err != nil {
		return nil, fmt.Errorf("query recent decisions: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// exists checks if a decision with the given ID exists.
func (s *DecisionStore) exists(ctx context.Context, decisionID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM cycle_decisions WHERE decision_id = ?`, decisionID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDecisions scans multiple rows.
func scanDecisions(rows chRows) ([]*domain.CycleDecision, error) {
	var decisions []*domain.CycleDecision

	for rows.Next() {
		var d domain.CycleDecision
		var createdAt time.Time
		var allocations, riskTier string
		var shouldPause uint8

		err := rows.Scan(
			&d.DecisionID, &createdAt, &allocations, &d.DisableStrategies,
			&d.EnableStrategies, &d.CloseSymbols, &d.LeverageCap, &riskTier,
			&shouldPause, &d.PauseReason, &d.Reasoning, &d.RiskScore,
			&d.RiskTrend, &d.OracleModel, &d.LatencyMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}

		d.CreatedAt = createdAt
		d.RiskTier = domain.RiskTier(riskTier)
		d.ShouldPause = shouldPause > 0
		if err := json.Unmarshal([]byte(allocations), &d.Allocations); err != nil {
			return nil, fmt.Errorf("unmarshal allocations: %w", err)
		}
		decisions = append(decisions, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return decisions, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
