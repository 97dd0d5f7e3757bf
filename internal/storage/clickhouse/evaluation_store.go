package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// EvaluationStore implements storage.EvaluationStore using ClickHouse.
type EvaluationStore struct {
	conn *Conn
}

// NewEvaluationStore creates a new EvaluationStore.
func NewEvaluationStore(conn *Conn) *EvaluationStore {
	return &EvaluationStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EvaluationStore = (*EvaluationStore)(nil)

// Append records one evaluation. Returns ErrDuplicateKey on an ID collision.
func (s *EvaluationStore) Append(ctx context.Context, e *domain.PromotionEvaluation) error {
	if e.EvaluationID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.EvaluationID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	criteria, err := json.Marshal(e.Criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}
	metrics, err := json.Marshal(e.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO promotion_evaluations (
			evaluation_id, strategy, version, current_state, target_state,
			criteria_json, metrics_json, passed, failed_criteria, evaluated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.EvaluationID,
		e.Strategy,
		e.Version,
		string(e.CurrentState),
		string(e.TargetState),
		string(criteria),
		string(metrics),
		boolToUInt8(e.Passed),
		emptyIfNil(e.FailedCriteria),
		e.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// GetByVersion retrieves all evaluations for a version, newest first.
func (s *EvaluationStore) GetByVersion(ctx context.Context, strategy, version string) ([]*domain.PromotionEvaluation, error) {
	query := `
		SELECT evaluation_id, strategy, version, current_state, target_state,
		       criteria_json, metrics_json, passed, failed_criteria, evaluated_at
		FROM promotion_evaluations
		WHERE strategy = ? AND version = ?
		ORDER BY evaluated_at DESC, evaluation_id DESC
	`

	rows, err := s.conn.Query(ctx, query, strategy, version)
	if err != nil {
		return nil, fmt.Errorf("query evaluations by version: %w", err)
	}
	defer rows.Close()

	return scanEvaluations(rows)
}

// exists checks if an evaluation with the given ID exists.
func (s *EvaluationStore) exists(ctx context.Context, evaluationID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM promotion_evaluations WHERE evaluation_id = ?`, evaluationID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanEvaluations scans multiple rows.
func scanEvaluations(rows chRows) ([]*domain.PromotionEvaluation, error) {
	var evals []*domain.PromotionEvaluation

	for rows.Next() {
		var e domain.PromotionEvaluation
		var currentState, targetState, criteria, metrics string
		var passed uint8
		var evaluatedAt time.Time

		err := rows.Scan(
			&e.EvaluationID, &e.Strategy, &e.Version, &currentState, &targetState,
			&criteria, &metrics, &passed, &e.FailedCriteria, &evaluatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evaluation row: %w", err)
		}

		e.CurrentState = domain.DeploymentState(currentState)
		e.TargetState = domain.DeploymentState(targetState)
		e.Passed = passed > 0
		e.EvaluatedAt = evaluatedAt
		if err := json.Unmarshal([]byte(criteria), &e.Criteria); err != nil {
			return nil, fmt.Errorf("unmarshal criteria: %w", err)
		}
		if metrics != "null" {
			e.Metrics = &domain.PerformanceMetrics{}
			if err := json.Unmarshal([]byte(metrics), e.Metrics); err != nil {
				return nil, fmt.Errorf("unmarshal metrics: %w", err)
			}
		}
		evals = append(evals, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluation rows: %w", err)
	}

	return evals, nil
}
