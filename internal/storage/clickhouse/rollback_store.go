package clickhouse

import (
	"context"
	"fmt"
	"time"

	"strategy-supervisor/internal/domain"
	"strategy-supervisor/internal/storage"
)

// RollbackStore implements storage.RollbackStore using ClickHouse.
type RollbackStore struct {
	conn *Conn
}

// NewRollbackStore creates a new RollbackStore.
func NewRollbackStore(conn *Conn) *RollbackStore {
	return &RollbackStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RollbackStore = (*RollbackStore)(nil)

// Append records one rollback event. Returns ErrDuplicateKey on an ID collision.
func (s *RollbackStore) Append(ctx context.Context, e *domain.RollbackEvent) error {
	if e.EventID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, e.EventID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO rollback_events (
			event_id, strategy, from_version, to_version, reason, automatic, occurred_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		e.EventID,
		e.Strategy,
		e.FromVersion,
		e.ToVersion,
		e.Reason,
		boolToUInt8(e.Automatic),
		e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert rollback event: %w", err)
	}
	return nil
}

// GetByStrategy retrieves all rollback events for a strategy, newest first.
func (s *RollbackStore) GetByStrategy(ctx context.Context, strategy string) ([]*domain.RollbackEvent, error) {
	query := `
		SELECT event_id, strategy, from_version, to_version, reason, automatic, occurred_at
		FROM rollback_events
		WHERE strategy = ?
		ORDER BY occurred_at DESC, event_id DESC
	`

	rows, err := s.conn.Query(ctx, query, strategy)
	if err != nil {
		return nil, fmt.Errorf("query rollback events: %w", err)
	}
	defer rows.Close()

	return scanRollbackEvents(rows)
}

// exists checks if an event with the given ID exists.
func (s *RollbackStore) exists(ctx context.Context, eventID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM rollback_events WHERE event_id = ?`, eventID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanRollbackEvents scans multiple rows.
func scanRollbackEvents(rows chRows) ([]*domain.RollbackEvent, error) {
	var events []*domain.RollbackEvent

	for rows.Next() {
		var e domain.RollbackEvent
		var automatic uint8
		var occurredAt time.Time

		err := rows.Scan(
			&e.EventID, &e.Strategy, &e.FromVersion, &e.ToVersion,
			&e.Reason, &automatic, &occurredAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rollback event row: %w", err)
		}

		e.Automatic = automatic > 0
		e.OccurredAt = occurredAt
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rollback event rows: %w", err)
	}

	return events, nil
}
