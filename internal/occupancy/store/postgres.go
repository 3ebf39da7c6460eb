package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"urec/internal/occupancy/models"
	"urec/pkg/sentinel"
)

// PostgresStore persists occupancy state on the areas table (one record per
// area, shared with the registry store). Each mutation is a single UPDATE
// with the clamp folded into the expression, so the row lock provides
// serializability per area and the statement commits all-or-nothing.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed counter store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Init is a no-op: the registry's INSERT materializes the count columns with
// their zero defaults in the same row.
func (s *PostgresStore) Init(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (s *PostgresStore) ApplyDelta(ctx context.Context, areaID string, delta int, now time.Time) (*models.State, error) {
	query := `
		UPDATE areas
		SET current_count = GREATEST(0, current_count + $2),
		    update_sequence = update_sequence + 1,
		    last_updated = $3
		WHERE area_id = $1
		RETURNING area_id, current_count, update_sequence, last_updated
	`
	state, err := s.scanMutation(s.db.QueryRowContext(ctx, query, areaID, delta, now), "apply delta")
	if err != nil {
		return nil, err
	}
	// RETURNING only sees the new row, so the clamp flag is derived: a
	// negative delta that landed exactly on zero may be a clean exit rather
	// than a floor. Diagnostic only.
	state.Clamped = delta < 0 && state.CurrentCount == 0
	return state, nil
}

func (s *PostgresStore) SetCount(ctx context.Context, areaID string, value int, now time.Time) (*models.State, error) {
	query := `
		UPDATE areas
		SET current_count = GREATEST(0, $2),
		    update_sequence = update_sequence + 1,
		    last_updated = $3
		WHERE area_id = $1
		RETURNING area_id, current_count, update_sequence, last_updated
	`
	state, err := s.scanMutation(s.db.QueryRowContext(ctx, query, areaID, value, now), "set count")
	if err != nil {
		return nil, err
	}
	state.Clamped = value < 0
	return state, nil
}

func (s *PostgresStore) Get(ctx context.Context, areaID string) (*models.State, error) {
	query := `
		SELECT area_id, current_count, update_sequence, last_updated
		FROM areas
		WHERE area_id = $1
	`
	var state models.State
	err := s.db.QueryRowContext(ctx, query, areaID).Scan(
		&state.AreaID, &state.CurrentCount, &state.UpdateSequence, &state.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get occupancy state: %w", err)
	}
	return &state, nil
}

type mutationRow interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanMutation(row mutationRow, op string) (*models.State, error) {
	var state models.State
	err := row.Scan(&state.AreaID, &state.CurrentCount, &state.UpdateSequence, &state.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &state, nil
}
