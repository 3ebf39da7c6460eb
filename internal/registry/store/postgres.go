package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"urec/internal/registry/models"
	"urec/pkg/sentinel"
)

// Schema creates the areas table. One record per area carries both registry
// metadata and the occupancy counters, matching the original single-record
// layout. Applied by cmd/provision and by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS areas (
	area_id         TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	max_capacity    INTEGER NOT NULL,
	is_open         BOOLEAN NOT NULL DEFAULT TRUE,
	current_count   INTEGER NOT NULL DEFAULT 0,
	update_sequence BIGINT NOT NULL DEFAULT 0,
	last_updated    TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL
)
`

// PostgresStore persists area metadata in PostgreSQL. Pure I/O; validation
// belongs to the models and the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed area store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, area *models.Area) error {
	query := `
		INSERT INTO areas (area_id, name, max_capacity, is_open, current_count, update_sequence, last_updated, created_at)
		VALUES ($1, $2, $3, $4, 0, 0, $5, $5)
	`
	_, err := s.db.ExecContext(ctx, query, area.ID, area.Name, area.MaxCapacity, area.IsOpen, area.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create area: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, areaID string) (*models.Area, error) {
	query := `
		SELECT area_id, name, max_capacity, is_open, created_at, last_updated
		FROM areas
		WHERE area_id = $1
	`
	area, err := scanArea(s.db.QueryRowContext(ctx, query, areaID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get area: %w", err)
	}
	return area, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Area, error) {
	query := `
		SELECT area_id, name, max_capacity, is_open, created_at, last_updated
		FROM areas
		ORDER BY area_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var out []models.Area
	for rows.Next() {
		area, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		out = append(out, *area)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return out, nil
}

// Update loads the row FOR UPDATE so the validate and mutate callbacks run
// with the row locked, mirroring the in-memory store's mutex semantics.
func (s *PostgresStore) Update(ctx context.Context, areaID string, validate func(*models.Area) error, mutate func(*models.Area)) (*models.Area, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update area: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		SELECT area_id, name, max_capacity, is_open, created_at, last_updated
		FROM areas
		WHERE area_id = $1
		FOR UPDATE
	`
	area, err := scanArea(tx.QueryRowContext(ctx, query, areaID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load area for update: %w", err)
	}

	if validate != nil {
		if err := validate(area); err != nil {
			return nil, err
		}
	}
	mutate(area)

	_, err = tx.ExecContext(ctx,
		`UPDATE areas SET name = $2, max_capacity = $3, is_open = $4 WHERE area_id = $1`,
		area.ID, area.Name, area.MaxCapacity, area.IsOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("update area: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update area: %w", err)
	}
	return area, nil
}

type areaRow interface {
	Scan(dest ...any) error
}

func scanArea(row areaRow) (*models.Area, error) {
	var area models.Area
	if err := row.Scan(&area.ID, &area.Name, &area.MaxCapacity, &area.IsOpen, &area.CreatedAt, &area.UpdatedAt); err != nil {
		return nil, err
	}
	return &area, nil
}
