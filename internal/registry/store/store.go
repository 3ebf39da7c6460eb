// Package store holds the area registry backends. The registry gates which
// area ids are valid targets for the counter core; its concurrency needs are
// plain read/write exclusion, nothing per-key.
package store

import (
	"context"

	"urec/internal/registry/models"
)

// AreaStore is the canonical list of areas and their metadata.
//
// Create returns sentinel.ErrConflict when the id already exists; Get and
// Update return sentinel.ErrNotFound for unknown ids. Update holds the
// store's lock (mutex or FOR UPDATE) across both the validate and mutate
// callbacks so checks never race the write.
type AreaStore interface {
	Create(ctx context.Context, area *models.Area) error
	Get(ctx context.Context, areaID string) (*models.Area, error)
	List(ctx context.Context) ([]models.Area, error)
	Update(ctx context.Context, areaID string, validate func(*models.Area) error, mutate func(*models.Area)) (*models.Area, error)
}
