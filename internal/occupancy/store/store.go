// Package store holds the counter state backends. Every implementation
// guarantees that the read-modify-clamp-write sequence for one area is
// indivisible and that distinct areas never block one another.
package store

import (
	"context"
	"time"

	"urec/internal/occupancy/models"
)

// CounterStore is the per-area occupancy state owned by the counter core.
//
// ApplyDelta and SetCount are atomic per area: concurrent mutations on the
// same area serialize, mutations on different areas proceed independently.
// Both lazily create state at zero when none exists yet (the service gates
// area validity against the registry before calling in). Get returns
// sentinel.ErrNotFound when no state has been materialized for the area.
type CounterStore interface {
	// Init materializes zero state for a newly created area. Idempotent.
	Init(ctx context.Context, areaID string, now time.Time) error

	// ApplyDelta adds delta to the area's count, flooring at zero, bumps the
	// update sequence and stamps the timestamp, all in one atomic step.
	// Returns the committed snapshot.
	ApplyDelta(ctx context.Context, areaID string, delta int, now time.Time) (*models.State, error)

	// SetCount overwrites the count with max(0, value) under the same
	// atomicity guarantee as ApplyDelta.
	SetCount(ctx context.Context, areaID string, value int, now time.Time) (*models.State, error)

	// Get returns the last committed snapshot for the area.
	Get(ctx context.Context, areaID string) (*models.State, error)
}
