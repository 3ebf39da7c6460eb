package models

import "time"

// State is the mutable occupancy record for one area.
//
// Invariants:
//   - CurrentCount is never negative after a committed mutation; deltas that
//     would cross zero are floored at zero inside the same atomic update
//   - UpdateSequence strictly increases with each successful mutation on the
//     area and is 0 for state that has never been mutated
//   - LastUpdated is the instant of the most recent successful mutation (or
//     of state creation, before the first mutation)
//
// State is owned exclusively by the counter store; no other component writes
// CurrentCount directly. Values handed out by stores are snapshots and safe
// to retain.
type State struct {
	AreaID         string    `json:"area_id"`
	CurrentCount   int       `json:"current_count"`
	UpdateSequence int64     `json:"update_sequence"`
	LastUpdated    time.Time `json:"last_updated"`

	// Clamped is set on snapshots returned from a mutation that floored the
	// count at zero. Diagnostic only; never persisted.
	Clamped bool `json:"-"`
}

// AreaView joins an area's registry metadata with its occupancy state for
// read surfaces.
type AreaView struct {
	AreaID         string    `json:"area_id"`
	Name           string    `json:"name"`
	CurrentCount   int       `json:"current_count"`
	MaxCapacity    int       `json:"max_capacity"`
	IsOpen         bool      `json:"is_open"`
	LastUpdated    time.Time `json:"last_updated"`
	UpdateSequence int64     `json:"update_sequence"`
}
