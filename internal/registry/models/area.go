package models

import (
	"time"

	dErrors "urec/pkg/domainerrors"
)

// Area is the registry entry for one tracked zone.
//
// Invariants:
//   - ID is non-empty, at most 64 characters, immutable once created
//   - Name is non-empty and at most 128 characters
//   - MaxCapacity is positive; it is informational and never enforced as a
//     hard ceiling on occupancy updates
//   - IsOpen is advisory; a closed area still accepts updates
type Area struct {
	ID          string    `json:"area_id"`
	Name        string    `json:"name"`
	MaxCapacity int       `json:"max_capacity"`
	IsOpen      bool      `json:"is_open"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Update carries a partial update of an area's mutable fields. Nil fields
// are left untouched.
type Update struct {
	Name        *string
	MaxCapacity *int
	IsOpen      *bool
}

// NewArea validates and constructs a registry entry. New areas default to open.
func NewArea(id, name string, maxCapacity int, now time.Time) (*Area, error) {
	if id == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "area id cannot be empty")
	}
	if len(id) > 64 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "area id must be 64 characters or less")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "area name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "area name must be 128 characters or less")
	}
	if maxCapacity <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "max capacity must be positive")
	}
	return &Area{
		ID:          id,
		Name:        name,
		MaxCapacity: maxCapacity,
		IsOpen:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CanApply validates a partial update without mutating the area.
func (a *Area) CanApply(u Update) error {
	if u.Name != nil {
		if *u.Name == "" {
			return dErrors.New(dErrors.CodeInvariantViolation, "area name cannot be empty")
		}
		if len(*u.Name) > 128 {
			return dErrors.New(dErrors.CodeInvariantViolation, "area name must be 128 characters or less")
		}
	}
	if u.MaxCapacity != nil && *u.MaxCapacity <= 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "max capacity must be positive")
	}
	return nil
}

// Apply mutates the area's mutable fields. Call CanApply first to validate;
// stores run both inside their critical section.
func (a *Area) Apply(u Update, now time.Time) {
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.MaxCapacity != nil {
		a.MaxCapacity = *u.MaxCapacity
	}
	if u.IsOpen != nil {
		a.IsOpen = *u.IsOpen
	}
	a.UpdatedAt = now
}
