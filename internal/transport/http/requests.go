package httptransport

import (
	"urec/internal/registry/models"
	dErrors "urec/pkg/domainerrors"
)

// Actions accepted on the update endpoint.
const (
	actionEnter = "enter"
	actionExit  = "exit"
)

// Kiosk devices report at most this many people per event; anything larger
// is a malformed report, not a crowd.
const (
	minEventCount = 1
	maxEventCount = 10
)

// updateRequest is one entry/exit event from a kiosk or turnstile sensor.
// Count defaults to 1 when omitted.
type updateRequest struct {
	AreaID string `json:"area_id"`
	Action string `json:"action"`
	Count  *int   `json:"count,omitempty"`
}

// delta validates the event shape and maps it onto a signed delta.
// Validation failures never reach the counter core.
func (r updateRequest) delta() (int, error) {
	if r.AreaID == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "area_id is required")
	}
	if r.Action != actionEnter && r.Action != actionExit {
		return 0, dErrors.New(dErrors.CodeBadRequest, "action must be 'enter' or 'exit'")
	}
	count := 1
	if r.Count != nil {
		count = *r.Count
	}
	if count < minEventCount || count > maxEventCount {
		return 0, dErrors.New(dErrors.CodeBadRequest, "count must be an integer between 1 and 10")
	}
	if r.Action == actionExit {
		return -count, nil
	}
	return count, nil
}

// count reports the validated magnitude for response echoing.
func (r updateRequest) count() int {
	if r.Count != nil {
		return *r.Count
	}
	return 1
}

// createAreaRequest registers a new area.
type createAreaRequest struct {
	AreaID      string `json:"area_id"`
	Name        string `json:"name"`
	MaxCapacity int    `json:"max_capacity"`
}

// updateAreaRequest is a partial update of an area's mutable fields.
type updateAreaRequest struct {
	Name        *string `json:"name,omitempty"`
	MaxCapacity *int    `json:"max_capacity,omitempty"`
	IsOpen      *bool   `json:"is_open,omitempty"`
}

func (r updateAreaRequest) toModel() models.Update {
	return models.Update{Name: r.Name, MaxCapacity: r.MaxCapacity, IsOpen: r.IsOpen}
}
