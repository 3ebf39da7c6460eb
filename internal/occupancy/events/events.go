// Package events publishes occupancy change notifications for downstream
// consumers (dashboards, analytics). Publishing is fire-and-forget: a slow
// or absent broker never blocks a counter update.
package events

import (
	"context"
	"time"
)

// Changed describes one committed occupancy mutation.
type Changed struct {
	EventID        string    `json:"event_id"`
	AreaID         string    `json:"area_id"`
	Action         string    `json:"action"`
	Delta          int       `json:"delta"`
	NewCount       int       `json:"new_count"`
	UpdateSequence int64     `json:"update_sequence"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Publisher emits occupancy change events. Implementations must not block
// the caller on broker I/O.
type Publisher interface {
	PublishChanged(ctx context.Context, ev Changed)
	Close()
}

// NopPublisher drops every event; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishChanged(context.Context, Changed) {}
func (NopPublisher) Close()                                  {}
