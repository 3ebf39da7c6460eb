package store

import (
	"context"
	"errors"
	"time"

	"urec/internal/registry/models"
	"urec/pkg/sentinel"
)

// DefaultAreas is the initial facility layout provisioned on first boot.
var DefaultAreas = []struct {
	ID          string
	Name        string
	MaxCapacity int
}{
	{"weight-room", "Weight Room", 100},
	{"cardio", "Cardio Area", 60},
	{"track", "Indoor Track", 50},
	{"pool", "Swimming Pool", 40},
	{"basketball", "Basketball Courts", 30},
	{"racquetball", "Racquetball Courts", 20},
	{"climbing", "Climbing Wall", 15},
	{"group-fitness", "Group Fitness Studio", 40},
}

// CounterInit materializes zero occupancy state for a new area.
type CounterInit interface {
	Init(ctx context.Context, areaID string, now time.Time) error
}

// SeedDefaultAreas installs the default areas, skipping any that already
// exist, and initializes their occupancy state at zero. Safe to run on every
// startup.
func SeedDefaultAreas(ctx context.Context, areas AreaStore, counters CounterInit, now time.Time) (created int, err error) {
	for _, d := range DefaultAreas {
		area, err := models.NewArea(d.ID, d.Name, d.MaxCapacity, now)
		if err != nil {
			return created, err
		}
		if err := areas.Create(ctx, area); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				continue
			}
			return created, err
		}
		if err := counters.Init(ctx, d.ID, now); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
