// Package service orchestrates area lifecycle management. It owns the
// translation from store sentinels to coded domain errors and keeps the
// counter core's state in step with area creation.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"urec/internal/registry/models"
	"urec/internal/registry/store"
	dErrors "urec/pkg/domainerrors"
	"urec/pkg/requestcontext"
	"urec/pkg/sentinel"
)

// Service manages the area registry.
type Service struct {
	areas    store.AreaStore
	counters store.CounterInit
	logger   *slog.Logger
}

// New constructs the registry service. counters receives an Init call for
// every created area so occupancy state exists from the moment an area does.
func New(areas store.AreaStore, counters store.CounterInit, logger *slog.Logger) *Service {
	return &Service{areas: areas, counters: counters, logger: logger}
}

// CreateArea registers a new area and initializes its occupancy state to zero.
func (s *Service) CreateArea(ctx context.Context, id, name string, maxCapacity int) (*models.Area, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	now := requestcontext.Now(ctx)

	area, err := models.NewArea(id, name, maxCapacity, now)
	if err != nil {
		return nil, invariantToBadRequest(err)
	}

	if err := s.areas.Create(ctx, area); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("area %q already exists", id))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to create area")
	}

	if err := s.counters.Init(ctx, area.ID, now); err != nil {
		// The registry entry exists; counter state will materialize lazily
		// on the first update. Log and move on.
		s.logger.WarnContext(ctx, "counter state init failed",
			"area_id", area.ID,
			"error", err,
		)
	}

	s.logger.InfoContext(ctx, "area created",
		"area_id", area.ID,
		"max_capacity", area.MaxCapacity,
	)
	return area, nil
}

// GetArea retrieves one area's metadata.
func (s *Service) GetArea(ctx context.Context, id string) (*models.Area, error) {
	area, err := s.areas.Get(ctx, id)
	if err != nil {
		return nil, wrapAreaErr(err, id)
	}
	return area, nil
}

// ListAreas returns every registered area.
func (s *Service) ListAreas(ctx context.Context) ([]models.Area, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list areas")
	}
	return areas, nil
}

// UpdateArea applies a partial update of the mutable fields (name, max
// capacity, open/closed flag). The store holds its lock across validation
// and mutation.
func (s *Service) UpdateArea(ctx context.Context, id string, upd models.Update) (*models.Area, error) {
	now := requestcontext.Now(ctx)
	area, err := s.areas.Update(ctx, id,
		func(a *models.Area) error {
			return a.CanApply(upd)
		},
		func(a *models.Area) {
			a.Apply(upd, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, invariantToBadRequest(err)
		}
		return nil, wrapAreaErr(err, id)
	}

	s.logger.InfoContext(ctx, "area updated", "area_id", id)
	return area, nil
}

func wrapAreaErr(err error, id string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("area %q not found", id))
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "area registry unavailable")
}

// invariantToBadRequest downgrades constructor/validation invariants to bad
// requests: at this boundary they describe caller input, not corrupted state.
func invariantToBadRequest(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Code == dErrors.CodeInvariantViolation {
		return dErrors.New(dErrors.CodeBadRequest, de.Message)
	}
	return err
}
