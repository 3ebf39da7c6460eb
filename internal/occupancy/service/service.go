// Package service is the occupancy counter core: it applies entry/exit
// deltas and administrative overwrites atomically per area, gated by the
// area registry, and exposes the consistent read views.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"urec/internal/occupancy/events"
	occmetrics "urec/internal/occupancy/metrics"
	"urec/internal/occupancy/models"
	"urec/internal/occupancy/store"
	registrymodels "urec/internal/registry/models"
	dErrors "urec/pkg/domainerrors"
	"urec/pkg/requestcontext"
	"urec/pkg/sentinel"
)

// Mutation actions reported on metrics and change events.
const (
	ActionEnter = "enter"
	ActionExit  = "exit"
	ActionReset = "reset"
)

// AreaDirectory gates which area ids are valid targets. Satisfied by the
// registry store.
type AreaDirectory interface {
	Get(ctx context.Context, areaID string) (*registrymodels.Area, error)
	List(ctx context.Context) ([]registrymodels.Area, error)
}

// Service owns all occupancy mutations. Atomicity per area lives in the
// counter store; the service layers registry gating, error translation,
// diagnostics and change events on top.
type Service struct {
	counters  store.CounterStore
	areas     AreaDirectory
	logger    *slog.Logger
	metrics   *occmetrics.Metrics
	publisher events.Publisher
	tracer    trace.Tracer
	newID     func() string
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *occmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPublisher attaches a change event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithEventIDs overrides event id generation (tests).
func WithEventIDs(f func() string) Option {
	return func(s *Service) { s.newID = f }
}

// New constructs the counter core service.
func New(counters store.CounterStore, areas AreaDirectory, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		counters:  counters,
		areas:     areas,
		logger:    logger,
		publisher: events.NopPublisher{},
		tracer:    otel.Tracer("urec/occupancy"),
		newID:     newEventID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply adds a signed delta to the area's count. The read-modify-clamp-write
// is indivisible in the store; concurrent applies on the same area serialize
// and never lose updates, and other areas are unaffected.
func (s *Service) Apply(ctx context.Context, areaID string, delta int) (*models.State, error) {
	ctx, span := s.tracer.Start(ctx, "occupancy.apply", trace.WithAttributes(
		attribute.String("area_id", areaID),
		attribute.Int("delta", delta),
	))
	defer span.End()

	action := ActionEnter
	if delta < 0 {
		action = ActionExit
	}
	return s.mutate(ctx, areaID, action, delta, func(now time.Time) (*models.State, error) {
		return s.counters.ApplyDelta(ctx, areaID, delta, now)
	})
}

// Set overwrites the area's count with max(0, value) under the same
// atomicity guarantee as Apply.
func (s *Service) Set(ctx context.Context, areaID string, value int) (*models.State, error) {
	ctx, span := s.tracer.Start(ctx, "occupancy.set", trace.WithAttributes(
		attribute.String("area_id", areaID),
		attribute.Int("value", value),
	))
	defer span.End()

	return s.mutate(ctx, areaID, ActionReset, 0, func(now time.Time) (*models.State, error) {
		return s.counters.SetCount(ctx, areaID, value, now)
	})
}

// Read returns the area's metadata joined with its last committed occupancy
// state, or not_found for unknown areas.
func (s *Service) Read(ctx context.Context, areaID string) (*models.AreaView, error) {
	area, err := s.gateArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, area)
}

// ReadAll returns a view of every registered area. Each area's value is
// internally consistent; the set is not atomic across areas.
func (s *Service) ReadAll(ctx context.Context) ([]models.AreaView, error) {
	areas, err := s.areas.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "area registry unavailable")
	}

	out := make([]models.AreaView, 0, len(areas))
	for i := range areas {
		view, err := s.view(ctx, &areas[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	return out, nil
}

func (s *Service) mutate(ctx context.Context, areaID, action string, delta int, op func(time.Time) (*models.State, error)) (*models.State, error) {
	start := time.Now()

	area, err := s.gateArea(ctx, areaID)
	if err != nil {
		return nil, err
	}

	state, err := op(requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("area %q not found", areaID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "occupancy update failed")
	}

	if state.CurrentCount < 0 {
		// Impossible by construction; a negative committed count means the
		// store's clamp is broken.
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("negative count %d committed for area %q", state.CurrentCount, areaID))
	}

	overCapacity := state.CurrentCount > area.MaxCapacity
	if overCapacity {
		// Informational bound only; over-capacity counts are never rejected.
		s.logger.WarnContext(ctx, "area over capacity",
			"area_id", areaID,
			"current_count", state.CurrentCount,
			"max_capacity", area.MaxCapacity,
		)
	}
	if state.Clamped {
		s.logger.WarnContext(ctx, "count floored at zero",
			"area_id", areaID,
			"action", action,
			"delta", delta,
		)
	}

	s.metrics.ObserveMutation(areaID, action, state.CurrentCount, state.Clamped, overCapacity, time.Since(start))

	s.publisher.PublishChanged(ctx, events.Changed{
		EventID:        s.newID(),
		AreaID:         areaID,
		Action:         action,
		Delta:          delta,
		NewCount:       state.CurrentCount,
		UpdateSequence: state.UpdateSequence,
		OccurredAt:     state.LastUpdated,
	})

	return state, nil
}

func (s *Service) gateArea(ctx context.Context, areaID string) (*registrymodels.Area, error) {
	area, err := s.areas.Get(ctx, areaID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("area %q not found", areaID))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "area registry unavailable")
	}
	return area, nil
}

func (s *Service) view(ctx context.Context, area *registrymodels.Area) (*models.AreaView, error) {
	state, err := s.counters.Get(ctx, area.ID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Area exists but has never been updated; surface pristine state.
			state = &models.State{AreaID: area.ID, LastUpdated: area.CreatedAt}
		} else {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "occupancy read failed")
		}
	}
	return &models.AreaView{
		AreaID:         area.ID,
		Name:           area.Name,
		CurrentCount:   state.CurrentCount,
		MaxCapacity:    area.MaxCapacity,
		IsOpen:         area.IsOpen,
		LastUpdated:    state.LastUpdated,
		UpdateSequence: state.UpdateSequence,
	}, nil
}
