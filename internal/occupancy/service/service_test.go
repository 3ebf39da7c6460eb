package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urec/internal/occupancy/events"
	occstore "urec/internal/occupancy/store"
	registrymodels "urec/internal/registry/models"
	registrystore "urec/internal/registry/store"
	dErrors "urec/pkg/domainerrors"
	"urec/pkg/requestcontext"
)

type capturingPublisher struct {
	mu     sync.Mutex
	events []events.Changed
}

func (p *capturingPublisher) PublishChanged(_ context.Context, ev events.Changed) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturingPublisher) Close() {}

func (p *capturingPublisher) all() []events.Changed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Changed(nil), p.events...)
}

func newTestService(t *testing.T, areaIDs ...string) (*Service, *capturingPublisher) {
	t.Helper()

	areas := registrystore.NewInMemory()
	now := time.Now().UTC()
	for _, id := range areaIDs {
		area, err := registrymodels.NewArea(id, "Area "+id, 40, now)
		require.NoError(t, err)
		require.NoError(t, areas.Create(context.Background(), area))
	}

	pub := &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := New(occstore.NewMemoryStore(), areas, logger,
		WithPublisher(pub),
		WithEventIDs(func() string { return "evt-1" }),
	)
	return svc, pub
}

func TestApplyIncrementsAndStampsTime(t *testing.T) {
	svc, pub := newTestService(t, "pool")
	now := time.Date(2024, 2, 7, 14, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	state, err := svc.Apply(ctx, "pool", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, state.CurrentCount)
	assert.EqualValues(t, 1, state.UpdateSequence)
	assert.True(t, state.LastUpdated.Equal(now))

	evs := pub.all()
	require.Len(t, evs, 1)
	assert.Equal(t, ActionEnter, evs[0].Action)
	assert.Equal(t, 3, evs[0].NewCount)
	assert.Equal(t, "evt-1", evs[0].EventID)
}

func TestApplyClampsAtZero(t *testing.T) {
	svc, pub := newTestService(t, "pool")
	ctx := context.Background()

	_, err := svc.Apply(ctx, "pool", 3)
	require.NoError(t, err)

	state, err := svc.Apply(ctx, "pool", -10)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentCount)

	evs := pub.all()
	require.Len(t, evs, 2)
	assert.Equal(t, ActionExit, evs[1].Action)
	assert.Equal(t, 0, evs[1].NewCount)
}

func TestApplyUnknownAreaIsNoOp(t *testing.T) {
	svc, pub := newTestService(t, "pool")
	ctx := context.Background()

	_, err := svc.Apply(ctx, "sauna", 1)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.Empty(t, pub.all(), "no event for rejected update")

	// Other state untouched.
	view, err := svc.Read(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentCount)
}

func TestSetOverridesCleanly(t *testing.T) {
	svc, pub := newTestService(t, "pool")
	ctx := context.Background()

	_, err := svc.Apply(ctx, "pool", 5)
	require.NoError(t, err)

	state, err := svc.Set(ctx, "pool", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, state.CurrentCount)

	view, err := svc.Read(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, 2, view.CurrentCount)

	state, err = svc.Set(ctx, "pool", -4)
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentCount, "negative set clamps to zero")

	evs := pub.all()
	require.Len(t, evs, 3)
	assert.Equal(t, ActionReset, evs[1].Action)
}

func TestApplyConcurrentLosesNoUpdates(t *testing.T) {
	svc, _ := newTestService(t, "weight-room")
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			_, err := svc.Apply(ctx, "weight-room", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := svc.Read(ctx, "weight-room")
	require.NoError(t, err)
	assert.Equal(t, n, view.CurrentCount)
}

func TestSequenceStrictlyIncreases(t *testing.T) {
	svc, _ := newTestService(t, "cardio")
	ctx := context.Background()

	var last int64
	for i := range 10 {
		state, err := svc.Apply(ctx, "cardio", 1)
		require.NoError(t, err, "apply %d", i)
		assert.Greater(t, state.UpdateSequence, last)
		last = state.UpdateSequence
	}
}

func TestReadNeverUpdatedAreaIsPristine(t *testing.T) {
	svc, _ := newTestService(t, "climbing")

	view, err := svc.Read(context.Background(), "climbing")
	require.NoError(t, err)
	assert.Equal(t, 0, view.CurrentCount)
	assert.EqualValues(t, 0, view.UpdateSequence)
	assert.Equal(t, "Area climbing", view.Name)
}

func TestReadAllCoversEveryArea(t *testing.T) {
	svc, _ := newTestService(t, "pool", "track", "cardio")
	ctx := context.Background()

	_, err := svc.Apply(ctx, "track", 7)
	require.NoError(t, err)

	views, err := svc.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, views, 3)

	byID := map[string]int{}
	for _, v := range views {
		byID[v.AreaID] = v.CurrentCount
	}
	assert.Equal(t, 7, byID["track"])
	assert.Equal(t, 0, byID["pool"])
	assert.Equal(t, 0, byID["cardio"])
}

func TestOverCapacityIsPermitted(t *testing.T) {
	svc, _ := newTestService(t, "pool") // max capacity 40 in the fixture

	state, err := svc.Apply(context.Background(), "pool", 10)
	require.NoError(t, err)
	for range 5 {
		state, err = svc.Apply(context.Background(), "pool", 10)
		require.NoError(t, err)
	}
	assert.Equal(t, 60, state.CurrentCount, "over-capacity counts are informational, never rejected")
}

func TestAreasProgressIndependently(t *testing.T) {
	svc, _ := newTestService(t, "pool", "track")
	ctx := context.Background()

	const perArea = 100
	var wg sync.WaitGroup
	for _, area := range []string{"pool", "track"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perArea {
				if _, err := svc.Apply(ctx, area, 1); err != nil {
					t.Errorf("apply to %s: %v", area, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, area := range []string{"pool", "track"} {
		view, err := svc.Read(ctx, area)
		require.NoError(t, err)
		assert.Equal(t, perArea, view.CurrentCount, fmt.Sprintf("area %s", area))
	}
}
