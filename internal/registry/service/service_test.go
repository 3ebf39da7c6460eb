package service

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	occstore "urec/internal/occupancy/store"
	"urec/internal/registry/models"
	"urec/internal/registry/store"
	dErrors "urec/pkg/domainerrors"
)

func newService(t *testing.T) (*Service, *occstore.MemoryStore) {
	t.Helper()
	counters := occstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(store.NewInMemory(), counters, logger), counters
}

func TestCreateAreaInitializesCounterState(t *testing.T) {
	svc, counters := newService(t)
	ctx := context.Background()

	area, err := svc.CreateArea(ctx, "pool", "Swimming Pool", 40)
	require.NoError(t, err)
	assert.Equal(t, "pool", area.ID)
	assert.True(t, area.IsOpen)

	state, err := counters.Get(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, 0, state.CurrentCount)
	assert.EqualValues(t, 0, state.UpdateSequence)
}

func TestCreateAreaValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, "", "Nameless", 10)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.CreateArea(ctx, "sauna", "Sauna", 0)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestCreateAreaDuplicateConflicts(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, "pool", "Swimming Pool", 40)
	require.NoError(t, err)

	_, err = svc.CreateArea(ctx, "pool", "Swimming Pool", 40)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestGetAreaNotFound(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.GetArea(context.Background(), "sauna")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestUpdateArea(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, "track", "Indoor Track", 50)
	require.NoError(t, err)

	closed := false
	name := "Indoor Running Track"
	area, err := svc.UpdateArea(ctx, "track", models.Update{Name: &name, IsOpen: &closed})
	require.NoError(t, err)
	assert.Equal(t, "Indoor Running Track", area.Name)
	assert.False(t, area.IsOpen)
	assert.Equal(t, 50, area.MaxCapacity)
}

func TestUpdateAreaRejectsBadCapacity(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateArea(ctx, "track", "Indoor Track", 50)
	require.NoError(t, err)

	zero := 0
	_, err = svc.UpdateArea(ctx, "track", models.Update{MaxCapacity: &zero})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	// Failed update left the area untouched.
	area, err := svc.GetArea(ctx, "track")
	require.NoError(t, err)
	assert.Equal(t, 50, area.MaxCapacity)
}

func TestUpdateAreaNotFound(t *testing.T) {
	svc, _ := newService(t)

	open := true
	_, err := svc.UpdateArea(context.Background(), "sauna", models.Update{IsOpen: &open})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
