package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"urec/pkg/sentinel"
)

func TestMemoryApplyDeltaClampsAtZero(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.ApplyDelta(ctx, "pool", 3, now); err != nil {
		t.Fatalf("apply +3: %v", err)
	}

	state, err := s.ApplyDelta(ctx, "pool", -10, now)
	if err != nil {
		t.Fatalf("apply -10: %v", err)
	}
	if state.CurrentCount != 0 {
		t.Fatalf("expected count clamped to 0, got %d", state.CurrentCount)
	}
	if !state.Clamped {
		t.Fatalf("expected clamp flag on floored mutation")
	}
}

func TestMemoryNonNegativityUnderMixedDeltas(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	deltas := []int{5, -2, -9, 4, -1, 10, -30, 2}
	for _, d := range deltas {
		state, err := s.ApplyDelta(ctx, "cardio", d, now)
		if err != nil {
			t.Fatalf("apply %d: %v", d, err)
		}
		if state.CurrentCount < 0 {
			t.Fatalf("count went negative (%d) after delta %d", state.CurrentCount, d)
		}
	}
}

func TestMemoryConcurrentIncrementsLoseNoUpdates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			if _, err := s.ApplyDelta(ctx, "weight-room", 1, time.Now().UTC()); err != nil {
				t.Errorf("apply: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := s.Get(ctx, "weight-room")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.CurrentCount != n {
		t.Fatalf("lost updates: expected %d, got %d", n, state.CurrentCount)
	}
	if state.UpdateSequence != n {
		t.Fatalf("expected sequence %d, got %d", n, state.UpdateSequence)
	}
}

func TestMemoryAreasProgressIndependently(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const perArea = 200
	var wg sync.WaitGroup
	for _, area := range []string{"track", "basketball", "climbing"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perArea {
				if _, err := s.ApplyDelta(ctx, area, 1, time.Now().UTC()); err != nil {
					t.Errorf("apply to %s: %v", area, err)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, area := range []string{"track", "basketball", "climbing"} {
		state, err := s.Get(ctx, area)
		if err != nil {
			t.Fatalf("get %s: %v", area, err)
		}
		if state.CurrentCount != perArea {
			t.Fatalf("area %s corrupted by neighbors: expected %d, got %d", area, perArea, state.CurrentCount)
		}
	}
}

func TestMemoryConcurrentMixedWritersStayConsistent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	// Interleave applies and sets; the final state must be some committed
	// snapshot, never a blend. Sequence must count every mutation exactly once.
	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := range writers {
		go func() {
			defer wg.Done()
			var err error
			if i%10 == 0 {
				_, err = s.SetCount(ctx, "pool", 7, time.Now().UTC())
			} else {
				_, err = s.ApplyDelta(ctx, "pool", 1, time.Now().UTC())
			}
			if err != nil {
				t.Errorf("mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	state, err := s.Get(ctx, "pool")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.UpdateSequence != writers {
		t.Fatalf("expected %d mutations recorded, got %d", writers, state.UpdateSequence)
	}
	if state.CurrentCount < 0 || state.CurrentCount > writers {
		t.Fatalf("implausible final count %d", state.CurrentCount)
	}
}

func TestMemorySetOverridesCleanly(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := s.ApplyDelta(ctx, "pool", 5, now); err != nil {
		t.Fatalf("apply +5: %v", err)
	}
	if _, err := s.SetCount(ctx, "pool", 2, now); err != nil {
		t.Fatalf("set 2: %v", err)
	}

	state, err := s.Get(ctx, "pool")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.CurrentCount != 2 {
		t.Fatalf("expected count 2 after set, got %d", state.CurrentCount)
	}

	state, err = s.SetCount(ctx, "pool", -4, now)
	if err != nil {
		t.Fatalf("set -4: %v", err)
	}
	if state.CurrentCount != 0 {
		t.Fatalf("expected negative set clamped to 0, got %d", state.CurrentCount)
	}
	if !state.Clamped {
		t.Fatalf("expected clamp flag on negative set")
	}
}

func TestMemorySequenceStrictlyIncreases(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var last int64
	for i := range 10 {
		state, err := s.ApplyDelta(ctx, "racquetball", 1, time.Now().UTC())
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		if state.UpdateSequence <= last {
			t.Fatalf("sequence not strictly increasing: %d after %d", state.UpdateSequence, last)
		}
		last = state.UpdateSequence
	}
}

func TestMemoryGetUnknownArea(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "sauna")
	if !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown area, got %v", err)
	}
}

func TestMemoryInitIsIdempotent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	created := time.Date(2024, 2, 7, 14, 30, 0, 0, time.UTC)

	if err := s.Init(ctx, "pool", created); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := s.Init(ctx, "pool", created.Add(time.Hour)); err != nil {
		t.Fatalf("second init: %v", err)
	}

	state, err := s.Get(ctx, "pool")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state.CurrentCount != 0 || state.UpdateSequence != 0 {
		t.Fatalf("expected pristine zero state, got count=%d seq=%d", state.CurrentCount, state.UpdateSequence)
	}
	if !state.LastUpdated.Equal(created) {
		t.Fatalf("expected first init timestamp preserved, got %v", state.LastUpdated)
	}
}
