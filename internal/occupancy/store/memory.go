package store

import (
	"context"
	"sync"
	"time"

	"urec/internal/occupancy/models"
	"urec/pkg/sentinel"
)

// MemoryStore implements CounterStore with one lock per area so that a
// contended area never delays updates to any other area. The outer RWMutex
// only guards the map itself; all counter work happens under the entry's own
// mutex. Entries are never removed while the process lives, so a *entry
// obtained under the read lock stays valid.
type MemoryStore struct {
	mu    sync.RWMutex
	areas map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state models.State
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{areas: make(map[string]*entry)}
}

func (s *MemoryStore) Init(_ context.Context, areaID string, now time.Time) error {
	e := s.getOrCreate(areaID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.LastUpdated.IsZero() {
		e.state.LastUpdated = now
	}
	return nil
}

func (s *MemoryStore) ApplyDelta(_ context.Context, areaID string, delta int, now time.Time) (*models.State, error) {
	e := s.getOrCreate(areaID)
	e.mu.Lock()
	defer e.mu.Unlock()

	count := e.state.CurrentCount + delta
	clamped := count < 0
	if clamped {
		count = 0
	}
	e.state.CurrentCount = count
	e.state.UpdateSequence++
	e.state.LastUpdated = now

	snap := e.state
	snap.Clamped = clamped
	return &snap, nil
}

func (s *MemoryStore) SetCount(_ context.Context, areaID string, value int, now time.Time) (*models.State, error) {
	e := s.getOrCreate(areaID)
	e.mu.Lock()
	defer e.mu.Unlock()

	clamped := value < 0
	if clamped {
		value = 0
	}
	e.state.CurrentCount = value
	e.state.UpdateSequence++
	e.state.LastUpdated = now

	snap := e.state
	snap.Clamped = clamped
	return &snap, nil
}

func (s *MemoryStore) Get(_ context.Context, areaID string) (*models.State, error) {
	s.mu.RLock()
	e := s.areas[areaID]
	s.mu.RUnlock()
	if e == nil {
		return nil, sentinel.ErrNotFound
	}

	e.mu.Lock()
	snap := e.state
	e.mu.Unlock()
	return &snap, nil
}

// getOrCreate resolves the entry for an area, materializing zero state on
// first use. The double-checked write lock keeps the existence-check and
// creation race-free.
func (s *MemoryStore) getOrCreate(areaID string) *entry {
	s.mu.RLock()
	e := s.areas[areaID]
	s.mu.RUnlock()
	if e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.areas[areaID]; e == nil {
		e = &entry{state: models.State{AreaID: areaID}}
		s.areas[areaID] = e
	}
	return e
}
