package store

import (
	"context"
	"sort"
	"sync"

	"urec/internal/registry/models"
	"urec/pkg/sentinel"
)

// InMemory implements AreaStore with a single RWMutex; the registry is small
// and rarely written, so one lock is enough.
type InMemory struct {
	mu    sync.RWMutex
	areas map[string]*models.Area
}

// NewInMemory creates an empty in-memory area store.
func NewInMemory() *InMemory {
	return &InMemory{areas: make(map[string]*models.Area)}
}

func (s *InMemory) Create(_ context.Context, area *models.Area) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.areas[area.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *area
	s.areas[area.ID] = &cp
	return nil
}

func (s *InMemory) Get(_ context.Context, areaID string) (*models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	area, exists := s.areas[areaID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *area
	return &cp, nil
}

func (s *InMemory) List(_ context.Context) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Area, 0, len(s.areas))
	for _, area := range s.areas {
		out = append(out, *area)
	}
	// Stable order for callers; insertion order is not significant.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Update(_ context.Context, areaID string, validate func(*models.Area) error, mutate func(*models.Area)) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	area, exists := s.areas[areaID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(area); err != nil {
			return nil, err
		}
	}
	mutate(area)
	cp := *area
	return &cp, nil
}
