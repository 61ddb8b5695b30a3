package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process catalog used by tests and local runs.
type MemoryRepo struct {
	mu       sync.Mutex
	foods    map[string]Food
	services map[string]Service

	// Writes counts successful stock decrements.
	Writes int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{foods: map[string]Food{}, services: map[string]Service{}}
}

func (m *MemoryRepo) GetFood(_ context.Context, id string) (Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok {
		return Food{}, ErrNotFound
	}
	return f, nil
}

func (m *MemoryRepo) ListFoods(_ context.Context) ([]Food, error) {
	return m.filterFoods(func(Food) bool { return true }), nil
}

func (m *MemoryRepo) ListAvailableFoods(_ context.Context) ([]Food, error) {
	return m.filterFoods(func(f Food) bool { return f.Status == FoodAvailable }), nil
}

func (m *MemoryRepo) filterFoods(keep func(Food) bool) []Food {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Food
	for _, f := range m.foods {
		if keep(f) {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *MemoryRepo) UpsertFood(_ context.Context, f Food) (Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.UpdatedAt = time.Now().UTC()
	m.foods[f.ID] = f
	return f, nil
}

func (m *MemoryRepo) DeleteFood(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.foods[id]; !ok {
		return ErrNotFound
	}
	delete(m.foods, id)
	return nil
}

func (m *MemoryRepo) DecrementFood(_ context.Context, id string, qty int) (Food, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.foods[id]
	if !ok {
		return Food{}, ErrNotFound
	}
	if f.Quantity < qty {
		return f, ErrInsufficientStock
	}
	f.Quantity -= qty
	if f.Quantity <= 0 {
		f.Status = FoodOutOfStock
	}
	f.UpdatedAt = time.Now().UTC()
	m.foods[id] = f
	m.Writes++
	return f, nil
}

func (m *MemoryRepo) GetService(_ context.Context, id string) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.services[id]
	if !ok {
		return Service{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryRepo) ListServices(_ context.Context) ([]Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Service, 0, len(m.services))
	for _, s := range m.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryRepo) UpsertService(_ context.Context, s Service) (Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.UpdatedAt = time.Now().UTC()
	m.services[s.ID] = s
	return s, nil
}

func (m *MemoryRepo) DeleteService(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.services[id]; !ok {
		return ErrNotFound
	}
	delete(m.services, id)
	return nil
}
