package users

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu    sync.Mutex
	byID  map[string]Profile
	Reads int
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: map[string]Profile{}}
}

func (m *MemoryRepo) Get(_ context.Context, id string) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reads++
	p, ok := m.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (m *MemoryRepo) Upsert(_ context.Context, p Profile) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.byID[p.ID]; ok {
		p.Role = cur.Role
	} else if p.Role == "" {
		p.Role = RoleCustomer
	}
	p.UpdatedAt = time.Now().UTC()
	m.byID[p.ID] = p
	return p, nil
}

func (m *MemoryRepo) List(context.Context) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Profile, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *MemoryRepo) SetRole(_ context.Context, id string, role Role) (Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	p.Role = role
	m.byID[id] = p
	return p, nil
}

// MemoryEmployees is the in-process employee directory.
type MemoryEmployees struct {
	mu   sync.Mutex
	byID map[string]Employee
}

func NewMemoryEmployees(es ...Employee) *MemoryEmployees {
	m := &MemoryEmployees{byID: map[string]Employee{}}
	for _, e := range es {
		m.byID[e.ID] = e
	}
	return m
}

func (m *MemoryEmployees) Get(_ context.Context, id string) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return Employee{}, ErrEmployeeNotFound
	}
	return e, nil
}

func (m *MemoryEmployees) List(context.Context) ([]Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Employee, 0, len(m.byID))
	for _, e := range m.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryEmployees) Upsert(_ context.Context, e Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.byID[e.ID] = e
	return e, nil
}

func (m *MemoryEmployees) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrEmployeeNotFound
	}
	delete(m.byID, id)
	return nil
}
