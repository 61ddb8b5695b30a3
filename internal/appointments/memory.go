package appointments

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryRepo struct {
	mu   sync.Mutex
	byID map[string]Appointment

	// FailCreate, when set, is consulted before every Create.
	FailCreate func(Appointment) error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byID: map[string]Appointment{}} }

func (m *MemoryRepo) Create(_ context.Context, a Appointment) (Appointment, error) {
	if _, err := parseDate(a.Date); err != nil {
		return Appointment{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		if err := m.FailCreate(a); err != nil {
			return Appointment{}, err
		}
	}
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	m.byID[a.ID] = a
	return a, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryRepo) filter(keep func(Appointment) bool) []Appointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Appointment
	for _, a := range m.byID {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryRepo) List(context.Context) ([]Appointment, error) {
	return m.filter(func(Appointment) bool { return true }), nil
}

func (m *MemoryRepo) ListByStatus(_ context.Context, s Status) ([]Appointment, error) {
	return m.filter(func(a Appointment) bool { return a.Status == s }), nil
}

func (m *MemoryRepo) ListByPhone(_ context.Context, phone string) ([]Appointment, error) {
	return m.filter(func(a Appointment) bool { return a.Phone == phone }), nil
}

func (m *MemoryRepo) Update(_ context.Context, a Appointment) (Appointment, error) {
	if _, err := parseDate(a.Date); err != nil {
		return Appointment{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[a.ID]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	cur.Date = a.Date
	cur.Status = a.Status
	cur.AssignedEmployee = a.AssignedEmployee
	cur.AssignedEmployeeName = a.AssignedEmployeeName
	m.byID[a.ID] = cur
	return cur, nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}
