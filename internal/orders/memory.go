package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryRepo keeps orders in process. Watchers are signalled on every write
// touching their user.
type MemoryRepo struct {
	mu       sync.Mutex
	orders   map[string]Order
	watchers map[chan struct{}]string

	// FailCreate makes Create return this error when set.
	FailCreate error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: map[string]Order{}, watchers: map[chan struct{}]string{}}
}

func (m *MemoryRepo) notify(userID string) {
	for ch, uid := range m.watchers {
		if uid != userID {
			continue
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (m *MemoryRepo) Create(_ context.Context, o Order) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreate != nil {
		return Order{}, m.FailCreate
	}
	o.ID = NewID()
	now := time.Now().UTC()
	if o.Timestamp.IsZero() {
		o.Timestamp = now
	}
	o.UpdatedAt = now
	m.orders[o.ID] = o
	m.notify(o.UserID)
	return o, nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemoryRepo) UpdateStatus(_ context.Context, id string, from, to Status) (Order, error) {
	if !CanTransition(from, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	if o.Status != from {
		return Order{}, ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	m.notify(o.UserID)
	return o, nil
}

func (m *MemoryRepo) filter(keep func(Order) bool) []Order {
	var out []Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

func (m *MemoryRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(o Order) bool { return o.UserID == userID }), nil
}

func (m *MemoryRepo) List(_ context.Context, status Status) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.filter(func(o Order) bool { return status == "" || o.Status == status }), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	m.notify(o.UserID)
	return nil
}

func (m *MemoryRepo) Watch(ctx context.Context, userID string) (*Subscription, error) {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.watchers[ch] = userID
	m.mu.Unlock()

	release := func() {
		m.mu.Lock()
		delete(m.watchers, ch)
		m.mu.Unlock()
	}
	load := func(ctx context.Context) ([]Order, error) { return m.ListByUser(ctx, userID) }
	return startSubscription(ctx, ch, load, release), nil
}

// Watchers reports how many subscriptions are still registered.
func (m *MemoryRepo) Watchers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.watchers)
}
