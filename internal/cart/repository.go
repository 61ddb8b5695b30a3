package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Repository persists one cart per user. Implementations store the whole
// ordered list at once.
type Repository interface {
	Load(ctx context.Context, userID string) ([]Item, error)
	Save(ctx context.Context, userID string, items []Item) error
	Clear(ctx context.Context, userID string) error
}

// MemoryRepository keeps the encoded form so loads go through Decode just like
// the persisted implementation.
type MemoryRepository struct {
	mu    sync.Mutex
	carts map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: map[string][]byte{}}
}

func (m *MemoryRepository) Load(_ context.Context, userID string) ([]Item, error) {
	m.mu.Lock()
	b := m.carts[userID]
	m.mu.Unlock()
	return Decode(b)
}

func (m *MemoryRepository) Save(_ context.Context, userID string, items []Item) error {
	b, err := Encode(items)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.carts[userID] = b
	m.mu.Unlock()
	return nil
}

func (m *MemoryRepository) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	delete(m.carts, userID)
	m.mu.Unlock()
	return nil
}

// SetRaw stores bytes as they are, for loading legacy or hand-edited carts.
func (m *MemoryRepository) SetRaw(userID string, b []byte) {
	m.mu.Lock()
	m.carts[userID] = b
	m.mu.Unlock()
}

// RedisRepository stores each cart under cart:{user_id}.
type RedisRepository struct {
	Redis redis.Cmdable
}

func (r *RedisRepository) key(userID string) string { return fmt.Sprintf(redisx.KeyCart, userID) }

func (r *RedisRepository) Load(ctx context.Context, userID string) ([]Item, error) {
	b, err := r.Redis.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return Decode(b)
}

func (r *RedisRepository) Save(ctx context.Context, userID string, items []Item) error {
	if len(items) == 0 {
		return r.Clear(ctx, userID)
	}
	b, err := Encode(items)
	if err != nil {
		return err
	}
	if err := r.Redis.Set(ctx, r.key(userID), b, redisx.TTLCart).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (r *RedisRepository) Clear(ctx context.Context, userID string) error {
	if err := r.Redis.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
