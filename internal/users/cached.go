package users

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// Store is the durable profile store behind the cache.
type Store interface {
	Get(ctx context.Context, id string) (Profile, error)
	Upsert(ctx context.Context, p Profile) (Profile, error)
}

// CachedRepo reads profiles through Redis. The database stays the source of
// truth; cache failures fall through to it.
type CachedRepo struct {
	Store Store
	Redis redis.Cmdable
}

func (c *CachedRepo) Get(ctx context.Context, id string) (Profile, error) {
	key := fmt.Sprintf(redisx.KeyUser, id)
	if s, err := c.Redis.Get(ctx, key).Result(); err == nil {
		var p Profile
		if json.Unmarshal([]byte(s), &p) == nil {
			return p, nil
		}
	}
	p, err := c.Store.Get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	c.remember(ctx, p)
	return p, nil
}

func (c *CachedRepo) Upsert(ctx context.Context, p Profile) (Profile, error) {
	out, err := c.Store.Upsert(ctx, p)
	if err != nil {
		return Profile{}, err
	}
	c.remember(ctx, out)
	return out, nil
}

func (c *CachedRepo) remember(ctx context.Context, p Profile) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.Redis.Set(ctx, fmt.Sprintf(redisx.KeyUser, p.ID), b, redisx.TTLUser).Err()
}

// Forget drops the cached copy, e.g. after a role change.
func (c *CachedRepo) Forget(ctx context.Context, id string) error {
	return c.Redis.Del(ctx, fmt.Sprintf(redisx.KeyUser, id)).Err()
}
