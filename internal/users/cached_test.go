package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCached(t *testing.T) (*CachedRepo, *MemoryRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewMemoryRepo()
	return &CachedRepo{Store: store, Redis: rdb}, store, mr
}

func TestCachedRepoServesFromCache(t *testing.T) {
	ctx := context.Background()
	c, store, mr := newCached(t)

	_, err := c.Upsert(ctx, Profile{ID: "u1", Email: "an@example.com", Fullname: "An", Phone: "0901"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("user:u1"))

	p, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "An", p.Fullname)
	assert.Equal(t, RoleCustomer, p.Role)
	assert.Zero(t, store.Reads, "served from redis")

	require.NoError(t, c.Forget(ctx, "u1"))
	_, err = c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Reads)
}

func TestCachedRepoMissing(t *testing.T) {
	c, _, _ := newCached(t)
	_, err := c.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfileComplete(t *testing.T) {
	assert.False(t, Profile{Fullname: "An"}.Complete())
	assert.True(t, Profile{Fullname: "An", Phone: "0901"}.Complete())
}
