package redisx

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusEntry is the cached status of one order. UserID names the owner so
// the API can answer from the cache without loading the order.
type StatusEntry struct {
	Status    string    `json:"status"`
	UserID    string    `json:"user_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CacheOrderStatus stores status for orderID. An empty userID keeps the owner
// already on the entry, if any.
func CacheOrderStatus(ctx context.Context, rdb redis.Cmdable, orderID, userID, status string) error {
	if userID == "" {
		if prev, found, err := CachedOrderStatus(ctx, rdb, orderID); err == nil && found {
			userID = prev.UserID
		}
	}
	b, err := json.Marshal(StatusEntry{Status: status, UserID: userID, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}

// CachedOrderStatus returns the cached entry; found is false on a cache miss.
func CachedOrderStatus(ctx context.Context, rdb redis.Cmdable, orderID string) (e StatusEntry, found bool, err error) {
	s, err := rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Result()
	if err == redis.Nil {
		return StatusEntry{}, false, nil
	}
	if err != nil {
		return StatusEntry{}, false, err
	}
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return StatusEntry{}, false, err
	}
	return e, true, nil
}
