package redisx

import "time"

const (
	// Cart per user: cart:{user_id} -> JSON array of cart items
	KeyCart = "cart:%s"

	// Profile cache: user:{user_id} -> JSON profile
	KeyUser = "user:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLCart        = 30 * 24 * time.Hour
	TTLUser        = 1 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
