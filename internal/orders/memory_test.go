package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, s *Subscription) []Order {
	t.Helper()
	select {
	case snap, ok := <-s.C():
		require.True(t, ok, "subscription closed")
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
		return nil
	}
}

func TestUpdateStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	o, err := m.Create(ctx, Order{UserID: "u1", Total: decimal.NewFromInt(150000), Status: StatusPendingPayment, PaymentMethod: PaymentQR})
	require.NoError(t, err)

	_, err = m.UpdateStatus(ctx, o.ID, StatusPendingPayment, StatusPaid)
	require.NoError(t, err)

	_, err = m.UpdateStatus(ctx, o.ID, StatusPendingPayment, StatusPaid)
	require.ErrorIs(t, err, ErrStatusConflict)

	_, err = m.UpdateStatus(ctx, o.ID, StatusPaid, StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = m.UpdateStatus(ctx, "nope", StatusPending, StatusPaid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWatchDeliversSnapshotsAndReleases(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	sub, err := m.Watch(ctx, "u1")
	require.NoError(t, err)

	assert.Empty(t, recv(t, sub))

	_, err = m.Create(ctx, Order{UserID: "u2", Status: StatusPending})
	require.NoError(t, err)
	o, err := m.Create(ctx, Order{UserID: "u1", Status: StatusPending})
	require.NoError(t, err)

	snap := recv(t, sub)
	require.Len(t, snap, 1)
	assert.Equal(t, o.ID, snap[0].ID)

	sub.Close()
	assert.Zero(t, m.Watchers())
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.NoError(t, sub.Err())
}

func TestWatchIsRestartable(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	_, _ = m.Create(ctx, Order{UserID: "u1", Status: StatusPending})

	first, err := m.Watch(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, recv(t, first), 1)
	first.Close()

	second, err := m.Watch(ctx, "u1")
	require.NoError(t, err)
	defer second.Close()
	assert.Len(t, recv(t, second), 1)
}
