package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecrementFlipsStatusAtZero(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	_, err := m.UpsertFood(ctx, Food{ID: "F1", Name: "Kibble", Price: decimal.NewFromInt(50000), Status: FoodAvailable, Quantity: 3})
	require.NoError(t, err)

	f, err := m.DecrementFood(ctx, "F1", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Quantity)
	assert.Equal(t, FoodAvailable, f.Status)

	f, err = m.DecrementFood(ctx, "F1", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, f.Quantity)
	assert.Equal(t, FoodOutOfStock, f.Status)

	avail, err := m.ListAvailableFoods(ctx)
	require.NoError(t, err)
	assert.Empty(t, avail)
}

func TestDecrementRejectsOversell(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRepo()
	_, _ = m.UpsertFood(ctx, Food{ID: "F1", Name: "Kibble", Status: FoodAvailable, Quantity: 1})

	f, err := m.DecrementFood(ctx, "F1", 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 1, f.Quantity)
	assert.Zero(t, m.Writes)

	_, err = m.DecrementFood(ctx, "missing", 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, FoodOutOfStock, StatusFor(0))
	assert.Equal(t, FoodOutOfStock, StatusFor(-1))
	assert.Equal(t, FoodAvailable, StatusFor(4))
}
