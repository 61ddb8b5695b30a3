package checkout

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveDecrementsEveryFood(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewMemoryRepo()
	seedFood(t, repo, "F1", 5)
	seedFood(t, repo, "F2", 1)

	res, err := Reserve(ctx, repo, []cart.Item{food("F1", 2), service("S1", "2025-01-02"), food("F2", 1)})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, Reservation{FoodID: "F1", Quantity: 2, Left: 3}, res[0])

	f2, err := repo.GetFood(ctx, "F2")
	require.NoError(t, err)
	assert.Equal(t, 0, f2.Quantity)
	assert.Equal(t, catalog.FoodOutOfStock, f2.Status)
}

func TestReserveStopsAtShortItem(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewMemoryRepo()
	seedFood(t, repo, "F1", 5)
	seedFood(t, repo, "F2", 1)

	res, err := Reserve(ctx, repo, []cart.Item{food("F1", 2), food("F2", 3)})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.True(t, verrs.Has(InsufficientStock))
	assert.Equal(t, 1, verrs.First().Available)

	// the first decrement is not rolled back
	require.Len(t, res, 1)
	f1, _ := repo.GetFood(ctx, "F1")
	assert.Equal(t, 3, f1.Quantity)
}

func TestReserveVanishedRecord(t *testing.T) {
	ctx := context.Background()
	repo := catalog.NewMemoryRepo()
	seedFood(t, repo, "F1", 5)
	require.NoError(t, repo.DeleteFood(ctx, "F1"))

	_, err := Reserve(ctx, repo, []cart.Item{food("F1", 1)})
	assert.ErrorIs(t, err, ErrRecordVanished)
	assert.Zero(t, repo.Writes)
}
