package cart

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore() *Store {
	return &Store{
		Repo: NewMemoryRepository(),
		Now:  func() time.Time { return time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC) },
	}
}

var owner = Owner{UserID: "u1", Fullname: "An", Phone: "0901"}

func TestAddMergesSameItem(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	kibble := Product{ID: "F1", Name: "Kibble", Price: decimal.NewFromInt(50000), Type: KindFood}

	_, err := s.Add(ctx, owner, kibble)
	require.NoError(t, err)
	items, err := s.Add(ctx, owner, kibble)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "An", items[0].UserFullname)
	assert.Empty(t, items[0].Date)
}

func TestAddServiceDefaultsDateToToday(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	items, err := s.Add(ctx, owner, Product{ID: "S1", Name: "Bath", Price: decimal.NewFromInt(120000), Type: KindService})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-14", items[0].Date)

	// same id, other type is another line
	items, err = s.Add(ctx, owner, Product{ID: "S1", Name: "Bath shampoo", Type: KindFood})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = s.Add(ctx, owner, Product{ID: "X", Type: "toy"})
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestEdits(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, _ = s.Add(ctx, owner, Product{ID: "F1", Name: "Kibble", Price: decimal.NewFromInt(1), Type: KindFood})
	_, _ = s.Add(ctx, owner, Product{ID: "S1", Name: "Bath", Price: decimal.NewFromInt(1), Type: KindService})

	items, err := s.UpdateQuantity(ctx, "u1", 0, -4)
	require.NoError(t, err)
	assert.Equal(t, 1, items[0].Quantity)

	items, err = s.UpdateQuantity(ctx, "u1", 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, items[0].Quantity)

	items, err = s.UpdateDate(ctx, "u1", 1, "")
	require.NoError(t, err)
	assert.Empty(t, items[1].Date)

	_, err = s.UpdateDate(ctx, "u1", 5, "2026-10-20")
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	items, err = s.Remove(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "S1", items[0].ID)

	reloaded, err := s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, reloaded, 1)

	require.NoError(t, s.Clear(ctx, "u1"))
	reloaded, err = s.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestWithoutKeepsLaterAdditions(t *testing.T) {
	bought := []Item{
		{ID: "F1", Type: KindFood, Quantity: 2},
		{ID: "S1", Type: KindService, Quantity: 1, Date: "2026-10-20"},
	}
	current := []Item{
		{ID: "F1", Type: KindFood, Quantity: 3},
		{ID: "S1", Type: KindService, Quantity: 1, Date: "2026-10-20"},
		{ID: "F2", Type: KindFood, Quantity: 1},
	}

	rest := Without(current, bought)
	require.Len(t, rest, 2)
	assert.Equal(t, "F1", rest[0].ID)
	assert.Equal(t, 1, rest[0].Quantity)
	assert.Equal(t, "F2", rest[1].ID)

	assert.Empty(t, Without(bought, bought))
}
