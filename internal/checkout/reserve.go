package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
)

// Inventory is what reservation needs from the food store.
type Inventory interface {
	StockReader
	DecrementFood(ctx context.Context, id string, qty int) (catalog.Food, error)
}

// Reservation is one applied stock decrement.
type Reservation struct {
	FoodID   string
	Quantity int
	Left     int
}

// Reserve decrements stock for every food line, one item at a time. Each
// record is re-read right before its write so a deletion since validation
// surfaces as ErrRecordVanished. There is no cross-item transaction: on
// failure the decrements already applied stay in place and are returned.
func Reserve(ctx context.Context, inv Inventory, items []cart.Item) ([]Reservation, error) {
	var done []Reservation
	for _, d := range demandByFood(items) {
		if _, err := inv.GetFood(ctx, d.item.ID); err != nil {
			return done, reserveErr(d, err)
		}
		f, err := inv.DecrementFood(ctx, d.item.ID, d.qty)
		if err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return done, ValidationErrors{{
					Kind: InsufficientStock, Index: d.index, ItemID: d.item.ID, ItemName: d.item.Name,
					Requested: d.qty, Available: max(0, f.Quantity),
				}}
			}
			return done, reserveErr(d, err)
		}
		done = append(done, Reservation{FoodID: f.ID, Quantity: d.qty, Left: f.Quantity})
	}
	return done, nil
}

func reserveErr(d foodDemand, err error) error {
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: food %s", ErrRecordVanished, d.item.Name)
	}
	return &NetworkError{Op: "reserve " + d.item.ID, Err: err}
}
