package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
)

// ValidateDates checks the visit date of every service line against today
// in now's location. It has no side effects.
func ValidateDates(items []cart.Item, now time.Time) ValidationErrors {
	today := startOfDay(now)
	var out ValidationErrors
	for i, it := range items {
		if it.Type != cart.KindService {
			continue
		}
		fail := func(k FailureKind) {
			out = append(out, &ValidationError{Kind: k, Index: i, ItemID: it.ID, ItemName: it.Name, Date: it.Date})
		}
		switch {
		case it.Date == "":
			fail(MissingDate)
			continue
		case !cart.WellFormedDate(it.Date):
			fail(MalformedDate)
			continue
		}
		d, err := time.ParseInLocation(cart.DateLayout, it.Date, now.Location())
		if err != nil {
			fail(InvalidDate)
			continue
		}
		if d.Before(today) {
			fail(PastDate)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StockReader is the read side of the food inventory.
type StockReader interface {
	GetFood(ctx context.Context, id string) (catalog.Food, error)
}

// foodDemand sums requested quantities per food id, keeping first-seen order.
type foodDemand struct {
	index int
	item  cart.Item
	qty   int
}

func demandByFood(items []cart.Item) []foodDemand {
	var out []foodDemand
	seen := map[string]int{}
	for i, it := range items {
		if it.Type != cart.KindFood {
			continue
		}
		if j, ok := seen[it.ID]; ok {
			out[j].qty += it.Quantity
			continue
		}
		seen[it.ID] = len(out)
		out = append(out, foodDemand{index: i, item: it, qty: it.Quantity})
	}
	return out
}

// Validate runs every rule over the cart and returns all failures. The
// returned error is only for lookups that could not be made.
func Validate(ctx context.Context, items []cart.Item, now time.Time, stock StockReader) (ValidationErrors, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	out := ValidateDates(items, now)
	for _, d := range demandByFood(items) {
		f, err := stock.GetFood(ctx, d.item.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, fmt.Errorf("%w: food %s", ErrRecordVanished, d.item.Name)
		}
		if err != nil {
			return nil, &NetworkError{Op: "read stock", Err: err}
		}
		if d.qty > f.Quantity {
			out = append(out, &ValidationError{
				Kind: InsufficientStock, Index: d.index, ItemID: d.item.ID, ItemName: f.Name,
				Requested: d.qty, Available: max(0, f.Quantity),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
