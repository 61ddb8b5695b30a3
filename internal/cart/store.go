package cart

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Owner is the profile data stamped onto every line.
type Owner struct {
	UserID   string
	Fullname string
	Phone    string
}

// Product is what a customer picks from the catalog.
type Product struct {
	ID      string
	Name    string
	Price   decimal.Decimal
	Picture string
	Type    Kind
}

// Store applies cart edits through a Repository.
type Store struct {
	Repo Repository
	Now  func() time.Time
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) Items(ctx context.Context, userID string) ([]Item, error) {
	return s.Repo.Load(ctx, userID)
}

// Add puts one unit of p in the cart, or bumps the quantity if an item with
// the same id and type is already there. New services default to today's date.
func (s *Store) Add(ctx context.Context, o Owner, p Product) ([]Item, error) {
	if p.Type != KindFood && p.Type != KindService {
		return nil, ErrUnknownKind
	}
	items, err := s.Repo.Load(ctx, o.UserID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == p.ID && items[i].Type == p.Type {
			items[i].Quantity++
			return items, s.Repo.Save(ctx, o.UserID, items)
		}
	}
	now := s.now()
	it := Item{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Picture:      p.Picture,
		Quantity:     1,
		Type:         p.Type,
		UserID:       o.UserID,
		UserFullname: o.Fullname,
		UserPhone:    o.Phone,
		Timestamp:    now.UTC(),
	}
	if p.Type == KindService {
		it.Date = now.Format(DateLayout)
	}
	items = append(items, it)
	return items, s.Repo.Save(ctx, o.UserID, items)
}

func (s *Store) edit(ctx context.Context, userID string, index int, fn func([]Item) []Item) ([]Item, error) {
	items, err := s.Repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(items) {
		return nil, ErrIndexOutOfRange
	}
	items = fn(items)
	return items, s.Repo.Save(ctx, userID, items)
}

// UpdateQuantity sets the quantity at index, never below one.
func (s *Store) UpdateQuantity(ctx context.Context, userID string, index, quantity int) ([]Item, error) {
	return s.edit(ctx, userID, index, func(items []Item) []Item {
		items[index].Quantity = max(1, quantity)
		return items
	})
}

// UpdateDate sets the visit date at index. An empty date clears it; any other
// value is kept as entered and checked at checkout.
func (s *Store) UpdateDate(ctx context.Context, userID string, index int, date string) ([]Item, error) {
	return s.edit(ctx, userID, index, func(items []Item) []Item {
		items[index].Date = date
		return items
	})
}

func (s *Store) Remove(ctx context.Context, userID string, index int) ([]Item, error) {
	return s.edit(ctx, userID, index, func(items []Item) []Item {
		return append(items[:index], items[index+1:]...)
	})
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.Repo.Clear(ctx, userID)
}
