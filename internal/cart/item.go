package cart

import (
	"errors"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindFood    Kind = "food"
	KindService Kind = "service"
)

// DateLayout is the service visit date format.
const DateLayout = "2006-01-02"

var (
	ErrIndexOutOfRange = errors.New("cart index out of range")
	ErrUnknownKind     = errors.New("unknown cart item type")
)

// Item is one cart line. Date is empty when absent.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Picture      string          `json:"picture"`
	Quantity     int             `json:"quantity"`
	Type         Kind            `json:"type"`
	Date         string          `json:"date,omitempty"`
	UserID       string          `json:"userId"`
	UserFullname string          `json:"userFullname"`
	UserPhone    string          `json:"userPhone"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Subtotal is price times quantity.
func (it Item) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums the subtotals of items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Subtotal())
	}
	return sum
}

// Without returns current minus the lines in bought, matched by id and type.
// Quantities added after bought was taken are kept.
func Without(current, bought []Item) []Item {
	type key struct {
		id   string
		kind Kind
	}
	taken := make(map[key]int, len(bought))
	for _, it := range bought {
		taken[key{it.ID, it.Type}] += it.Quantity
	}
	rest := make([]Item, 0, len(current))
	for _, it := range current {
		k := key{it.ID, it.Type}
		n := min(taken[k], it.Quantity)
		taken[k] -= n
		if it.Quantity -= n; it.Quantity > 0 {
			rest = append(rest, it)
		}
	}
	return rest
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// WellFormedDate reports whether s looks like YYYY-MM-DD.
func WellFormedDate(s string) bool { return datePattern.MatchString(s) }

// ValidDate reports whether s is a well formed, real calendar date.
func ValidDate(s string) bool {
	if !WellFormedDate(s) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
