package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Criteria identifies the transfer that settles one order.
type Criteria struct {
	OrderID string
	Total   decimal.Decimal
	Account string
}

// Matches tests the memo as a case-insensitive substring, the amount as a
// lower bound and the account exactly.
func (c Criteria) Matches(t Transaction) bool {
	return strings.Contains(strings.ToUpper(t.Description), strings.ToUpper(c.OrderID)) &&
		t.Amount.GreaterThanOrEqual(c.Total) &&
		t.Account == c.Account
}

// FirstMatch returns the first transaction in feed order that satisfies c.
func FirstMatch(txns []Transaction, c Criteria) (Transaction, bool) {
	for _, t := range txns {
		if c.Matches(t) {
			return t, true
		}
	}
	return Transaction{}, false
}
