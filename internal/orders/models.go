package orders

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrStatusConflict    = errors.New("order status changed concurrently")
)

type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Quantity int    `json:"quantity"`
}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	UserFullname  string          `json:"userFullname"`
	UserPhone     string          `json:"userPhone"`
	Items         []Item          `json:"items"`
	Total         decimal.Decimal `json:"total"` // serialized as a decimal string
	Timestamp     time.Time       `json:"timestamp"`
	Status        Status          `json:"status"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewID returns a 32 hex digit order id. It survives alphanumeric memo
// sanitizing unchanged, so the id can be matched inside a bank transfer memo.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
