package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

type FoodStatus string

const (
	FoodAvailable  FoodStatus = "Available"
	FoodOutOfStock FoodStatus = "OutOfStock"
)

type Food struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Picture   string          `json:"picture"`
	Status    FoodStatus      `json:"status"`
	Quantity  int             `json:"quantity"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// StatusFor returns the availability implied by a stock count.
func StatusFor(quantity int) FoodStatus {
	if quantity <= 0 {
		return FoodOutOfStock
	}
	return FoodAvailable
}

type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"describe"`
	Price       decimal.Decimal `json:"price"`
	Picture     string          `json:"picture"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
