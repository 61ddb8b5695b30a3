package cart

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a cart as one JSON array.
func Encode(items []Item) ([]byte, error) {
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(items)
}

// Decode parses a persisted cart. Dates that are not valid YYYY-MM-DD become
// absent and quantities below one become one; neither is an error.
func Decode(b []byte) ([]Item, error) {
	if len(b) == 0 {
		return []Item{}, nil
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	for i := range items {
		if items[i].Date != "" && !ValidDate(items[i].Date) {
			items[i].Date = ""
		}
		if items[i].Quantity < 1 {
			items[i].Quantity = 1
		}
	}
	return items, nil
}
