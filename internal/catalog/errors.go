package catalog

import "errors"

var (
	ErrNotFound          = errors.New("catalog record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)
