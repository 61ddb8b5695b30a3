package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrProfileRequired      = errors.New("profile with name and phone required before checkout")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrRecordVanished       = errors.New("record no longer exists")
)

type FailureKind string

const (
	MissingDate       FailureKind = "MissingDate"
	MalformedDate     FailureKind = "MalformedDate"
	InvalidDate       FailureKind = "InvalidDate"
	PastDate          FailureKind = "PastDate"
	InsufficientStock FailureKind = "InsufficientStock"
)

// ValidationError is one actionable problem with one cart line.
type ValidationError struct {
	Kind      FailureKind `json:"kind"`
	Index     int         `json:"index"`
	ItemID    string      `json:"itemId"`
	ItemName  string      `json:"itemName"`
	Date      string      `json:"date,omitempty"`
	Requested int         `json:"requested,omitempty"`
	Available int         `json:"available,omitempty"`
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingDate:
		return fmt.Sprintf("please enter a visit date for %s", e.ItemName)
	case MalformedDate:
		return fmt.Sprintf("visit date for %s must be YYYY-MM-DD (e.g. 2025-04-20)", e.ItemName)
	case InvalidDate:
		return fmt.Sprintf("visit date for %s is not a valid date", e.ItemName)
	case PastDate:
		return fmt.Sprintf("visit date for %s cannot be before today", e.ItemName)
	case InsufficientStock:
		return fmt.Sprintf("only %d of %s left in stock", e.Available, e.ItemName)
	}
	return string(e.Kind)
}

// ValidationErrors carries every failure of one validation pass, in cart order.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "no validation errors"
	}
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%s (and %d more)", v[0].Error(), len(v)-1)
}

// First is the failure to show the customer.
func (v ValidationErrors) First() *ValidationError {
	if len(v) == 0 {
		return nil
	}
	return v[0]
}

// Has reports whether any failure is of kind k.
func (v ValidationErrors) Has(k FailureKind) bool {
	for _, e := range v {
		if e.Kind == k {
			return true
		}
	}
	return false
}

// NetworkError wraps a failure to reach the record store.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// PartialCommitError means the order was stored but some of its appointments were not.
type PartialCommitError struct {
	OrderID string
	Saved   int
	Failed  []string // service names
	Errs    []error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("order %s was saved but %d appointment(s) failed (%s); check your order history before trying again",
		e.OrderID, len(e.Failed), strings.Join(e.Failed, ", "))
}

func (e *PartialCommitError) Unwrap() []error { return e.Errs }
