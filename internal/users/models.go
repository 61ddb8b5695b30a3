package users

import (
	"errors"
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

var ErrNotFound = errors.New("user not found")

// Profile is the customer record stamped onto carts, orders and appointments.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Fullname  string    `json:"fullname"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Complete reports whether the profile carries what checkout needs.
func (p Profile) Complete() bool {
	return p.Fullname != "" && p.Phone != ""
}

type Employee struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Position string `json:"position"`
}
