package appointments

import (
	"errors"
	"time"
)

type Status string

const (
	StatusAwaiting  Status = "Awaiting confirmation"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAwaiting, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DateLayout is the visit date format, YYYY-MM-DD.
const DateLayout = "2006-01-02"

var ErrNotFound = errors.New("appointment not found")

type Appointment struct {
	ID                   string    `json:"id"`
	OrderID              string    `json:"orderId,omitempty"`
	Fullname             string    `json:"fullname"`
	Phone                string    `json:"phone"`
	Date                 string    `json:"date"`
	Service              string    `json:"service"`
	Status               Status    `json:"status"`
	UserID               string    `json:"userId"`
	AssignedEmployee     string    `json:"assignedEmployee,omitempty"`
	AssignedEmployeeName string    `json:"assignedEmployeeName,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}
