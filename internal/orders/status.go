package orders

type Status string

const (
	StatusPending        Status = "Pending"
	StatusPendingPayment Status = "PendingPayment"
	StatusPaid           Status = "Paid"
	StatusCancelled      Status = "Cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:        {StatusPaid: true, StatusCancelled: true},
	StatusPendingPayment: {StatusPaid: true, StatusCancelled: true},
	StatusPaid:           {StatusCancelled: true},
	StatusCancelled:      {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

type PaymentMethod string

const (
	PaymentCOD PaymentMethod = "COD"
	PaymentQR  PaymentMethod = "QR"
)

func (m PaymentMethod) Valid() bool { return m == PaymentCOD || m == PaymentQR }

// InitialStatus is the status an order is created with for the given payment method.
func InitialStatus(m PaymentMethod) Status {
	if m == PaymentQR {
		return StatusPendingPayment
	}
	return StatusPending
}
