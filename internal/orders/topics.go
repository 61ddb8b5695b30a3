package orders

const (
	TopicOrderCreated             = "order.created"
	TopicPaymentConfirmed         = "order.payment.confirmed"
	TopicPaymentTimedOut          = "order.payment.timedout"
	TopicPaymentCancelled         = "order.payment.cancelled"
	TopicAppointmentsMaterialized = "order.appointments.materialized"
	TopicOrderStatusChanged       = "order.status.changed"
)

// AllTopics is what the notifier subscribes to.
var AllTopics = []string{
	TopicOrderCreated,
	TopicPaymentConfirmed,
	TopicPaymentTimedOut,
	TopicPaymentCancelled,
	TopicAppointmentsMaterialized,
	TopicOrderStatusChanged,
}

// Partition key = order_id so every event of one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
