package orders

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-petcare-checkout/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated             = "OrderCreated"
	EventPaymentConfirmed         = "PaymentConfirmed"
	EventPaymentTimedOut          = "PaymentTimedOut"
	EventPaymentCancelled         = "PaymentCancelled"
	EventAppointmentsMaterialized = "AppointmentsMaterialized"
	EventOrderStatusChanged       = "OrderStatusChanged"
)

const EventVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// ---- payloads ----

type OrderCreatedPayload struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	Items         []Item        `json:"items"`
	Total         string        `json:"total"`
	Status        Status        `json:"status"`
	PaymentMethod PaymentMethod `json:"payment_method"`
}

type PaymentConfirmedPayload struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

type PaymentTimedOutPayload struct {
	OrderID       string `json:"order_id"`
	WaitedSeconds int    `json:"waited_seconds"`
}

type PaymentCancelledPayload struct {
	OrderID string `json:"order_id"`
}

type AppointmentsMaterializedPayload struct {
	OrderID        string   `json:"order_id"`
	AppointmentIDs []string `json:"appointment_ids"`
	Failed         int      `json:"failed,omitempty"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	By      string `json:"by"`
}

// Publisher is satisfied by kafka.Producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header) error
}

// Emitter wraps payloads in a v1 envelope and hands them to the publisher.
type Emitter struct {
	P        Publisher
	Producer string
}

// Emit is a no-op on a nil Emitter.
func (e *Emitter) Emit(traceID, topic, eventType, orderID string, payload any) error {
	if e == nil {
		return nil
	}
	p, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  EventVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      e.Producer,
		TraceID:       traceID,
		CorrelationID: orderID,
		Payload:       p,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := e.P.Publish(topic, PartitionKey(orderID), b,
		kafkago.Header{Key: kafkax.HeaderEventType, Value: []byte(eventType)},
		kafkago.Header{Key: kafkax.HeaderEventVersion, Value: []byte(strconv.Itoa(EventVersion))},
	); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}
