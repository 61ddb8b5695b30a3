package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	kafkax "github.com/ariefcatur/go-petcare-checkout/internal/kafka"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Notification is a message for the customer of one order.
type Notification struct {
	OrderID string
	Kind    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log; there is no outbound channel yet.
type LogSender struct{ Log *zap.Logger }

func (l LogSender) Send(_ context.Context, n Notification) error {
	l.Log.Info("customer notification", zap.String("order_id", n.OrderID),
		zap.String("kind", n.Kind), zap.String("text", n.Text))
	return nil
}

// Service consumes order lifecycle events. It keeps the order status cache
// that GET /orders/{id} reads in step with the events and tells the customer
// about payment outcomes.
type Service struct {
	Redis       redis.Cmdable
	Sender      Sender
	Log         *zap.Logger
	ServiceName string
}

// HandleMessage is installed as the consumer handler.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	if v := kafkax.Header(m, kafkax.HeaderEventVersion); v != "" && v != strconv.Itoa(orders.EventVersion) {
		s.Log.Warn("unsupported event version", zap.String("topic", m.Topic), zap.String("version", v))
		return nil
	}
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		// a poison message would block the partition; log and commit it
		s.Log.Error("undecodable envelope", zap.String("topic", m.Topic), zap.Error(err))
		return nil
	}

	// dedup on event id
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}
	if err := s.handle(ctx, env); err != nil {
		return err
	}
	if _, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup); err != nil {
		s.Log.Warn("dedup mark", zap.String("event_id", env.EventID), zap.Error(err))
	}
	return nil
}

func (s *Service) handle(ctx context.Context, env orders.Envelope) error {
	log := s.Log.With(zap.String("event_type", env.EventType), zap.String("order_id", env.CorrelationID),
		zap.String("trace_id", env.TraceID))

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, p.UserID, string(p.Status)); err != nil {
			return err
		}
		text := fmt.Sprintf("We received your order, total %s.", p.Total)
		if p.PaymentMethod == orders.PaymentQR {
			text += " Scan the QR code to pay."
		}
		return s.send(ctx, log, Notification{OrderID: p.OrderID, Kind: env.EventType, Text: text})

	case orders.EventPaymentConfirmed:
		p, err := kafkax.UnwrapPayload[orders.PaymentConfirmedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, "", string(orders.StatusPaid)); err != nil {
			return err
		}
		return s.send(ctx, log, Notification{OrderID: p.OrderID, Kind: env.EventType,
			Text: fmt.Sprintf("Payment of %s received, thank you.", p.Amount)})

	case orders.EventPaymentTimedOut:
		p, err := kafkax.UnwrapPayload[orders.PaymentTimedOutPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Warn("order left waiting for payment", zap.Int("waited_seconds", p.WaitedSeconds))
		return s.send(ctx, log, Notification{OrderID: p.OrderID, Kind: env.EventType,
			Text: "We have not seen your transfer yet. Your order is kept; contact us if you already paid."})

	case orders.EventPaymentCancelled:
		p, err := kafkax.UnwrapPayload[orders.PaymentCancelledPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Info("payment wait stopped", zap.String("order_id", p.OrderID))
		return nil

	case orders.EventAppointmentsMaterialized:
		p, err := kafkax.UnwrapPayload[orders.AppointmentsMaterializedPayload](env.Payload)
		if err != nil {
			return err
		}
		if p.Failed > 0 {
			log.Error("appointments missing for order", zap.Int("failed", p.Failed), zap.Int("saved", len(p.AppointmentIDs)))
		}
		if len(p.AppointmentIDs) == 0 {
			return nil
		}
		return s.send(ctx, log, Notification{OrderID: p.OrderID, Kind: env.EventType,
			Text: fmt.Sprintf("%d appointment(s) booked and awaiting confirmation.", len(p.AppointmentIDs))})

	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		if err := redisx.CacheOrderStatus(ctx, s.Redis, p.OrderID, "", string(p.To)); err != nil {
			return err
		}
		return s.send(ctx, log, Notification{OrderID: p.OrderID, Kind: env.EventType,
			Text: fmt.Sprintf("Your order is now %s.", p.To)})
	}
	return nil // ignore
}

func (s *Service) send(ctx context.Context, log *zap.Logger, n Notification) error {
	if err := s.Sender.Send(ctx, n); err != nil {
		log.Warn("notification failed", zap.Error(err))
		return err
	}
	return nil
}
