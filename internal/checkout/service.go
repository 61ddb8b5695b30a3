package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProfileReader interface {
	Get(ctx context.Context, id string) (users.Profile, error)
}

// PaymentStarter is satisfied by payment.Sessions.
type PaymentStarter interface {
	Start(orderID string, total decimal.Decimal, done payment.DoneFunc) error
}

type Request struct {
	UserID        string
	PaymentMethod orders.PaymentMethod
	TraceID       string
}

type Result struct {
	Order        orders.Order               `json:"order"`
	Payment      *payment.Reference         `json:"payment,omitempty"`
	Appointments []appointments.Appointment `json:"appointments,omitempty"`
}

// Service runs a checkout from cart to committed order.
type Service struct {
	Profiles     ProfileReader
	Carts        cart.Repository
	Foods        Inventory
	Orders       OrderStore
	Materializer *Materializer
	References   *payment.Generator
	Payments     PaymentStarter
	Events       *orders.Emitter
	Log          *zap.Logger
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Checkout validates the cart, reserves stock and stores the order. COD
// orders are materialized immediately; QR orders get a payment reference
// and a background poll that materializes them once the transfer shows up.
func (s *Service) Checkout(ctx context.Context, req Request) (Result, error) {
	p, err := s.Profiles.Get(ctx, req.UserID)
	if errors.Is(err, users.ErrNotFound) || (err == nil && !p.Complete()) {
		return Result{}, ErrProfileRequired
	}
	if err != nil {
		return Result{}, &NetworkError{Op: "load profile", Err: err}
	}

	items, err := s.Carts.Load(ctx, req.UserID)
	if err != nil {
		return Result{}, &NetworkError{Op: "load cart", Err: err}
	}
	if len(items) == 0 {
		return Result{}, ErrEmptyCart
	}
	if !req.PaymentMethod.Valid() {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, req.PaymentMethod)
	}

	verrs, err := Validate(ctx, items, s.now(), s.Foods)
	if err != nil {
		return Result{}, err
	}
	if len(verrs) > 0 {
		return Result{}, verrs
	}

	total := cart.Total(items)
	if req.PaymentMethod == orders.PaymentQR && !total.IsPositive() {
		return Result{}, payment.ErrInvalidAmount
	}

	if _, err := Reserve(ctx, s.Foods, items); err != nil {
		return Result{}, err
	}

	o, err := s.Orders.Create(ctx, orders.Order{
		UserID:        p.ID,
		UserFullname:  p.Fullname,
		UserPhone:     p.Phone,
		Items:         orderItems(items),
		Total:         total,
		Timestamp:     s.now().UTC(),
		Status:        orders.InitialStatus(req.PaymentMethod),
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		return Result{}, &NetworkError{Op: "create order", Err: err}
	}
	s.Log.Info("order created", zap.String("order_id", o.ID), zap.String("user_id", p.ID),
		zap.String("method", string(o.PaymentMethod)), zap.String("total", total.String()))
	if err := s.Events.Emit(req.TraceID, orders.TopicOrderCreated, orders.EventOrderCreated, o.ID, orders.OrderCreatedPayload{
		OrderID: o.ID, UserID: o.UserID, Items: o.Items, Total: total.String(), Status: o.Status, PaymentMethod: o.PaymentMethod,
	}); err != nil {
		s.Log.Warn("emit order created", zap.String("order_id", o.ID), zap.Error(err))
	}

	if req.PaymentMethod == orders.PaymentCOD {
		appts, err := s.Materializer.Materialize(ctx, o, p, items, req.TraceID)
		return Result{Order: o, Appointments: appts}, err
	}

	ref, err := s.References.Reference(o.ID, total)
	if err != nil {
		return Result{Order: o}, err
	}
	if err := s.Payments.Start(o.ID, total, s.onPayment(o, p, items, req.TraceID)); err != nil {
		return Result{Order: o}, fmt.Errorf("start payment session: %w", err)
	}
	return Result{Order: o, Payment: &ref}, nil
}

func (s *Service) onPayment(o orders.Order, p users.Profile, items []cart.Item, traceID string) payment.DoneFunc {
	return func(ctx context.Context, out payment.Outcome) {
		log := s.Log.With(zap.String("order_id", o.ID), zap.String("state", string(out.State)))
		switch out.State {
		case payment.StateMatched:
			if _, _, err := s.Materializer.ConfirmPaid(ctx, o, p, items, *out.Transaction, traceID); err != nil {
				log.Error("confirm payment", zap.Error(err))
				return
			}
			log.Info("payment confirmed", zap.String("transaction_id", out.Transaction.ID))
		case payment.StateTimedOut:
			log.Warn("payment not received in time", zap.Duration("waited", out.Waited))
			if err := s.Events.Emit(traceID, orders.TopicPaymentTimedOut, orders.EventPaymentTimedOut, o.ID,
				orders.PaymentTimedOutPayload{OrderID: o.ID, WaitedSeconds: int(out.Waited.Seconds())}); err != nil {
				log.Warn("emit payment timed out", zap.Error(err))
			}
		case payment.StateCancelled:
			log.Info("payment session cancelled", zap.String("reason", out.Reason))
			if err := s.Events.Emit(traceID, orders.TopicPaymentCancelled, orders.EventPaymentCancelled, o.ID,
				orders.PaymentCancelledPayload{OrderID: o.ID}); err != nil {
				log.Warn("emit payment cancelled", zap.Error(err))
			}
		}
	}
}

func orderItems(items []cart.Item) []orders.Item {
	out := make([]orders.Item, 0, len(items))
	for _, it := range items {
		out = append(out, orders.Item{ID: it.ID, Name: it.Name, Picture: it.Picture, Quantity: it.Quantity})
	}
	return out
}
