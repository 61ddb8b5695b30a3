package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type OrderStore interface {
	Create(ctx context.Context, o orders.Order) (orders.Order, error)
	Get(ctx context.Context, id string) (orders.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to orders.Status) (orders.Order, error)
}

type AppointmentStore interface {
	Create(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error)
}

// Materializer turns a committed order into its appointments and empties the cart.
type Materializer struct {
	Orders       OrderStore
	Appointments AppointmentStore
	Carts        cart.Repository
	Events       *orders.Emitter
	Log          *zap.Logger
}

// Materialize writes one appointment per service line of items, all at once,
// then takes items out of the cart. If any write fails the cart is kept and a
// PartialCommitError lists the services that were not booked.
func (m *Materializer) Materialize(ctx context.Context, o orders.Order, p users.Profile, items []cart.Item, traceID string) ([]appointments.Appointment, error) {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		saved  []appointments.Appointment
		failed []string
		errs   []error
	)
	for _, it := range items {
		if it.Type != cart.KindService {
			continue
		}
		g.Go(func() error {
			a, err := m.Appointments.Create(ctx, appointments.Appointment{
				OrderID:  o.ID,
				Fullname: p.Fullname,
				Phone:    p.Phone,
				Date:     it.Date,
				Service:  it.Name,
				Status:   appointments.StatusAwaiting,
				UserID:   p.ID,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, it.Name)
				errs = append(errs, fmt.Errorf("appointment for %s: %w", it.Name, err))
				return err
			}
			saved = append(saved, a)
			return nil
		})
	}
	_ = g.Wait() // every write runs to completion; failures are collected above

	ids := make([]string, 0, len(saved))
	for _, a := range saved {
		ids = append(ids, a.ID)
	}
	if err := m.Events.Emit(traceID, orders.TopicAppointmentsMaterialized, orders.EventAppointmentsMaterialized, o.ID,
		orders.AppointmentsMaterializedPayload{OrderID: o.ID, AppointmentIDs: ids, Failed: len(failed)}); err != nil {
		m.Log.Warn("emit appointments materialized", zap.String("order_id", o.ID), zap.Error(err))
	}

	if len(failed) > 0 {
		m.Log.Error("partial commit", zap.String("order_id", o.ID), zap.Strings("failed", failed))
		return saved, &PartialCommitError{OrderID: o.ID, Saved: len(saved), Failed: failed, Errs: errs}
	}
	if err := m.clearBought(ctx, p.ID, items); err != nil {
		return saved, &NetworkError{Op: "clear cart", Err: err}
	}
	return saved, nil
}

// clearBought drops the ordered lines from the cart. Lines added while a QR
// payment was pending stay.
func (m *Materializer) clearBought(ctx context.Context, userID string, items []cart.Item) error {
	current, err := m.Carts.Load(ctx, userID)
	if err != nil {
		return err
	}
	rest := cart.Without(current, items)
	if len(rest) == 0 {
		return m.Carts.Clear(ctx, userID)
	}
	return m.Carts.Save(ctx, userID, rest)
}

// ConfirmPaid marks a QR order paid, only if it is still waiting for payment,
// and then materializes it.
func (m *Materializer) ConfirmPaid(ctx context.Context, o orders.Order, p users.Profile, items []cart.Item, txn payment.Transaction, traceID string) (orders.Order, []appointments.Appointment, error) {
	paid, err := m.Orders.UpdateStatus(ctx, o.ID, orders.StatusPendingPayment, orders.StatusPaid)
	if err != nil {
		return o, nil, fmt.Errorf("mark order %s paid: %w", o.ID, err)
	}
	if err := m.Events.Emit(traceID, orders.TopicPaymentConfirmed, orders.EventPaymentConfirmed, o.ID,
		orders.PaymentConfirmedPayload{OrderID: o.ID, TransactionID: txn.ID, Amount: txn.Amount.String()}); err != nil {
		m.Log.Warn("emit payment confirmed", zap.String("order_id", o.ID), zap.Error(err))
	}
	appts, err := m.Materialize(ctx, paid, p, items, traceID)
	return paid, appts, err
}
