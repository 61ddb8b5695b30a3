package checkout

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const account = "0123456789"

// bankFeed reports a transfer for every order in the store whose status is
// PendingPayment, when paying is set.
type bankFeed struct {
	orders *orders.MemoryRepo
	paying atomic.Bool
}

func (f *bankFeed) Transactions(ctx context.Context) ([]payment.Transaction, error) {
	if !f.paying.Load() {
		return nil, nil
	}
	os, err := f.orders.List(ctx, orders.StatusPendingPayment)
	if err != nil {
		return nil, err
	}
	var out []payment.Transaction
	for _, o := range os {
		out = append(out, payment.Transaction{
			ID:          "FT" + o.ID[:6],
			Description: "thanh toan don hang " + strings.ToLower(o.ID),
			Amount:      o.Total,
			Account:     account,
		})
	}
	return out, nil
}

type fixture struct {
	svc      *Service
	foods    *catalog.MemoryRepo
	orders   *orders.MemoryRepo
	appts    *appointments.MemoryRepo
	carts    *cart.MemoryRepository
	profiles *users.MemoryRepo
	sessions *payment.Sessions
	feed     *bankFeed
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		foods:    catalog.NewMemoryRepo(),
		orders:   orders.NewMemoryRepo(),
		appts:    appointments.NewMemoryRepo(),
		carts:    cart.NewMemoryRepository(),
		profiles: users.NewMemoryRepo(),
	}
	f.feed = &bankFeed{orders: f.orders}
	f.sessions = payment.NewSessions(f.feed, payment.SessionConfig{
		Account: account, Interval: 5 * time.Millisecond, Timeout: timeout,
	}, zap.NewNop())
	t.Cleanup(func() { _ = f.sessions.Shutdown(context.Background()) })

	log := zap.NewNop()
	f.svc = &Service{
		Profiles: f.profiles,
		Carts:    f.carts,
		Foods:    f.foods,
		Orders:   f.orders,
		Materializer: &Materializer{
			Orders: f.orders, Appointments: f.appts, Carts: f.carts, Log: log,
		},
		References: &payment.Generator{Bank: payment.Bank{
			BankID: "MB", AccountNo: account, AccountName: "Phòng khám Thú cưng", Template: "compact2", ImageBase: "https://img.vietqr.io",
		}},
		Payments: f.sessions,
		Log:      log,
		Now:      func() time.Time { return today },
	}
	_, err := f.profiles.Upsert(context.Background(), users.Profile{ID: "u1", Fullname: "Tran Van A", Phone: "0900000000"})
	require.NoError(t, err)
	return f
}

func (f *fixture) setCart(t *testing.T, items ...cart.Item) {
	t.Helper()
	require.NoError(t, f.carts.Save(context.Background(), "u1", items))
}

func TestCheckoutCODFood(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	seedFood(t, f.foods, "F1", 2)
	f.setCart(t, food("F1", 2))

	res, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	require.NoError(t, err)
	assert.Nil(t, res.Payment)
	assert.Equal(t, "100000", res.Order.Total.String())
	assert.Equal(t, orders.StatusPending, res.Order.Status)
	assert.Len(t, res.Order.ID, 32)

	f1, err := f.foods.GetFood(ctx, "F1")
	require.NoError(t, err)
	assert.Equal(t, 0, f1.Quantity)
	assert.Equal(t, catalog.FoodOutOfStock, f1.Status)

	left, _ := f.carts.Load(ctx, "u1")
	assert.Empty(t, left)
}

func TestCheckoutPastDateCreatesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.setCart(t, service("S1", "2020-01-01"))

	_, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, PastDate, verrs.First().Kind)

	all, _ := f.orders.List(ctx, "")
	assert.Empty(t, all)
}

func TestCheckoutInsufficientStockWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	seedFood(t, f.foods, "F1", 1)
	f.setCart(t, food("F1", 2))

	_, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, 1, verrs.First().Available)
	assert.Zero(t, f.foods.Writes)

	all, _ := f.orders.List(ctx, "")
	assert.Empty(t, all)
}

func TestCheckoutRequiresProfile(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.setCart(t, food("F1", 1))
	_, err := f.svc.Checkout(context.Background(), Request{UserID: "nobody", PaymentMethod: orders.PaymentCOD})
	assert.ErrorIs(t, err, ErrProfileRequired)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)

	_, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	assert.ErrorIs(t, err, ErrEmptyCart)

	f.setCart(t, service("S1", "2025-01-02"))
	_, err = f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: "CARD"})
	assert.ErrorIs(t, err, ErrUnknownPaymentMethod)

	free := service("S2", "2025-01-02")
	free.Price = decimal.Zero
	f.setCart(t, free)
	_, err = f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentQR})
	assert.ErrorIs(t, err, payment.ErrInvalidAmount)
}

func TestCheckoutQRMatched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	seedFood(t, f.foods, "F1", 4)
	f.setCart(t, food("F1", 1), service("S1", "2025-01-03"), service("S2", "2025-01-04"))

	res, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentQR})
	require.NoError(t, err)
	require.NotNil(t, res.Payment)
	assert.Equal(t, orders.StatusPendingPayment, res.Order.Status)
	assert.Equal(t, int64(450000), res.Payment.Amount)
	assert.Equal(t, "Payment for order "+res.Order.ID, res.Payment.Memo)
	assert.Equal(t, "PHONG KHAM THU CUNG", res.Payment.AccountName)
	assert.Empty(t, res.Appointments)

	// added while the transfer is pending
	pending, err := f.carts.Load(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(ctx, "u1", append(pending, food("F2", 1))))

	f.feed.paying.Store(true)
	require.Eventually(t, func() bool {
		o, err := f.orders.Get(ctx, res.Order.ID)
		return err == nil && o.Status == orders.StatusPaid
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		left, _ := f.carts.Load(ctx, "u1")
		return len(left) == 1 && left[0].ID == "F2"
	}, 2*time.Second, 5*time.Millisecond)

	booked, err := f.appts.List(ctx)
	require.NoError(t, err)
	require.Len(t, booked, 2)
	for _, a := range booked {
		assert.Equal(t, res.Order.ID, a.OrderID)
		assert.Equal(t, appointments.StatusAwaiting, a.Status)
	}

	out, ok := f.sessions.Status(res.Order.ID)
	require.True(t, ok)
	assert.Equal(t, payment.StateMatched, out.State)
}

func TestCheckoutQRTimedOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 40*time.Millisecond)
	f.setCart(t, service("S1", "2025-01-03"))

	res, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentQR})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		out, ok := f.sessions.Status(res.Order.ID)
		return ok && out.State == payment.StateTimedOut
	}, 2*time.Second, 5*time.Millisecond)

	o, err := f.orders.Get(ctx, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPendingPayment, o.Status)

	left, _ := f.carts.Load(ctx, "u1")
	assert.Len(t, left, 1)
	booked, _ := f.appts.List(ctx)
	assert.Empty(t, booked)
}

func TestCheckoutPartialCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Minute)
	f.appts.FailCreate = func(a appointments.Appointment) error {
		if a.Service == "Grooming S2" {
			return errors.New("write failed")
		}
		return nil
	}
	f.setCart(t, service("S1", "2025-01-03"), service("S2", "2025-01-04"))

	res, err := f.svc.Checkout(ctx, Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	var pc *PartialCommitError
	require.ErrorAs(t, err, &pc)
	assert.Equal(t, res.Order.ID, pc.OrderID)
	assert.Equal(t, []string{"Grooming S2"}, pc.Failed)
	assert.Equal(t, 1, pc.Saved)
	assert.Len(t, res.Appointments, 1)

	// the order stays and the cart is kept for review
	_, err = f.orders.Get(ctx, res.Order.ID)
	require.NoError(t, err)
	left, _ := f.carts.Load(ctx, "u1")
	assert.Len(t, left, 2)
}

func TestCheckoutOrderWriteFailure(t *testing.T) {
	f := newFixture(t, time.Minute)
	f.orders.FailCreate = errors.New("unavailable")
	f.setCart(t, service("S1", "2025-01-03"))

	_, err := f.svc.Checkout(context.Background(), Request{UserID: "u1", PaymentMethod: orders.PaymentCOD})
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "create order", ne.Op)
}
