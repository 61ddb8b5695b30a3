package admin

import (
	"context"
	"testing"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type forgetful struct{ ids []string }

func (f *forgetful) Forget(_ context.Context, id string) error {
	f.ids = append(f.ids, id)
	return nil
}

type world struct {
	console *Console
	users   *users.MemoryRepo
	orders  *orders.MemoryRepo
	appts   *appointments.MemoryRepo
	catalog *catalog.MemoryRepo
	cache   *forgetful
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		users:   users.NewMemoryRepo(),
		orders:  orders.NewMemoryRepo(),
		appts:   appointments.NewMemoryRepo(),
		catalog: catalog.NewMemoryRepo(),
		cache:   &forgetful{},
	}
	w.console = &Console{
		Users:        w.users,
		ProfileCache: w.cache,
		Orders:       w.orders,
		Appointments: w.appts,
		Catalog:      w.catalog,
		Employees:    users.NewMemoryEmployees(users.Employee{ID: "e1", Name: "Minh", Position: "Groomer"}),
		Log:          zap.NewNop(),
		Now:          func() time.Time { return time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC) },
	}
	ctx := context.Background()
	_, err := w.users.Upsert(ctx, users.Profile{ID: "boss", Email: "boss@example.com", Role: users.RoleAdmin})
	require.NoError(t, err)
	_, err = w.users.Upsert(ctx, users.Profile{ID: "c1", Email: "c1@example.com"})
	require.NoError(t, err)
	return w
}

func (w *world) session(t *testing.T) *Session {
	t.Helper()
	s, err := w.console.Open(context.Background(), "boss")
	require.NoError(t, err)
	return s
}

func TestOpenChecksRole(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.console.Open(ctx, "c1")
	require.ErrorIs(t, err, ErrNotAdmin)
	_, err = w.console.Open(ctx, "ghost")
	require.ErrorIs(t, err, ErrNotAdmin)

	s, err := w.console.Open(ctx, "boss")
	require.NoError(t, err)
	assert.Equal(t, "boss", s.Admin().ID)
}

func TestSetOrderStatus(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	s := w.session(t)

	o, err := w.orders.Create(ctx, orders.Order{UserID: "c1", Status: orders.StatusPendingPayment, PaymentMethod: orders.PaymentQR})
	require.NoError(t, err)

	got, err := s.SetOrderStatus(ctx, o.ID, orders.StatusPaid, "")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, got.Status)

	_, err = s.SetOrderStatus(ctx, o.ID, orders.StatusPendingPayment, "")
	require.ErrorIs(t, err, orders.ErrInvalidTransition)

	_, err = s.SetOrderStatus(ctx, "missing", orders.StatusPaid, "")
	require.ErrorIs(t, err, orders.ErrNotFound)

	require.NoError(t, s.DeleteOrder(ctx, o.ID))
	require.ErrorIs(t, s.DeleteOrder(ctx, o.ID), orders.ErrNotFound)
}

func TestScheduleAppointmentAssignsEmployee(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	s := w.session(t)

	a, err := w.appts.Create(ctx, appointments.Appointment{Fullname: "An", Phone: "0901", Date: "2025-03-20", Service: "Bath", Status: appointments.StatusAwaiting})
	require.NoError(t, err)

	got, err := s.ScheduleAppointment(ctx, a.ID, Schedule{Status: appointments.StatusConfirmed, EmployeeID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, appointments.StatusConfirmed, got.Status)
	assert.Equal(t, "e1", got.AssignedEmployee)
	assert.Equal(t, "Minh", got.AssignedEmployeeName)
	assert.Equal(t, "2025-03-20", got.Date)

	_, err = s.ScheduleAppointment(ctx, a.ID, Schedule{Status: "Someday"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.ScheduleAppointment(ctx, a.ID, Schedule{Date: "2025-02-30"})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.ScheduleAppointment(ctx, a.ID, Schedule{EmployeeID: "nobody"})
	require.ErrorIs(t, err, users.ErrEmployeeNotFound)

	byPhone, err := s.Appointments(ctx, "", "0901")
	require.NoError(t, err)
	assert.Len(t, byPhone, 1)
}

func TestUpsertFoodDerivesStatus(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	s := w.session(t)

	f, err := s.UpsertFood(ctx, catalog.Food{Name: " Kibble ", Price: decimal.NewFromInt(50000), Quantity: 0, Status: catalog.FoodAvailable})
	require.NoError(t, err)
	assert.Equal(t, "Kibble", f.Name)
	assert.Equal(t, catalog.FoodOutOfStock, f.Status)

	f.Quantity = 4
	f, err = s.UpsertFood(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, catalog.FoodAvailable, f.Status)

	_, err = s.UpsertFood(ctx, catalog.Food{Name: "x", Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.UpsertService(ctx, catalog.Service{Name: ""})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSetRoleForgetsCachedProfile(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	s := w.session(t)

	p, err := s.SetRole(ctx, "c1", users.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, users.RoleAdmin, p.Role)
	assert.Equal(t, []string{"c1"}, w.cache.ids)

	_, err = s.SetRole(ctx, "boss", users.RoleCustomer)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = s.SetRole(ctx, "c1", "root")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestSessionRevenue(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	s := w.session(t)

	_, err := w.catalog.UpsertService(ctx, catalog.Service{Name: "Bath", Price: decimal.NewFromInt(200000)})
	require.NoError(t, err)
	a, err := w.appts.Create(ctx, appointments.Appointment{Date: "2025-03-14", Service: "Bath", Status: appointments.StatusAwaiting})
	require.NoError(t, err)
	_, err = w.appts.Create(ctx, appointments.Appointment{Date: "2025-03-14", Service: "Bath", Status: appointments.StatusAwaiting})
	require.NoError(t, err)
	_, err = s.ScheduleAppointment(ctx, a.ID, Schedule{Status: appointments.StatusCompleted})
	require.NoError(t, err)

	pts, err := s.Revenue(ctx, Weekly)
	require.NoError(t, err)
	require.Len(t, pts, 7)
	assert.Equal(t, "14/03", pts[5].Label)
	assert.Equal(t, "200000", pts[5].Revenue.String())

	_, err = s.Revenue(ctx, "daily")
	require.ErrorIs(t, err, ErrInvalidInput)
}
