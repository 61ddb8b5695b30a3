package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"go.uber.org/zap"
)

var (
	ErrNotAdmin     = errors.New("admin role required")
	ErrInvalidInput = errors.New("invalid input")
)

type ProfileStore interface {
	Get(ctx context.Context, id string) (users.Profile, error)
	List(ctx context.Context) ([]users.Profile, error)
	SetRole(ctx context.Context, id string, role users.Role) (users.Profile, error)
}

// ProfileCache is told about role changes so stale copies are not served.
type ProfileCache interface {
	Forget(ctx context.Context, id string) error
}

type OrderStore interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	List(ctx context.Context, status orders.Status) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to orders.Status) (orders.Order, error)
	Delete(ctx context.Context, id string) error
}

type AppointmentStore interface {
	Get(ctx context.Context, id string) (appointments.Appointment, error)
	List(ctx context.Context) ([]appointments.Appointment, error)
	ListByStatus(ctx context.Context, s appointments.Status) ([]appointments.Appointment, error)
	ListByPhone(ctx context.Context, phone string) ([]appointments.Appointment, error)
	Update(ctx context.Context, a appointments.Appointment) (appointments.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type CatalogStore interface {
	ListFoods(ctx context.Context) ([]catalog.Food, error)
	UpsertFood(ctx context.Context, f catalog.Food) (catalog.Food, error)
	DeleteFood(ctx context.Context, id string) error
	ListServices(ctx context.Context) ([]catalog.Service, error)
	UpsertService(ctx context.Context, s catalog.Service) (catalog.Service, error)
	DeleteService(ctx context.Context, id string) error
}

type EmployeeStore interface {
	Get(ctx context.Context, id string) (users.Employee, error)
	List(ctx context.Context) ([]users.Employee, error)
	Upsert(ctx context.Context, e users.Employee) (users.Employee, error)
	Delete(ctx context.Context, id string) error
}

// Console holds the back-office stores. Sessions are opened from it.
type Console struct {
	Users        ProfileStore
	ProfileCache ProfileCache
	Orders       OrderStore
	Appointments AppointmentStore
	Catalog      CatalogStore
	Employees    EmployeeStore
	Events       *orders.Emitter
	Log          *zap.Logger
	Now          func() time.Time
}

// Session is an authorized admin. The role is checked once in Open; none of
// the methods re-check it.
type Session struct {
	c     *Console
	admin users.Profile
}

// Open loads the caller's profile and returns a session if it has the admin role.
func (c *Console) Open(ctx context.Context, userID string) (*Session, error) {
	p, err := c.Users.Get(ctx, userID)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrNotAdmin
	}
	if err != nil {
		return nil, fmt.Errorf("load admin profile: %w", err)
	}
	if p.Role != users.RoleAdmin {
		return nil, ErrNotAdmin
	}
	return &Session{c: c, admin: p}, nil
}

func (s *Session) Admin() users.Profile { return s.admin }

func (s *Session) now() time.Time {
	if s.c.Now != nil {
		return s.c.Now()
	}
	return time.Now()
}

func (s *Session) log() *zap.Logger {
	l := s.c.Log
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("admin_id", s.admin.ID))
}

// ---- orders ----

func (s *Session) Orders(ctx context.Context, status orders.Status) ([]orders.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	return s.c.Orders.List(ctx, status)
}

// SetOrderStatus moves an order along the transition table, e.g. marking a
// timed out QR order paid after checking the bank statement by hand.
func (s *Session) SetOrderStatus(ctx context.Context, id string, to orders.Status, traceID string) (orders.Order, error) {
	cur, err := s.c.Orders.Get(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	o, err := s.c.Orders.UpdateStatus(ctx, id, cur.Status, to)
	if err != nil {
		return orders.Order{}, err
	}
	s.log().Info("order status set", zap.String("order_id", id),
		zap.String("from", string(cur.Status)), zap.String("to", string(to)))
	if err := s.c.Events.Emit(traceID, orders.TopicOrderStatusChanged, orders.EventOrderStatusChanged, id,
		orders.OrderStatusChangedPayload{OrderID: id, From: cur.Status, To: to, By: s.admin.ID}); err != nil {
		s.log().Warn("emit order status changed", zap.String("order_id", id), zap.Error(err))
	}
	return o, nil
}

func (s *Session) DeleteOrder(ctx context.Context, id string) error {
	if err := s.c.Orders.Delete(ctx, id); err != nil {
		return err
	}
	s.log().Info("order deleted", zap.String("order_id", id))
	return nil
}

// ---- appointments ----

// Appointments lists appointments, narrowed by status or phone when given.
func (s *Session) Appointments(ctx context.Context, status appointments.Status, phone string) ([]appointments.Appointment, error) {
	switch {
	case status != "" && !status.Valid():
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	case status != "":
		return s.c.Appointments.ListByStatus(ctx, status)
	case phone != "":
		return s.c.Appointments.ListByPhone(ctx, phone)
	}
	return s.c.Appointments.List(ctx)
}

// Schedule holds the fields an admin may change on an appointment. Empty
// fields are left as they are.
type Schedule struct {
	Status     appointments.Status `json:"status"`
	EmployeeID string              `json:"assignedEmployee"`
	Date       string              `json:"date"`
}

func (s *Session) ScheduleAppointment(ctx context.Context, id string, sc Schedule) (appointments.Appointment, error) {
	a, err := s.c.Appointments.Get(ctx, id)
	if err != nil {
		return appointments.Appointment{}, err
	}
	if sc.Status != "" {
		if !sc.Status.Valid() {
			return appointments.Appointment{}, fmt.Errorf("%w: status %q", ErrInvalidInput, sc.Status)
		}
		a.Status = sc.Status
	}
	if sc.Date != "" {
		if !cart.ValidDate(sc.Date) {
			return appointments.Appointment{}, fmt.Errorf("%w: date %q", ErrInvalidInput, sc.Date)
		}
		a.Date = sc.Date
	}
	if sc.EmployeeID != "" {
		e, err := s.c.Employees.Get(ctx, sc.EmployeeID)
		if err != nil {
			return appointments.Appointment{}, err
		}
		a.AssignedEmployee = e.ID
		a.AssignedEmployeeName = e.Name
	}
	out, err := s.c.Appointments.Update(ctx, a)
	if err != nil {
		return appointments.Appointment{}, err
	}
	s.log().Info("appointment scheduled", zap.String("appointment_id", id),
		zap.String("status", string(out.Status)), zap.String("employee_id", out.AssignedEmployee))
	return out, nil
}

func (s *Session) DeleteAppointment(ctx context.Context, id string) error {
	return s.c.Appointments.Delete(ctx, id)
}

// ---- catalog ----

func (s *Session) Foods(ctx context.Context) ([]catalog.Food, error) {
	return s.c.Catalog.ListFoods(ctx)
}

// UpsertFood saves a food; its status always follows the stock count.
func (s *Session) UpsertFood(ctx context.Context, f catalog.Food) (catalog.Food, error) {
	f.Name = strings.TrimSpace(f.Name)
	switch {
	case f.Name == "":
		return catalog.Food{}, fmt.Errorf("%w: food name required", ErrInvalidInput)
	case f.Price.IsNegative():
		return catalog.Food{}, fmt.Errorf("%w: negative price", ErrInvalidInput)
	case f.Quantity < 0:
		return catalog.Food{}, fmt.Errorf("%w: negative quantity", ErrInvalidInput)
	}
	f.Status = catalog.StatusFor(f.Quantity)
	return s.c.Catalog.UpsertFood(ctx, f)
}

func (s *Session) DeleteFood(ctx context.Context, id string) error {
	return s.c.Catalog.DeleteFood(ctx, id)
}

func (s *Session) Services(ctx context.Context) ([]catalog.Service, error) {
	return s.c.Catalog.ListServices(ctx)
}

func (s *Session) UpsertService(ctx context.Context, sv catalog.Service) (catalog.Service, error) {
	sv.Name = strings.TrimSpace(sv.Name)
	if sv.Name == "" {
		return catalog.Service{}, fmt.Errorf("%w: service name required", ErrInvalidInput)
	}
	if sv.Price.IsNegative() {
		return catalog.Service{}, fmt.Errorf("%w: negative price", ErrInvalidInput)
	}
	return s.c.Catalog.UpsertService(ctx, sv)
}

func (s *Session) DeleteService(ctx context.Context, id string) error {
	return s.c.Catalog.DeleteService(ctx, id)
}

// ---- people ----

func (s *Session) Employees(ctx context.Context) ([]users.Employee, error) {
	return s.c.Employees.List(ctx)
}

func (s *Session) UpsertEmployee(ctx context.Context, e users.Employee) (users.Employee, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return users.Employee{}, fmt.Errorf("%w: employee name required", ErrInvalidInput)
	}
	return s.c.Employees.Upsert(ctx, e)
}

func (s *Session) DeleteEmployee(ctx context.Context, id string) error {
	return s.c.Employees.Delete(ctx, id)
}

func (s *Session) Users(ctx context.Context) ([]users.Profile, error) {
	return s.c.Users.List(ctx)
}

// SetRole changes a user's role. An admin cannot demote themselves.
func (s *Session) SetRole(ctx context.Context, id string, role users.Role) (users.Profile, error) {
	if role != users.RoleAdmin && role != users.RoleCustomer {
		return users.Profile{}, fmt.Errorf("%w: role %q", ErrInvalidInput, role)
	}
	if id == s.admin.ID && role != users.RoleAdmin {
		return users.Profile{}, fmt.Errorf("%w: cannot drop your own admin role", ErrInvalidInput)
	}
	p, err := s.c.Users.SetRole(ctx, id, role)
	if err != nil {
		return users.Profile{}, err
	}
	if s.c.ProfileCache != nil {
		if err := s.c.ProfileCache.Forget(ctx, id); err != nil {
			s.log().Warn("forget cached profile", zap.String("user_id", id), zap.Error(err))
		}
	}
	s.log().Info("role changed", zap.String("user_id", id), zap.String("role", string(role)))
	return p, nil
}

// ---- statistics ----

// Revenue reports completed-appointment revenue for period, ending today.
func (s *Session) Revenue(ctx context.Context, period Period) ([]Point, error) {
	if !period.Valid() {
		return nil, fmt.Errorf("%w: period %q", ErrInvalidInput, period)
	}
	done, err := s.c.Appointments.ListByStatus(ctx, appointments.StatusCompleted)
	if err != nil {
		return nil, err
	}
	svcs, err := s.c.Catalog.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	return Revenue(done, svcs, period, s.now()), nil
}
