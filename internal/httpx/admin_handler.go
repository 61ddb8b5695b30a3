package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-petcare-checkout/internal/admin"
	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AdminHandler serves the back-office under /admin.
type AdminHandler struct {
	Console *admin.Console
	Log     *zap.Logger
}

func (h *AdminHandler) Register(r chi.Router, secret []byte) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(Authenticate(secret), middleware.Timeout(DefaultTimeout), h.openSession)

		r.Get("/orders", h.listOrders)
		r.Patch("/orders/{id}", h.setOrderStatus)
		r.Delete("/orders/{id}", h.deleteOrder)

		r.Get("/appointments", h.listAppointments)
		r.Patch("/appointments/{id}", h.scheduleAppointment)
		r.Delete("/appointments/{id}", h.deleteAppointment)

		r.Get("/foods", h.listFoods)
		r.Post("/foods", h.upsertFood)
		r.Put("/foods/{id}", h.upsertFood)
		r.Delete("/foods/{id}", h.deleteFood)

		r.Get("/services", h.listServices)
		r.Post("/services", h.upsertService)
		r.Put("/services/{id}", h.upsertService)
		r.Delete("/services/{id}", h.deleteService)

		r.Get("/employees", h.listEmployees)
		r.Post("/employees", h.upsertEmployee)
		r.Put("/employees/{id}", h.upsertEmployee)
		r.Delete("/employees/{id}", h.deleteEmployee)

		r.Get("/users", h.listUsers)
		r.Put("/users/{id}/role", h.setRole)

		r.Get("/stats/revenue", h.revenue)
	})
}

// openSession checks the admin role once per request and hands the session
// to the route handlers.
func (h *AdminHandler) openSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := caller(w, r)
		if !ok {
			return
		}
		s, err := h.Console.Open(r.Context(), id.UserID)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), adminKey, s)))
	})
}

func session(r *http.Request) *admin.Session {
	return r.Context().Value(adminKey).(*admin.Session)
}

// reply writes v, or the error if there is one.
func (h *AdminHandler) reply(w http.ResponseWriter, code int, v any, err error) {
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if v == nil {
		w.WriteHeader(code)
		return
	}
	writeJSON(w, code, v)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	os, err := session(r).Orders(r.Context(), orders.Status(r.URL.Query().Get("status")))
	if os == nil {
		os = []orders.Order{}
	}
	h.reply(w, http.StatusOK, os, err)
}

type statusReq struct {
	Status orders.Status `json:"status"`
}

func (h *AdminHandler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	o, err := session(r).SetOrderStatus(r.Context(), chi.URLParam(r, "id"), req.Status, middleware.GetReqID(r.Context()))
	h.reply(w, http.StatusOK, o, err)
}

func (h *AdminHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, session(r).DeleteOrder(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminHandler) listAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	as, err := session(r).Appointments(r.Context(), appointments.Status(q.Get("status")), q.Get("phone"))
	if as == nil {
		as = []appointments.Appointment{}
	}
	h.reply(w, http.StatusOK, as, err)
}

func (h *AdminHandler) scheduleAppointment(w http.ResponseWriter, r *http.Request) {
	var sc admin.Schedule
	if err := decode(r, &sc); err != nil {
		writeError(w, h.Log, err)
		return
	}
	a, err := session(r).ScheduleAppointment(r.Context(), chi.URLParam(r, "id"), sc)
	h.reply(w, http.StatusOK, a, err)
}

func (h *AdminHandler) deleteAppointment(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, session(r).DeleteAppointment(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminHandler) listFoods(w http.ResponseWriter, r *http.Request) {
	fs, err := session(r).Foods(r.Context())
	if fs == nil {
		fs = []catalog.Food{}
	}
	h.reply(w, http.StatusOK, fs, err)
}

// upsertFood creates on POST and replaces the {id} record on PUT.
func (h *AdminHandler) upsertFood(w http.ResponseWriter, r *http.Request) {
	var f catalog.Food
	if err := decode(r, &f); err != nil {
		writeError(w, h.Log, err)
		return
	}
	f.ID = chi.URLParam(r, "id")
	out, err := session(r).UpsertFood(r.Context(), f)
	h.reply(w, createdOrOK(r), out, err)
}

func (h *AdminHandler) deleteFood(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, session(r).DeleteFood(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminHandler) listServices(w http.ResponseWriter, r *http.Request) {
	ss, err := session(r).Services(r.Context())
	if ss == nil {
		ss = []catalog.Service{}
	}
	h.reply(w, http.StatusOK, ss, err)
}

func (h *AdminHandler) upsertService(w http.ResponseWriter, r *http.Request) {
	var s catalog.Service
	if err := decode(r, &s); err != nil {
		writeError(w, h.Log, err)
		return
	}
	s.ID = chi.URLParam(r, "id")
	out, err := session(r).UpsertService(r.Context(), s)
	h.reply(w, createdOrOK(r), out, err)
}

func (h *AdminHandler) deleteService(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, session(r).DeleteService(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminHandler) listEmployees(w http.ResponseWriter, r *http.Request) {
	es, err := session(r).Employees(r.Context())
	if es == nil {
		es = []users.Employee{}
	}
	h.reply(w, http.StatusOK, es, err)
}

func (h *AdminHandler) upsertEmployee(w http.ResponseWriter, r *http.Request) {
	var e users.Employee
	if err := decode(r, &e); err != nil {
		writeError(w, h.Log, err)
		return
	}
	e.ID = chi.URLParam(r, "id")
	out, err := session(r).UpsertEmployee(r.Context(), e)
	h.reply(w, createdOrOK(r), out, err)
}

func (h *AdminHandler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	h.reply(w, http.StatusNoContent, nil, session(r).DeleteEmployee(r.Context(), chi.URLParam(r, "id")))
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := session(r).Users(r.Context())
	if us == nil {
		us = []users.Profile{}
	}
	h.reply(w, http.StatusOK, us, err)
}

type roleReq struct {
	Role users.Role `json:"role"`
}

func (h *AdminHandler) setRole(w http.ResponseWriter, r *http.Request) {
	var req roleReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	p, err := session(r).SetRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	h.reply(w, http.StatusOK, p, err)
}

func (h *AdminHandler) revenue(w http.ResponseWriter, r *http.Request) {
	period := admin.Period(r.URL.Query().Get("period"))
	if period == "" {
		period = admin.Weekly
	}
	pts, err := session(r).Revenue(r.Context(), period)
	h.reply(w, http.StatusOK, pts, err)
}

func createdOrOK(r *http.Request) int {
	if r.Method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}
