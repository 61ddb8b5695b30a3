package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/checkout"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Catalog interface {
	GetFood(ctx context.Context, id string) (catalog.Food, error)
	GetService(ctx context.Context, id string) (catalog.Service, error)
	ListAvailableFoods(ctx context.Context) ([]catalog.Food, error)
	ListServices(ctx context.Context) ([]catalog.Service, error)
}

type Profiles interface {
	Get(ctx context.Context, id string) (users.Profile, error)
	Upsert(ctx context.Context, p users.Profile) (users.Profile, error)
}

type OrderReader interface {
	Get(ctx context.Context, id string) (orders.Order, error)
	ListByUser(ctx context.Context, userID string) ([]orders.Order, error)
	Watch(ctx context.Context, userID string) (*orders.Subscription, error)
}

type Checkouter interface {
	Checkout(ctx context.Context, req checkout.Request) (checkout.Result, error)
}

// PaymentSessions is satisfied by payment.Sessions.
type PaymentSessions interface {
	Status(orderID string) (payment.Outcome, bool)
	Cancel(orderID string) bool
}

// StoreHandler serves the customer storefront.
type StoreHandler struct {
	Catalog  Catalog
	Profiles Profiles
	Cart     *cart.Store
	Checkout Checkouter
	Payments PaymentSessions
	Orders   OrderReader
	Redis    redis.Cmdable
	Limiter  *Limiter
	Log      *zap.Logger
}

func (h *StoreHandler) Register(r chi.Router, secret []byte) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(DefaultTimeout))
		r.Get("/foods", h.listFoods)
		r.Get("/services", h.listServices)
	})
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(secret))
		// streams stay open past the request timeout
		r.Get("/me/orders/stream", h.streamOrders)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(DefaultTimeout))
			r.Get("/me/profile", h.getProfile)
			r.Put("/me/profile", h.putProfile)
			r.Get("/me/cart", h.getCart)
			r.Post("/me/cart/items", h.addCartItem)
			r.Patch("/me/cart/items/{index}", h.updateCartItem)
			r.Delete("/me/cart/items/{index}", h.removeCartItem)
			r.Post("/checkout", h.checkout)
			r.Get("/payments/{orderID}", h.getPayment)
			r.Delete("/payments/{orderID}", h.cancelPayment)
			r.Get("/me/orders", h.listOrders)
			r.Get("/orders/{id}", h.getOrder)
		})
	})
}

func (h *StoreHandler) listFoods(w http.ResponseWriter, r *http.Request) {
	fs, err := h.Catalog.ListAvailableFoods(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if fs == nil {
		fs = []catalog.Food{}
	}
	writeJSON(w, http.StatusOK, fs)
}

func (h *StoreHandler) listServices(w http.ResponseWriter, r *http.Request) {
	ss, err := h.Catalog.ListServices(r.Context())
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if ss == nil {
		ss = []catalog.Service{}
	}
	writeJSON(w, http.StatusOK, ss)
}

// ---- profile ----

func (h *StoreHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	p, err := h.Profiles.Get(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type profileReq struct {
	Fullname string `json:"fullname"`
	Phone    string `json:"phone"`
}

func (h *StoreHandler) putProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req profileReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	p, err := h.Profiles.Upsert(r.Context(), users.Profile{
		ID:       id.UserID,
		Email:    id.Email,
		Fullname: strings.TrimSpace(req.Fullname),
		Phone:    strings.TrimSpace(req.Phone),
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ---- cart ----

type cartResp struct {
	Items []cart.Item `json:"items"`
	Total string      `json:"total"`
}

func writeCart(w http.ResponseWriter, code int, items []cart.Item) {
	if items == nil {
		items = []cart.Item{}
	}
	writeJSON(w, code, cartResp{Items: items, Total: cart.Total(items).String()})
}

func (h *StoreHandler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	items, err := h.Cart.Items(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeCart(w, http.StatusOK, items)
}

type addItemReq struct {
	ID   string    `json:"id"`
	Type cart.Kind `json:"type"`
}

func (h *StoreHandler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req addItemReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	ctx := r.Context()

	var p cart.Product
	switch req.Type {
	case cart.KindFood:
		f, err := h.Catalog.GetFood(ctx, req.ID)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		if f.Status == catalog.FoodOutOfStock || f.Quantity <= 0 {
			writeError(w, h.Log, errOutOfStock)
			return
		}
		p = cart.Product{ID: f.ID, Name: f.Name, Price: f.Price, Picture: f.Picture, Type: cart.KindFood}
	case cart.KindService:
		s, err := h.Catalog.GetService(ctx, req.ID)
		if err != nil {
			writeError(w, h.Log, err)
			return
		}
		p = cart.Product{ID: s.ID, Name: s.Name, Price: s.Price, Picture: s.Picture, Type: cart.KindService}
	default:
		writeError(w, h.Log, cart.ErrUnknownKind)
		return
	}

	owner := cart.Owner{UserID: id.UserID}
	prof, err := h.Profiles.Get(ctx, id.UserID)
	switch {
	case err == nil:
		owner.Fullname, owner.Phone = prof.Fullname, prof.Phone
	case !errors.Is(err, users.ErrNotFound):
		writeError(w, h.Log, err)
		return
	}

	items, err := h.Cart.Add(ctx, owner, p)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeCart(w, http.StatusCreated, items)
}

type updateItemReq struct {
	Quantity *int    `json:"quantity"`
	Date     *string `json:"date"`
}

func cartIndex(r *http.Request) (int, error) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		return 0, cart.ErrIndexOutOfRange
	}
	return i, nil
}

func (h *StoreHandler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	idx, err := cartIndex(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	var req updateItemReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if req.Quantity == nil && req.Date == nil {
		writeError(w, h.Log, errBadJSON)
		return
	}
	items, err := h.Cart.Items(r.Context(), id.UserID)
	if err == nil && req.Quantity != nil {
		items, err = h.Cart.UpdateQuantity(r.Context(), id.UserID, idx, *req.Quantity)
	}
	if err == nil && req.Date != nil {
		items, err = h.Cart.UpdateDate(r.Context(), id.UserID, idx, strings.TrimSpace(*req.Date))
	}
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeCart(w, http.StatusOK, items)
}

func (h *StoreHandler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	idx, err := cartIndex(r)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	items, err := h.Cart.Remove(r.Context(), id.UserID, idx)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	writeCart(w, http.StatusOK, items)
}
