package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-petcare-checkout/internal/checkout"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type checkoutReq struct {
	PaymentMethod orders.PaymentMethod `json:"paymentMethod"`
}

func (h *StoreHandler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	var req checkoutReq
	if err := decode(r, &req); err != nil {
		writeError(w, h.Log, err)
		return
	}
	if h.Limiter != nil && !h.Limiter.Allow(id.UserID) {
		writeError(w, h.Log, errRateLimited)
		return
	}

	res, err := h.Checkout.Checkout(r.Context(), checkout.Request{
		UserID:        id.UserID,
		PaymentMethod: req.PaymentMethod,
		TraceID:       middleware.GetReqID(r.Context()),
	})
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if err := redisx.CacheOrderStatus(r.Context(), h.Redis, res.Order.ID, res.Order.UserID, string(res.Order.Status)); err != nil {
		h.Log.Warn("cache order status", zap.String("order_id", res.Order.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusCreated, res)
}

// ownOrder loads an order of the caller. Orders of other users look missing.
func (h *StoreHandler) ownOrder(w http.ResponseWriter, r *http.Request, id string) (orders.Order, bool) {
	me, ok := caller(w, r)
	if !ok {
		return orders.Order{}, false
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err == nil && o.UserID != me.UserID {
		err = orders.ErrNotFound
	}
	if err != nil {
		writeError(w, h.Log, err)
		return orders.Order{}, false
	}
	return o, true
}

type paymentResp struct {
	OrderID     string               `json:"orderId"`
	OrderStatus orders.Status        `json:"orderStatus"`
	State       payment.State        `json:"state,omitempty"`
	Transaction *payment.Transaction `json:"transaction,omitempty"`
	Reason      string               `json:"reason,omitempty"`
}

func (h *StoreHandler) getPayment(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownOrder(w, r, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}
	resp := paymentResp{OrderID: o.ID, OrderStatus: o.Status}
	if out, found := h.Payments.Status(o.ID); found {
		resp.State, resp.Transaction, resp.Reason = out.State, out.Transaction, out.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

// cancelPayment stops waiting for the transfer, e.g. when the customer leaves
// the payment page. The order itself stays PendingPayment.
func (h *StoreHandler) cancelPayment(w http.ResponseWriter, r *http.Request) {
	o, ok := h.ownOrder(w, r, chi.URLParam(r, "orderID"))
	if !ok {
		return
	}
	if !h.Payments.Cancel(o.ID) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no payment session running"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StoreHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	os, err := h.Orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	if os == nil {
		os = []orders.Order{}
	}
	writeJSON(w, http.StatusOK, os)
}

// streamOrders pushes the caller's order list as server-sent events, once on
// connect and again after every change.
func (h *StoreHandler) streamOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	sub, err := h.Orders.Watch(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.Log, err)
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					h.Log.Warn("order stream ended", zap.String("user_id", id.UserID), zap.Error(err))
				}
				return
			}
			if snap == nil {
				snap = []orders.Order{}
			}
			b, err := json.Marshal(snap)
			if err != nil {
				h.Log.Error("encode order snapshot", zap.Error(err))
				return
			}
			if _, err := fmt.Fprintf(w, "event: orders\ndata: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// getOrder answers from the status cache first and falls back to the database.
// Orders of other users look missing either way.
func (h *StoreHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing id"})
		return
	}
	me, ok := caller(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	// 1) cache, only when it names the caller as owner
	if e, found, err := redisx.CachedOrderStatus(ctx, h.Redis, orderID); err == nil && found && e.UserID == me.UserID {
		writeJSON(w, http.StatusOK, e)
		return
	}

	// 2) fallback DB
	o, ok := h.ownOrder(w, r, orderID)
	if !ok {
		return
	}
	if err := redisx.CacheOrderStatus(ctx, h.Redis, o.ID, o.UserID, string(o.Status)); err != nil {
		h.Log.Warn("cache order status", zap.String("order_id", o.ID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, redisx.StatusEntry{Status: string(o.Status), UserID: o.UserID, UpdatedAt: o.UpdatedAt})
}
