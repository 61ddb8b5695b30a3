package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-petcare-checkout/internal/admin"
	"github.com/ariefcatur/go-petcare-checkout/internal/appointments"
	"github.com/ariefcatur/go-petcare-checkout/internal/cart"
	"github.com/ariefcatur/go-petcare-checkout/internal/catalog"
	"github.com/ariefcatur/go-petcare-checkout/internal/checkout"
	"github.com/ariefcatur/go-petcare-checkout/internal/orders"
	"github.com/ariefcatur/go-petcare-checkout/internal/payment"
	"github.com/ariefcatur/go-petcare-checkout/internal/users"
	"go.uber.org/zap"
)

var (
	errRateLimited = errors.New("too many checkout attempts, try again shortly")
	errOutOfStock  = errors.New("item is out of stock")
	errBadJSON     = errors.New("invalid json")
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

type errorBody struct {
	Error    string                    `json:"error"`
	Failures checkout.ValidationErrors `json:"failures,omitempty"`
	OrderID  string                    `json:"orderId,omitempty"`
}

// statusOf maps domain errors to HTTP statuses.
func statusOf(err error) int {
	var (
		verrs checkout.ValidationErrors
		nerr  *checkout.NetworkError
		part  *checkout.PartialCommitError
	)
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity
	case errors.As(err, &part):
		return http.StatusInternalServerError
	case errors.As(err, &nerr):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, admin.ErrNotAdmin):
		return http.StatusForbidden
	case errors.Is(err, errBadJSON),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrProfileRequired),
		errors.Is(err, checkout.ErrUnknownPaymentMethod),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrDescriptionTooLong),
		errors.Is(err, cart.ErrIndexOutOfRange),
		errors.Is(err, cart.ErrUnknownKind),
		errors.Is(err, admin.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, checkout.ErrRecordVanished),
		errors.Is(err, orders.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, appointments.ErrNotFound),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, users.ErrEmployeeNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrInvalidTransition),
		errors.Is(err, orders.ErrStatusConflict),
		errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, errOutOfStock),
		errors.Is(err, payment.ErrSessionExists):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError reports err to the client. Every failure gets a message; server
// side ones are logged too.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := statusOf(err)
	body := errorBody{Error: err.Error()}

	var (
		verrs checkout.ValidationErrors
		part  *checkout.PartialCommitError
	)
	if errors.As(err, &verrs) && len(verrs) > 0 {
		body.Error = verrs.First().Error()
		body.Failures = verrs
	}
	if errors.As(err, &part) {
		body.OrderID = part.OrderID
	}
	if code >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", code), zap.Error(err))
		if code == http.StatusInternalServerError && part == nil {
			body.Error = "internal error"
		}
	}
	writeJSON(w, code, body)
}
