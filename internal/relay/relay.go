package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Route is where the payment feed is served.
const Route = "/api/vietqr"

const failureMessage = "Failed to fetch VietQR data"

// Handler forwards every request to one fixed upstream and echoes its JSON
// body. It adds no auth, caching or rate limiting.
type Handler struct {
	Upstream string
	HTTP     *http.Client
	Log      *zap.Logger
}

func NewHandler(upstream string, log *zap.Logger) *Handler {
	return &Handler{Upstream: upstream, HTTP: &http.Client{Timeout: 15 * time.Second}, Log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := h.fetch(r.Context())
	if err != nil {
		h.Log.Error("error fetching payment feed", zap.String("upstream", h.Upstream), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": failureMessage})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) fetch(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Upstream, nil)
	if err != nil {
		return nil, err
	}
	res, err := h.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("upstream status %d", res.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(res.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("upstream body is not json")
	}
	return b, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// CORS allows one origin, GET and OPTIONS, and the cache-busting headers the
// storefront sends while polling.
func CORS(origin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{origin},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Cache-Control", "Pragma", "Expires"},
	})
}

func NewRouter(h *Handler, origin string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(CORS(origin))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, Route, h)
	return r
}
