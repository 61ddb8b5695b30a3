package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const origin = "http://localhost:3000"

func TestRelayEchoesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"Mã GD":"FT1","Giá trị":150000}]}`))
	}))
	defer upstream.Close()

	srv := httptest.NewServer(NewRouter(NewHandler(upstream.URL, zap.NewNop()), origin))
	defer srv.Close()

	res, err := http.Get(srv.URL + Route)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "FT1", body.Data[0]["Mã GD"])
}

func TestRelayUpstreamFailure(t *testing.T) {
	for name, h := range map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) },
		"html":   func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) },
	} {
		t.Run(name, func(t *testing.T) {
			upstream := httptest.NewServer(h)
			defer upstream.Close()

			rec := httptest.NewRecorder()
			NewHandler(upstream.URL, zap.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Route, nil))

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"error":"Failed to fetch VietQR data"}`, rec.Body.String())
		})
	}
}

func TestRelayCORS(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer upstream.Close()
	router := NewRouter(NewHandler(upstream.URL, zap.NewNop()), origin)

	pre := httptest.NewRequest(http.MethodOptions, Route, nil)
	pre.Header.Set("Origin", origin)
	pre.Header.Set("Access-Control-Request-Method", http.MethodGet)
	pre.Header.Set("Access-Control-Request-Headers", "Cache-Control")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, pre)
	assert.Equal(t, origin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)

	other := httptest.NewRequest(http.MethodGet, Route, nil)
	other.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, other)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	post := httptest.NewRequest(http.MethodPost, Route, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, post)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
