package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	var got Identity
	h := Authenticate(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	call := func(auth string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	tok, err := IssueToken(secret, Identity{UserID: "u1", Email: "u1@example.com"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call("Bearer "+tok))
	assert.Equal(t, Identity{UserID: "u1", Email: "u1@example.com"}, got)

	expired, err := IssueToken(secret, Identity{UserID: "u1"}, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+expired))

	other, err := IssueToken([]byte("other"), Identity{UserID: "u1"}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+other))

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+none))

	noSubject, err := IssueToken(secret, Identity{}, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+noSubject))

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call("Basic abc"))
}

func TestLimiterPerKey(t *testing.T) {
	l := NewLimiter(2)
	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"))
}
