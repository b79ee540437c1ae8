package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

func TestActorMiddlewareStoresActorAndClient(t *testing.T) {
	var actor int64
	var client shared.ClientInfo
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = shared.ActorFromContext(r.Context())
		client = shared.ClientFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set(ActorHeader, "42")
	req.Header.Set("User-Agent", "pos-terminal/2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, int64(42), actor)
	require.Equal(t, "203.0.113.9", client.IP)
	require.Equal(t, "pos-terminal/2", client.UserAgent)
}

func TestActorMiddlewareRejectsBadActor(t *testing.T) {
	called := false
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ActorHeader, raw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, raw)
	}
	require.False(t, called)
}

func TestClientIP(t *testing.T) {
	require.Equal(t, "10.0.0.1", clientIP("10.0.0.1:80"))
	require.Equal(t, "::1", clientIP("[::1]:443"))
	require.Equal(t, "10.0.0.2", clientIP("10.0.0.2"))
	require.Equal(t, "", clientIP("not-an-ip"))
}
