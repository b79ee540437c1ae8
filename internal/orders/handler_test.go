package orders

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, _ := newTestService(newMemoryRepo())
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/orders", h.MountRoutes)
	r.Route("/tables", h.MountTableRoutes)
	return r
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(method, path, reader))
	return rr
}

func TestHandlerOrderLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/orders/", `{"customer_name":"Bianchi","items":[{"menu_item_id":1,"quantity":2}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var order Order
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	require.Equal(t, "22.00", order.Total.StringFixed(2))

	rr = do(t, router, http.MethodPost, fmt.Sprintf("/orders/%d/items", order.ID), `{"menu_item_id":2,"quantity":1,"unit_price":"3.00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	require.Equal(t, "23.00", order.Subtotal.StringFixed(2))
	require.Equal(t, "25.30", order.Total.StringFixed(2))

	rr = do(t, router, http.MethodPost, fmt.Sprintf("/orders/%d/status", order.ID), `{"status":"COMPLETED"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &order))
	require.NotNil(t, order.CompletedAt)

	rr = do(t, router, http.MethodPost, fmt.Sprintf("/orders/%d/status", order.ID), `{"status":"PENDING"}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "COMPLETED -\\u003e PENDING")

	rr = do(t, router, http.MethodGet, "/orders/?status=COMPLETED", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
}

func TestHandlerValidation(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/orders/", `{"items":[{"menu_item_id":1,"quantity":0}]}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "quantity")

	rr = do(t, router, http.MethodPost, "/orders/", `{"unknown":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/orders/abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/orders/12", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerTables(t *testing.T) {
	router := newTestRouter(t)

	rr := do(t, router, http.MethodPost, "/tables/", `{"number":4,"capacity":6}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var table Table
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &table))

	rr = do(t, router, http.MethodPost, fmt.Sprintf("/tables/%d/occupy", table.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &table))
	require.True(t, table.IsOccupied)

	rr = do(t, router, http.MethodPost, "/tables/", `{"number":4,"capacity":2}`)
	require.Equal(t, http.StatusConflict, rr.Code)
}
