package dashboard

import (
	"encoding/json"
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
	svc, _, _ := newTestService(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/dashboard", h.MountRoutes)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandlerDashboard(t *testing.T) {
	router := newTestRouter(t)

	rr := do(router, http.MethodPost, "/dashboard/metrics/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var m Metric
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	require.Equal(t, "2024-05-10", m.Date.String())

	rr = do(router, http.MethodPost, "/dashboard/metrics/refresh", `{"date":"2024-05-09"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = do(router, http.MethodGet, "/dashboard/summary?date=2024-05-09", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var summary Summary
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	require.Equal(t, "2024-05-09", summary.Metric.Date.String())
	require.NotNil(t, summary.LowStock)

	rr = do(router, http.MethodGet, "/dashboard/summary?date=yesterday", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(router, http.MethodPost, "/dashboard/widgets", `{"name":"Revenue","widget_type":"DAILY_REVENUE","refresh_rate":600}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var w Widget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &w))

	rr = do(router, http.MethodPost, "/dashboard/widgets", `{"name":"Revenue","widget_type":"DAILY_REVENUE","refresh_rate":601}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(router, http.MethodGet, "/dashboard/widgets", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var widgets []Widget
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &widgets))
	require.Len(t, widgets, 1)

	rr = do(router, http.MethodGet, "/dashboard/widgets/1/data", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"2024-05-04"`)

	rr = do(router, http.MethodGet, "/dashboard/widgets/7/data", "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}
