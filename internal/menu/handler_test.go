package menu

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

func newTestRouter() http.Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(newMemoryRepo()))
	r := chi.NewRouter()
	r.Route("/menu", h.MountRoutes)
	return r
}

func TestHandlerCreateAndListItems(t *testing.T) {
	router := newTestRouter()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/menu/categories", strings.NewReader(`{"name":"Pizza"}`)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var cat Category
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cat))

	body := `{"category_id":` + itoa(cat.ID) + `,"name":"Margherita","price":"9.50"}`
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/menu/items", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/items?category_id="+itoa(cat.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var items []Item
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 1)
	require.Equal(t, "Margherita", items[0].Name)
}

func TestHandlerRejectsMissingName(t *testing.T) {
	router := newTestRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/menu/categories", strings.NewReader(`{"description":"x"}`)))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "name: is required")
}

func TestHandlerNotFound(t *testing.T) {
	router := newTestRouter()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/menu/items/9", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func itoa(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
