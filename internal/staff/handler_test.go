package staff

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

func TestHandlerScheduleFlow(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, ServiceConfig{})
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	router := chi.NewRouter()
	router.Route("/staff", h.MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(method, path, reader))
		return rr
	}

	rr := do(http.MethodPost, "/staff/employees/", `{"user_id":3,"position":"CHEF","date_hired":"2022-09-01","hourly_rate":"18.00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var emp Employee
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &emp))
	require.Equal(t, "2022-09-01", emp.DateHired.String())

	rr = do(http.MethodPost, "/staff/schedules/", fmt.Sprintf(`{"employee_id":%d,"date":"2024-05-10","shift":"MORNING","start_time":"08:00","end_time":"12:00"}`, emp.ID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(http.MethodPost, "/staff/schedules/", fmt.Sprintf(`{"employee_id":%d,"date":"2024-05-10","shift":"AFTERNOON","start_time":"10:00","end_time":"14:00"}`, emp.ID))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPost, "/staff/schedules/", fmt.Sprintf(`{"employee_id":%d,"date":"2024-05-10","shift":"MORNING","start_time":"13:00","end_time":"14:00"}`, emp.ID))
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = do(http.MethodGet, "/staff/schedules/?from=2024-05-10&to=2024-05-10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Schedule
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rr = do(http.MethodGet, "/staff/schedules/?from=10-05-2024", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPost, "/staff/leaves", fmt.Sprintf(`{"employee_id":%d,"leave_type":"SICK","start_date":"2024-05-12","end_date":"2024-05-13"}`, emp.ID))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var leave Leave
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &leave))

	rr = do(http.MethodPost, fmt.Sprintf("/staff/leaves/%d/decision", leave.ID), `{"status":"MAYBE"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(http.MethodPost, fmt.Sprintf("/staff/leaves/%d/decision", leave.ID), `{"status":"REJECTED"}`)
	require.Equal(t, http.StatusOK, rr.Code)
}
