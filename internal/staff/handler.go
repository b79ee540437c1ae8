package staff

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for staff management.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the staff handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers staff routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.listEmployees)
		r.Post("/", h.createEmployee)
		r.Get("/{id}", h.getEmployee)
		r.Put("/{id}", h.updateEmployee)
		r.Delete("/{id}", h.deleteEmployee)
	})
	r.Route("/schedules", func(r chi.Router) {
		r.Get("/", h.listSchedules)
		r.Post("/", h.createSchedule)
		r.Get("/{id}", h.getSchedule)
		r.Put("/{id}", h.updateSchedule)
		r.Delete("/{id}", h.deleteSchedule)
		r.Post("/{id}/check-in", h.checkIn)
		r.Post("/{id}/check-out", h.checkOut)
	})
	r.Get("/attendance", h.listAttendance)
	r.Post("/attendance", h.recordAttendance)
	r.Get("/leaves", h.listLeaves)
	r.Post("/leaves", h.requestLeave)
	r.Post("/leaves/{id}/decision", h.decideLeave)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListEmployees(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list employees", err)
		return
	}
	if list == nil {
		list = []Employee{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var in EmployeeInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.CreateEmployee(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create employee", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, e)
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.GetEmployee(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in EmployeeInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	e, err := h.service.UpdateEmployee(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update employee", err)
		return
	}
	httpx.JSON(w, http.StatusOK, e)
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteEmployee(r.Context(), id); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSchedules(w http.ResponseWriter, r *http.Request) {
	filter, err := scheduleFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListSchedules(r.Context(), filter)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list schedules", err)
		return
	}
	if list == nil {
		list = []Schedule{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createSchedule(w http.ResponseWriter, r *http.Request) {
	var in ScheduleInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sched, err := h.service.CreateSchedule(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create schedule", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sched)
}

func (h *Handler) getSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	sched, err := h.service.GetSchedule(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get schedule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sched)
}

func (h *Handler) updateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ScheduleInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sched, err := h.service.UpdateSchedule(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update schedule", err)
		return
	}
	httpx.JSON(w, http.StatusOK, sched)
}

func (h *Handler) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteSchedule(r.Context(), id); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete schedule", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.CheckIn(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "check in", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.CheckOut(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "check out", err)
		return
	}
	httpx.JSON(w, http.StatusOK, a)
}

func (h *Handler) listAttendance(w http.ResponseWriter, r *http.Request) {
	filter, err := scheduleFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListAttendance(r.Context(), filter)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list attendance", err)
		return
	}
	if list == nil {
		list = []Attendance{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) recordAttendance(w http.ResponseWriter, r *http.Request) {
	var in AttendanceInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.RecordAttendance(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "record attendance", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}

func (h *Handler) listLeaves(w http.ResponseWriter, r *http.Request) {
	employeeID, err := queryID(r, "employee_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListLeaves(r.Context(), employeeID)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list leaves", err)
		return
	}
	if list == nil {
		list = []Leave{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) requestLeave(w http.ResponseWriter, r *http.Request) {
	var in LeaveInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.RequestLeave(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "request leave", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, l)
}

func (h *Handler) decideLeave(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in DecisionInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	l, err := h.service.DecideLeave(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "decide leave", err)
		return
	}
	httpx.JSON(w, http.StatusOK, l)
}

func scheduleFilter(r *http.Request) (ScheduleFilter, error) {
	var filter ScheduleFilter
	id, err := queryID(r, "employee_id")
	if err != nil {
		return filter, err
	}
	filter.EmployeeID = id
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		if filter.From, err = shared.ParseDate(raw); err != nil {
			return filter, shared.NewValidationError("from", "must be YYYY-MM-DD")
		}
	}
	if raw := q.Get("to"); raw != "" {
		if filter.To, err = shared.ParseDate(raw); err != nil {
			return filter, shared.NewValidationError("to", "must be YYYY-MM-DD")
		}
	}
	return filter, nil
}

func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, shared.NewValidationError(name, "must be a positive integer")
	}
	return v, nil
}
