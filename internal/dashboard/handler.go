package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for the dashboard.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the dashboard handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.summary)
	r.Post("/metrics/refresh", h.refresh)
	r.Get("/widgets", h.listWidgets)
	r.Post("/widgets", h.createWidget)
	r.Get("/widgets/{id}/data", h.widgetData)
}

type refreshRequest struct {
	Date shared.Date `json:"date"`
}

func queryDate(r *http.Request) (shared.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return shared.Date{}, nil
	}
	d, err := shared.ParseDate(raw)
	if err != nil {
		return shared.Date{}, shared.NewValidationError("date", "must be formatted YYYY-MM-DD")
	}
	return d, nil
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	date, err := queryDate(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out, err := h.service.Summary(r.Context(), date)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "dashboard summary", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeAndValidate(r, &in); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	if in.Date.IsZero() {
		in.Date = h.service.Today()
	}
	m, err := h.service.RefreshMetrics(r.Context(), in.Date)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "refresh dashboard metrics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

func (h *Handler) listWidgets(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListWidgets(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list widgets", err)
		return
	}
	if list == nil {
		list = []Widget{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createWidget(w http.ResponseWriter, r *http.Request) {
	var in WidgetInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	widget, err := h.service.CreateWidget(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create widget", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, widget)
}

func (h *Handler) widgetData(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.service.WidgetData(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "widget data", err)
		return
	}
	httpx.JSON(w, http.StatusOK, data)
}
