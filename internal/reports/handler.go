package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for report generation and retrieval.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/overview", h.overview)
	r.Route("/daily", func(r chi.Router) {
		r.Get("/", h.listDaily)
		r.Post("/", h.generateDaily)
		r.Get("/{date}", h.getDaily)
	})
	r.Route("/monthly", func(r chi.Router) {
		r.Get("/", h.listMonthly)
		r.Post("/", h.generateMonthly)
		r.Get("/{year}/{month}", h.getMonthly)
	})
	r.Route("/hourly", func(r chi.Router) {
		r.Get("/", h.listHourly)
		r.Post("/", h.generateHourly)
	})
}

type dailyPage struct {
	Data       []DailyReport     `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type monthlyPage struct {
	Data       []MonthlyReport   `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type queuedResponse struct {
	Status string `json:"status"`
	Kind   Kind   `json:"kind"`
}

func async(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("async"))
	return v
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func csvHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func parseDate(raw, field string) (shared.Date, error) {
	if raw == "" {
		return shared.Date{}, shared.NewValidationError(field, "is required")
	}
	d, err := shared.ParseDate(raw)
	if err != nil {
		return shared.Date{}, shared.NewValidationError(field, "must be formatted YYYY-MM-DD")
	}
	return d, nil
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, shared.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Overview(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "report overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) generateDaily(w http.ResponseWriter, r *http.Request) {
	var in DailyInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if async(r) {
		if err := h.service.QueueDaily(r.Context(), in.Date); err != nil {
			httpx.RespondErrorLogged(w, h.logger, "queue daily report", err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, queuedResponse{Status: "queued", Kind: KindDaily})
		return
	}
	report, err := h.service.ComputeDaily(r.Context(), in.Date)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "generate daily report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) listDaily(w http.ResponseWriter, r *http.Request) {
	list, page, err := h.service.ListDaily(r.Context(), httpx.QueryPage(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list daily reports", err)
		return
	}
	if wantsCSV(r) {
		csvHeaders(w, "daily-reports.csv")
		if err := WriteDailyCSV(w, list); err != nil {
			h.logger.Error("write daily csv", slog.Any("error", err))
		}
		return
	}
	if list == nil {
		list = []DailyReport{}
	}
	httpx.JSON(w, http.StatusOK, dailyPage{Data: list, Pagination: page})
}

func (h *Handler) getDaily(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"), "date")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.GetDaily(r.Context(), date)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get daily report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) generateMonthly(w http.ResponseWriter, r *http.Request) {
	var in MonthlyInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if async(r) {
		if err := h.service.QueueMonthly(r.Context(), in.Year, in.Month); err != nil {
			httpx.RespondErrorLogged(w, h.logger, "queue monthly report", err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, queuedResponse{Status: "queued", Kind: KindMonthly})
		return
	}
	report, err := h.service.ComputeMonthly(r.Context(), in.Year, in.Month)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "generate monthly report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) listMonthly(w http.ResponseWriter, r *http.Request) {
	list, page, err := h.service.ListMonthly(r.Context(), httpx.QueryPage(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list monthly reports", err)
		return
	}
	if wantsCSV(r) {
		csvHeaders(w, "monthly-reports.csv")
		if err := WriteMonthlyCSV(w, list); err != nil {
			h.logger.Error("write monthly csv", slog.Any("error", err))
		}
		return
	}
	if list == nil {
		list = []MonthlyReport{}
	}
	httpx.JSON(w, http.StatusOK, monthlyPage{Data: list, Pagination: page})
}

func (h *Handler) getMonthly(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	month, err := pathInt(r, "month")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.GetMonthly(r.Context(), year, month)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get monthly report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) generateHourly(w http.ResponseWriter, r *http.Request) {
	var in HourlyInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if async(r) {
		if err := h.service.QueueHourly(r.Context(), in.Date, in.Hour); err != nil {
			httpx.RespondErrorLogged(w, h.logger, "queue hourly analytics", err)
			return
		}
		httpx.JSON(w, http.StatusAccepted, queuedResponse{Status: "queued", Kind: KindHourly})
		return
	}
	if in.Hour == nil {
		buckets, err := h.service.ComputeHourlyDay(r.Context(), in.Date)
		if err != nil {
			httpx.RespondErrorLogged(w, h.logger, "generate hourly analytics", err)
			return
		}
		httpx.JSON(w, http.StatusOK, buckets)
		return
	}
	bucket, err := h.service.ComputeHourly(r.Context(), in.Date, *in.Hour)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "generate hourly analytics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bucket)
}

func (h *Handler) listHourly(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"), "date")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListHourly(r.Context(), date)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list hourly analytics", err)
		return
	}
	if wantsCSV(r) {
		csvHeaders(w, "hourly-"+date.String()+".csv")
		if err := WriteHourlyCSV(w, list); err != nil {
			h.logger.Error("write hourly csv", slog.Any("error", err))
		}
		return
	}
	if list == nil {
		list = []SalesAnalytics{}
	}
	httpx.JSON(w, http.StatusOK, list)
}
