package accounts

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for user accounts.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the accounts handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/{id}", h.getUser)
		r.Get("/{id}/profile", h.getProfile)
		r.Put("/{id}/profile", h.updateProfile)
		r.Get("/{id}/notifications", h.listNotifications)
		r.Put("/{id}/notifications/{type}", h.updateNotification)
		r.Get("/{id}/logins", h.listLogins)
		r.Get("/{id}/activities", h.listActivities)
		r.Post("/{id}/activities", h.recordActivity)
	})
}

type loginPage struct {
	Data       []LoginAttempt    `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type activityPage struct {
	Data       []Activity        `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateUserInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	account, err := h.service.CreateUser(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	client := shared.ClientFromContext(r.Context())
	user, err := h.service.Authenticate(r.Context(), in.Username, in.Password, client.IP, client.UserAgent)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ProfileInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateProfile(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.service.ListNotificationSettings(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list notification settings", err)
		return
	}
	if list == nil {
		list = []NotificationSetting{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) updateNotification(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in NotificationInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	n, err := h.service.UpdateNotificationSetting(r.Context(), id, chi.URLParam(r, "type"), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update notification setting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, n)
}

func (h *Handler) listLogins(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, page, err := h.service.ListLoginHistory(r.Context(), id, httpx.QueryPage(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list login history", err)
		return
	}
	if list == nil {
		list = []LoginAttempt{}
	}
	httpx.JSON(w, http.StatusOK, loginPage{Data: list, Pagination: page})
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, page, err := h.service.ListActivities(r.Context(), id, httpx.QueryPage(r))
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list activities", err)
		return
	}
	if list == nil {
		list = []Activity{}
	}
	httpx.JSON(w, http.StatusOK, activityPage{Data: list, Pagination: page})
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ActivityInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	a, err := h.service.RecordActivity(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "record activity", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, a)
}
