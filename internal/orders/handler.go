package orders

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for orders and tables.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the orders handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Post("/{id}/items", h.addItem)
	r.Put("/{id}/items/{itemID}", h.updateItem)
	r.Delete("/{id}/items/{itemID}", h.removeItem)
	r.Post("/{id}/status", h.updateStatus)
	r.Post("/{id}/payment", h.updatePayment)
}

// MountTableRoutes registers dining table routes.
func (h *Handler) MountTableRoutes(r chi.Router) {
	r.Get("/", h.listTables)
	r.Post("/", h.createTable)
	r.Post("/{id}/occupy", h.occupyTable(true))
	r.Post("/{id}/release", h.occupyTable(false))
}

type listResponse struct {
	Data       []Order           `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := ListInput{
		Status: Status(q.Get("status")),
		Date:   q.Get("date"),
		Page:   httpx.QueryPage(r),
	}
	if raw := q.Get("table_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.NewValidationError("table_id", "must be an integer"))
			return
		}
		in.TableID = id
	}
	list, page, err := h.service.List(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list orders", err)
		return
	}
	if list == nil {
		list = []Order{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: list, Pagination: page})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in CreateOrderInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create order", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get order", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete order", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ItemInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.AddItem(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "add order item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in ItemInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateItem(r.Context(), id, itemID, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update order item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	itemID, err := httpx.PathID(r, "itemID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.RemoveItem(r.Context(), id, itemID)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "remove order item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in StatusInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update order status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) updatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in PaymentInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	order, err := h.service.UpdatePayment(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update order payment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) listTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.service.ListTables(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list tables", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tables)
}

func (h *Handler) createTable(w http.ResponseWriter, r *http.Request) {
	var in TableInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	table, err := h.service.CreateTable(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create table", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, table)
}

func (h *Handler) occupyTable(occupied bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := httpx.PathID(r, "id")
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		table, err := h.service.SetTableOccupied(r.Context(), id, occupied)
		if err != nil {
			httpx.RespondErrorLogged(w, h.logger, "set table occupancy", err)
			return
		}
		httpx.JSON(w, http.StatusOK, table)
	}
}
