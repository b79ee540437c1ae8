package inventory

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/platform/httpx"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Handler wires HTTP endpoints for inventory.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs the inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/items", h.listItems)
	r.Post("/items", h.createItem)
	r.Get("/items/export", h.exportItems)
	r.Get("/items/low-stock", h.lowStock)
	r.Get("/items/{id}", h.getItem)
	r.Put("/items/{id}", h.updateItem)
	r.Delete("/items/{id}", h.deleteItem)
	r.Post("/items/{id}/adjust", h.adjust)
	r.Get("/reorder", h.reorder)
	r.Get("/transactions", h.listTransactions)
	r.Post("/transactions", h.recordTransaction)
	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers", h.createSupplier)
	r.Get("/suppliers/{id}", h.getSupplier)
}

type transactionListResponse struct {
	Data       []StockTransaction `json:"data"`
	Pagination shared.Pagination  `json:"pagination"`
}

type adjustRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes"`
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	supplierID, err := queryInt(r, "supplier_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	items, err := h.service.ListItems(r.Context(), supplierID)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list stock items", err)
		return
	}
	if items == nil {
		items = []StockItem{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.CreateItem(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create stock item", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, item)
}

func (h *Handler) exportItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context(), 0)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "export stock items", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="inventory.csv"`)
	if err := WriteItemsCSV(w, items); err != nil {
		h.logger.Error("write inventory csv", slog.Any("error", err))
	}
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLowStock(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list low stock", err)
		return
	}
	if items == nil {
		items = []StockItem{}
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get stock item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
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
	item, err := h.service.UpdateItem(r.Context(), id, in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "update stock item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		httpx.RespondErrorLogged(w, h.logger, "delete stock item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in adjustRequest
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mv, err := h.service.Adjust(r.Context(), id, in.Quantity, in.Notes)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "adjust stock", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mv)
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.ReorderReport(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "reorder report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryInt(r, "item_id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	list, page, err := h.service.ListTransactions(r.Context(), TransactionListInput{
		ItemID: itemID,
		Type:   TransactionType(q.Get("type")),
		From:   q.Get("from"),
		To:     q.Get("to"),
		Page:   httpx.QueryPage(r),
	})
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list stock transactions", err)
		return
	}
	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="stock-transactions.csv"`)
		if err := WriteTransactionsCSV(w, list); err != nil {
			h.logger.Error("write transactions csv", slog.Any("error", err))
		}
		return
	}
	if list == nil {
		list = []StockTransaction{}
	}
	httpx.JSON(w, http.StatusOK, transactionListResponse{Data: list, Pagination: page})
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	var in TransactionInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if in.IdempotencyKey == "" {
		in.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	mv, err := h.service.RecordTransaction(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "record stock transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, mv)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "list suppliers", err)
		return
	}
	if list == nil {
		list = []Supplier{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var in SupplierInput
	if err := httpx.DecodeAndValidate(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	sup, err := h.service.CreateSupplier(r.Context(), in)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "create supplier", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sup)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detail, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		httpx.RespondErrorLogged(w, h.logger, "get supplier", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0, shared.NewValidationError(name, "must be a positive integer")
	}
	return v, nil
}
