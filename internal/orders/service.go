package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (Order, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error)
	DeleteOrder(ctx context.Context, id int64) error
	CreateTable(ctx context.Context, in TableInput) (Table, error)
	ListTables(ctx context.Context) ([]Table, error)
	SetTableOccupied(ctx context.Context, id int64, occupied bool) (Table, error)
}

// MenuCatalog resolves menu prices and availability.
type MenuCatalog interface {
	PriceOf(ctx context.Context, menuItemID int64) (decimal.Decimal, bool, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts total recomputations.
type MetricsPort interface {
	RecordOrderRecompute()
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	TaxRate  decimal.Decimal
	Location *time.Location
	Metrics  MetricsPort
	Cache    shared.CacheInvalidator
	Logger   *slog.Logger
}

// Service coordinates order workflows.
type Service struct {
	repo       RepositoryPort
	menu       MenuCatalog
	audit      AuditPort
	aggregator Aggregator
	loc        *time.Location
	metrics    MetricsPort
	cache      shared.CacheInvalidator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, menu MenuCatalog, audit AuditPort, cfg ServiceConfig) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		menu:       menu,
		audit:      audit,
		aggregator: NewAggregator(cfg.TaxRate),
		loc:        loc,
		metrics:    cfg.Metrics,
		cache:      cfg.Cache,
		logger:     logger,
		now:        time.Now,
	}
}

// ============================================================================
// ORDER OPERATIONS
// ============================================================================

// CreateOrder opens a PENDING, UNPAID order. Initial items are inserted and
// totals recomputed in the same transaction.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (Order, error) {
	prepared := make([]LineItem, 0, len(in.Items))
	for i, itemIn := range in.Items {
		item, err := s.prepareItem(ctx, itemIn)
		if err != nil {
			return Order{}, fmt.Errorf("items[%d]: %w", i, err)
		}
		prepared = append(prepared, item)
	}

	var created Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.InsertOrder(ctx, Order{
			OrderNumber:   NewOrderNumber(),
			TableID:       in.TableID,
			ServerID:      in.ServerID,
			CustomerName:  strings.TrimSpace(in.CustomerName),
			Status:        StatusPending,
			PaymentStatus: PaymentUnpaid,
			Subtotal:      decimal.Zero,
			Tax:           decimal.Zero,
			Total:         decimal.Zero,
			Notes:         in.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if len(prepared) == 0 {
			created = order
			return nil
		}
		for _, item := range prepared {
			item.OrderID = order.ID
			if _, err := tx.InsertItem(ctx, item); err != nil {
				return fmt.Errorf("insert item: %w", err)
			}
		}
		created, err = s.recompute(ctx, tx, order)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditCreate, created, "order opened")
	return created, nil
}

// AddItem appends a line item and recomputes the order totals.
func (s *Service) AddItem(ctx context.Context, orderID int64, in ItemInput) (Order, error) {
	item, err := s.prepareItem(ctx, in)
	if err != nil {
		return Order{}, err
	}
	order, err := s.mutateItems(ctx, orderID, func(ctx context.Context, tx TxRepository, _ Order) error {
		item.OrderID = orderID
		_, err := tx.InsertItem(ctx, item)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditUpdate, order, "item added")
	return order, nil
}

// UpdateItem replaces a line item's menu item, quantity, price or notes.
func (s *Service) UpdateItem(ctx context.Context, orderID, itemID int64, in ItemInput) (Order, error) {
	item, err := s.prepareItem(ctx, in)
	if err != nil {
		return Order{}, err
	}
	order, err := s.mutateItems(ctx, orderID, func(ctx context.Context, tx TxRepository, _ Order) error {
		if _, err := tx.GetItem(ctx, orderID, itemID); err != nil {
			return err
		}
		item.ID = itemID
		item.OrderID = orderID
		_, err := tx.UpdateItem(ctx, item)
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditUpdate, order, "item updated")
	return order, nil
}

// RemoveItem deletes a line item and recomputes the order totals.
func (s *Service) RemoveItem(ctx context.Context, orderID, itemID int64) (Order, error) {
	order, err := s.mutateItems(ctx, orderID, func(ctx context.Context, tx TxRepository, _ Order) error {
		return tx.DeleteItem(ctx, orderID, itemID)
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditUpdate, order, "item removed")
	return order, nil
}

// UpdateStatus moves the order through the workflow. Entering COMPLETED
// stamps completed_at.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, to Status) (Order, error) {
	if !to.Valid() {
		return Order{}, shared.NewValidationError("status", "unknown status")
	}
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := CheckTransition(order.Status, to); err != nil {
			return err
		}
		var completedAt *time.Time
		if to == StatusCompleted {
			now := s.now().UTC()
			completedAt = &now
			order.CompletedAt = completedAt
		}
		if err := tx.UpdateStatus(ctx, orderID, to, completedAt); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		order.Status = to
		order.Items, err = tx.ListItems(ctx, orderID)
		updated = order
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditUpdate, updated, "status "+string(to))
	return updated, nil
}

// UpdatePayment records payment status and method.
func (s *Service) UpdatePayment(ctx context.Context, orderID int64, in PaymentInput) (Order, error) {
	switch in.Status {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded:
	default:
		return Order{}, shared.NewValidationError("payment_status", "must be one of UNPAID PAID REFUNDED")
	}
	if in.Method != nil && !in.Method.valid() {
		return Order{}, shared.NewValidationError("payment_method", "must be one of CASH CARD MOBILE")
	}
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if in.Status == PaymentPaid && in.Method == nil && order.PaymentMethod == nil {
			return shared.NewValidationError("payment_method", "is required when paid")
		}
		if in.Status == PaymentRefunded && order.PaymentStatus != PaymentPaid {
			return shared.NewValidationError("payment_status", "only paid orders can be refunded")
		}
		if err := tx.UpdatePayment(ctx, orderID, in.Status, in.Method); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		order.PaymentStatus = in.Status
		if in.Method != nil {
			order.PaymentMethod = in.Method
		}
		order.Items, err = tx.ListItems(ctx, orderID)
		updated = order
		return err
	})
	if err != nil {
		return Order{}, err
	}
	s.afterChange(ctx, shared.AuditUpdate, updated, "payment "+string(in.Status))
	return updated, nil
}

// Get returns an order with items.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListInput describes list query parameters as received from callers.
type ListInput struct {
	Status  Status
	Date    string
	TableID int64
	Page    shared.Page
}

// List returns a page of orders. Date is a YYYY-MM-DD calendar day in the
// configured location.
func (s *Service) List(ctx context.Context, in ListInput) ([]Order, shared.Pagination, error) {
	filter := ListFilter{Status: in.Status, TableID: in.TableID, Page: in.Page}
	if in.Status != "" && !in.Status.Valid() {
		return nil, shared.Pagination{}, shared.NewValidationError("status", "unknown status")
	}
	if in.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", in.Date, s.loc)
		if err != nil {
			return nil, shared.Pagination{}, shared.NewValidationError("date", "must be YYYY-MM-DD")
		}
		filter.From = day
		filter.To = day.AddDate(0, 0, 1)
	}
	orders, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, shared.NewPagination(in.Page.Page, in.Page.PerPage, total), nil
}

// Delete removes an order together with its items.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteOrder(ctx, id); err != nil {
		return err
	}
	s.afterChange(ctx, shared.AuditDelete, Order{ID: id}, "order deleted")
	return nil
}

// ============================================================================
// TABLE OPERATIONS
// ============================================================================

// CreateTable adds a dining table.
func (s *Service) CreateTable(ctx context.Context, in TableInput) (Table, error) {
	if in.Number <= 0 {
		return Table{}, shared.NewValidationError("number", "must be greater than 0")
	}
	if in.Capacity < 1 {
		return Table{}, shared.NewValidationError("capacity", "must be at least 1")
	}
	return s.repo.CreateTable(ctx, in)
}

// ListTables returns every dining table.
func (s *Service) ListTables(ctx context.Context) ([]Table, error) {
	return s.repo.ListTables(ctx)
}

// SetTableOccupied marks a table as occupied or free.
func (s *Service) SetTableOccupied(ctx context.Context, id int64, occupied bool) (Table, error) {
	return s.repo.SetTableOccupied(ctx, id, occupied)
}

// ============================================================================
// HELPERS
// ============================================================================

// NewOrderNumber returns ORD- followed by six upper-case hex characters.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:6])
}

func (s *Service) prepareItem(ctx context.Context, in ItemInput) (LineItem, error) {
	if in.MenuItemID <= 0 {
		return LineItem{}, shared.NewValidationError("menu_item_id", "is required")
	}
	if in.Quantity <= 0 {
		return LineItem{}, shared.NewValidationError("quantity", "must be greater than 0")
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return LineItem{}, shared.NewValidationError("unit_price", "must be greater than or equal to 0")
	}
	price, available, err := s.menu.PriceOf(ctx, in.MenuItemID)
	if err != nil {
		return LineItem{}, err
	}
	if !available {
		return LineItem{}, shared.NewValidationError("menu_item_id", "menu item is not available")
	}
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	price = shared.RoundMoney(price)
	return LineItem{
		MenuItemID: in.MenuItemID,
		Quantity:   in.Quantity,
		UnitPrice:  price,
		Subtotal:   LineItemSubtotal(in.Quantity, price),
		Notes:      in.Notes,
	}, nil
}

// mutateItems locks the order, applies fn and recomputes totals in one transaction.
func (s *Service) mutateItems(ctx context.Context, orderID int64, fn func(context.Context, TxRepository, Order) error) (Order, error) {
	var updated Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status.Terminal() {
			return shared.NewValidationError("status", fmt.Sprintf("items of a %s order cannot change", order.Status))
		}
		if err := fn(ctx, tx, order); err != nil {
			return err
		}
		updated, err = s.recompute(ctx, tx, order)
		return err
	})
	return updated, err
}

func (s *Service) recompute(ctx context.Context, tx TxRepository, order Order) (Order, error) {
	items, err := tx.ListItems(ctx, order.ID)
	if err != nil {
		return Order{}, fmt.Errorf("reload items: %w", err)
	}
	totals := s.aggregator.Recompute(items)
	if err := tx.UpdateTotals(ctx, order.ID, totals); err != nil {
		return Order{}, fmt.Errorf("update totals: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordOrderRecompute()
	}
	order.Items = items
	order.Subtotal = totals.Subtotal
	order.Tax = totals.Tax
	order.Total = totals.Total
	return order, nil
}

func (s *Service) afterChange(ctx context.Context, action shared.AuditAction, order Order, description string) {
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("orders: bump dashboard cache", slog.Any("error", err))
		}
	}
	if s.audit == nil {
		return
	}
	client := shared.ClientFromContext(ctx)
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:     shared.ActorFromContext(ctx),
		Action:      action,
		Entity:      "order",
		EntityID:    fmt.Sprintf("%d", order.ID),
		Description: strings.TrimSpace(order.OrderNumber + " " + description),
		IPAddress:   client.IP,
	})
	if err != nil {
		s.logger.Warn("orders: record activity", slog.Any("error", err))
	}
}
