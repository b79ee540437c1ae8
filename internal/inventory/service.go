package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

const idempotencyModule = "inventory"

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	CreateItem(ctx context.Context, item StockItem) (StockItem, error)
	UpdateItem(ctx context.Context, item StockItem) (StockItem, error)
	GetItem(ctx context.Context, id int64) (StockItem, error)
	ListItems(ctx context.Context, supplierID int64) ([]StockItem, error)
	ListLowStock(ctx context.Context) ([]StockItem, error)
	DeleteItem(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]StockTransaction, int, error)
	CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
	GetSupplier(ctx context.Context, id int64) (Supplier, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort deduplicates client submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// MetricsPort counts rejected movements.
type MetricsPort interface {
	RecordStockRejection()
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	Location *time.Location
	Metrics  MetricsPort
	Logger   *slog.Logger
}

// Service coordinates inventory operations.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency IdempotencyPort
	integration IntegrationHandler
	metrics     MetricsPort
	loc         *time.Location
	logger      *slog.Logger
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, idem IdempotencyPort, cfg ServiceConfig, integration IntegrationHandler) *Service {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		idempotency: idem,
		integration: integration,
		metrics:     cfg.Metrics,
		loc:         loc,
		logger:      logger,
		now:         time.Now,
	}
}

// Movement is the result of a committed stock transaction.
type Movement struct {
	Transaction StockTransaction `json:"transaction"`
	Item        StockItem        `json:"item"`
}

// RecordTransaction applies a movement to an item and appends it to the
// ledger. The item update and the ledger insert commit together or not at all.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (Movement, error) {
	if in.ItemID <= 0 {
		return Movement{}, shared.NewValidationError("item_id", "is required")
	}
	if !in.Type.Valid() {
		return Movement{}, shared.NewValidationError("transaction_type", "must be one of IN OUT ADJ")
	}
	if in.Quantity.IsNegative() {
		return Movement{}, shared.NewValidationError("quantity", "must be greater than or equal to 0")
	}
	if err := shared.CheckScale("quantity", in.Quantity); err != nil {
		return Movement{}, err
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return Movement{}, shared.NewValidationError("unit_price", "must be greater than or equal to 0")
	}
	key, err := shared.ParseIdempotencyKey(in.IdempotencyKey)
	if err != nil {
		return Movement{}, err
	}

	insertedKey := false
	if key != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, key, idempotencyModule); err != nil {
			return Movement{}, err
		}
		insertedKey = true
	}

	date := s.now().UTC()
	if in.Date != nil {
		date = in.Date.UTC()
	}

	var result Movement
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		item, err := tx.GetItemForUpdate(ctx, in.ItemID)
		if err != nil {
			return err
		}
		entry := StockTransaction{
			ItemID:    item.ID,
			Type:      in.Type,
			Quantity:  in.Quantity,
			UnitPrice: item.CostPerUnit,
			Date:      date,
			Notes:     strings.TrimSpace(in.Notes),
			CreatedBy: shared.ActorFromContext(ctx),
		}
		if in.UnitPrice != nil {
			entry.UnitPrice = *in.UnitPrice
		}
		entry.UnitPrice = shared.RoundMoney(entry.UnitPrice)

		updated, err := Apply(item, entry)
		if err != nil {
			return err
		}
		if err := tx.UpdateItemQuantity(ctx, updated); err != nil {
			return fmt.Errorf("update quantity: %w", err)
		}
		saved, err := tx.InsertTransaction(ctx, entry)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		result = Movement{Transaction: saved, Item: updated}
		return nil
	})
	if err != nil {
		if insertedKey {
			if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
				s.logger.Warn("inventory: release idempotency key", slog.String("key", key), slog.Any("error", delErr))
			}
		}
		if isRejection(err) {
			s.logger.Info("inventory: movement rejected",
				slog.Int64("item_id", in.ItemID),
				slog.String("type", string(in.Type)),
				slog.String("quantity", in.Quantity.String()),
				slog.Any("error", err))
			if s.metrics != nil {
				s.metrics.RecordStockRejection()
			}
		}
		return Movement{}, err
	}

	s.record(ctx, shared.AuditCreate, "stock_transaction", result.Transaction.ID,
		fmt.Sprintf("%s %s of item %d", in.Type, in.Quantity.String(), in.ItemID))
	if s.integration != nil {
		evt := StockChangedEvent{
			ItemID:       result.Item.ID,
			Type:         result.Transaction.Type,
			Quantity:     result.Transaction.Quantity,
			Balance:      result.Item.Quantity,
			NeedsReorder: result.Item.NeedsReorder,
			At:           result.Transaction.Date,
		}
		if err := s.integration.HandleStockChanged(ctx, evt); err != nil {
			s.logger.Warn("inventory: stock changed hook", slog.Int64("item_id", evt.ItemID), slog.Any("error", err))
		}
	}
	return result, nil
}

// Adjust sets an item's quantity to an absolute count at its cost per unit.
func (s *Service) Adjust(ctx context.Context, itemID int64, quantity decimal.Decimal, notes string) (Movement, error) {
	if strings.TrimSpace(notes) == "" {
		notes = "stock adjustment"
	}
	return s.RecordTransaction(ctx, TransactionInput{
		ItemID:   itemID,
		Type:     TransactionTypeAdjust,
		Quantity: quantity,
		Notes:    notes,
	})
}

// CreateItem adds a stock item with its opening quantity.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (StockItem, error) {
	item, err := buildItem(in)
	if err != nil {
		return StockItem{}, err
	}
	if in.Quantity.IsNegative() {
		return StockItem{}, shared.NewValidationError("quantity", "must be greater than or equal to 0")
	}
	if err := shared.CheckScale("quantity", in.Quantity); err != nil {
		return StockItem{}, err
	}
	item.Quantity = in.Quantity
	created, err := s.repo.CreateItem(ctx, item)
	if err != nil {
		return StockItem{}, err
	}
	s.record(ctx, shared.AuditCreate, "stock_item", created.ID, created.Name)
	return created, nil
}

// UpdateItem changes item metadata. Quantity only moves through transactions.
func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (StockItem, error) {
	item, err := buildItem(in)
	if err != nil {
		return StockItem{}, err
	}
	item.ID = id
	updated, err := s.repo.UpdateItem(ctx, item)
	if err != nil {
		return StockItem{}, err
	}
	s.record(ctx, shared.AuditUpdate, "stock_item", id, updated.Name)
	return updated, nil
}

// GetItem returns one stock item.
func (s *Service) GetItem(ctx context.Context, id int64) (StockItem, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns stock items ordered by name. A positive supplierID
// restricts the list to that supplier.
func (s *Service) ListItems(ctx context.Context, supplierID int64) ([]StockItem, error) {
	return s.repo.ListItems(ctx, supplierID)
}

// DeleteItem removes a stock item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteItem(ctx, id); err != nil {
		return err
	}
	s.record(ctx, shared.AuditDelete, "stock_item", id, "stock item deleted")
	return nil
}

// ListLowStock returns items at or below their reorder level.
func (s *Service) ListLowStock(ctx context.Context) ([]StockItem, error) {
	return s.repo.ListLowStock(ctx)
}

// ReorderLine pairs a low stock item with its supplier.
type ReorderLine struct {
	Item     StockItem `json:"item"`
	Supplier *Supplier `json:"supplier,omitempty"`
}

// ReorderReport lists low stock items with supplier contact data.
func (s *Service) ReorderReport(ctx context.Context) ([]ReorderLine, error) {
	items, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	suppliers := make(map[int64]*Supplier)
	lines := make([]ReorderLine, 0, len(items))
	for _, item := range items {
		line := ReorderLine{Item: item}
		if item.SupplierID != nil {
			sup, ok := suppliers[*item.SupplierID]
			if !ok {
				loaded, err := s.repo.GetSupplier(ctx, *item.SupplierID)
				if err != nil {
					return nil, err
				}
				sup = &loaded
				suppliers[*item.SupplierID] = sup
			}
			line.Supplier = sup
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// TransactionListInput describes ledger query parameters as received from callers.
type TransactionListInput struct {
	ItemID int64
	Type   TransactionType
	From   string
	To     string
	Page   shared.Page
}

// ListTransactions returns a page of ledger entries, newest first. From and
// To are inclusive YYYY-MM-DD days in the configured location.
func (s *Service) ListTransactions(ctx context.Context, in TransactionListInput) ([]StockTransaction, shared.Pagination, error) {
	if in.Type != "" && !in.Type.Valid() {
		return nil, shared.Pagination{}, shared.NewValidationError("transaction_type", "must be one of IN OUT ADJ")
	}
	filter := TransactionFilter{ItemID: in.ItemID, Type: in.Type, Page: in.Page}
	if in.From != "" {
		day, err := time.ParseInLocation("2006-01-02", in.From, s.loc)
		if err != nil {
			return nil, shared.Pagination{}, shared.NewValidationError("from", "must be YYYY-MM-DD")
		}
		filter.From = day
	}
	if in.To != "" {
		day, err := time.ParseInLocation("2006-01-02", in.To, s.loc)
		if err != nil {
			return nil, shared.Pagination{}, shared.NewValidationError("to", "must be YYYY-MM-DD")
		}
		filter.To = day.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.To.After(filter.From) {
		return nil, shared.Pagination{}, shared.NewValidationError("to", "must not be before from")
	}
	list, total, err := s.repo.ListTransactions(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list transactions: %w", err)
	}
	return list, shared.NewPagination(in.Page.Page, in.Page.PerPage, total), nil
}

// CreateSupplier adds a supplier.
func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Supplier{}, shared.NewValidationError("name", "is required")
	}
	sup, err := s.repo.CreateSupplier(ctx, in)
	if err != nil {
		return Supplier{}, err
	}
	s.record(ctx, shared.AuditCreate, "supplier", sup.ID, sup.Name)
	return sup, nil
}

// ListSuppliers returns every supplier ordered by name.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

// SupplierDetail is a supplier with the items it provides.
type SupplierDetail struct {
	Supplier
	Items []StockItem `json:"items"`
}

// GetSupplier returns a supplier with its stock items.
func (s *Service) GetSupplier(ctx context.Context, id int64) (SupplierDetail, error) {
	sup, err := s.repo.GetSupplier(ctx, id)
	if err != nil {
		return SupplierDetail{}, err
	}
	items, err := s.repo.ListItems(ctx, id)
	if err != nil {
		return SupplierDetail{}, fmt.Errorf("list supplier items: %w", err)
	}
	if items == nil {
		items = []StockItem{}
	}
	return SupplierDetail{Supplier: sup, Items: items}, nil
}

func buildItem(in ItemInput) (StockItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return StockItem{}, shared.NewValidationError("name", "is required")
	}
	if !in.Unit.Valid() {
		return StockItem{}, shared.NewValidationError("unit", "must be one of kg g l ml unit dozen")
	}
	if in.ReorderLevel.IsNegative() {
		return StockItem{}, shared.NewValidationError("reorder_level", "must be greater than or equal to 0")
	}
	if err := shared.CheckScale("reorder_level", in.ReorderLevel); err != nil {
		return StockItem{}, err
	}
	if in.CostPerUnit.IsNegative() {
		return StockItem{}, shared.NewValidationError("cost_per_unit", "must be greater than or equal to 0")
	}
	return StockItem{
		Name:         name,
		Description:  in.Description,
		Unit:         in.Unit,
		ReorderLevel: in.ReorderLevel,
		SupplierID:   in.SupplierID,
		CostPerUnit:  shared.RoundMoney(in.CostPerUnit),
	}, nil
}

func isRejection(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

func (s *Service) record(ctx context.Context, action shared.AuditAction, entity string, id int64, description string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:     shared.ActorFromContext(ctx),
		Action:      action,
		Entity:      entity,
		EntityID:    fmt.Sprintf("%d", id),
		Description: description,
		IPAddress:   shared.ClientFromContext(ctx).IP,
	})
	if err != nil {
		s.logger.Warn("inventory: record activity", slog.Any("error", err))
	}
}
