package inventory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Unit enumerates counting units for stock items.
type Unit string

const (
	UnitKilogram   Unit = "kg"
	UnitGram       Unit = "g"
	UnitLiter      Unit = "l"
	UnitMilliliter Unit = "ml"
	UnitPiece      Unit = "unit"
	UnitDozen      Unit = "dozen"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	switch u {
	case UnitKilogram, UnitGram, UnitLiter, UnitMilliliter, UnitPiece, UnitDozen:
		return true
	}
	return false
}

// TransactionType enumerates supported inventory movements.
type TransactionType string

const (
	// TransactionTypeIn adds to stock.
	TransactionTypeIn TransactionType = "IN"
	// TransactionTypeOut removes from stock.
	TransactionTypeOut TransactionType = "OUT"
	// TransactionTypeAdjust sets stock to an absolute count.
	TransactionTypeAdjust TransactionType = "ADJ"
)

// Valid reports whether t is a known movement type.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIn || t == TransactionTypeOut || t == TransactionTypeAdjust
}

// Supplier provides stock items.
type Supplier struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	ContactPerson string    `json:"contact_person"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockItem is an ingredient or supply counted in a unit.
type StockItem struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Unit         Unit            `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	SupplierID   *int64          `json:"supplier_id,omitempty"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
	NeedsReorder bool            `json:"needs_reorder"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// StockTransaction is an immutable ledger entry against one item.
type StockTransaction struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	Type      TransactionType `json:"transaction_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Date      time.Time       `json:"date"`
	Notes     string          `json:"notes"`
	CreatedBy int64           `json:"created_by,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SupplierInput carries supplier fields.
type SupplierInput struct {
	Name          string `json:"name" validate:"required,max=100"`
	ContactPerson string `json:"contact_person" validate:"max=100"`
	Email         string `json:"email" validate:"omitempty,email"`
	Phone         string `json:"phone" validate:"max=20"`
	Address       string `json:"address"`
}

// ItemInput carries stock item fields. Quantity is only read on create;
// later changes go through transactions.
type ItemInput struct {
	Name         string          `json:"name" validate:"required,max=100"`
	Description  string          `json:"description"`
	Unit         Unit            `json:"unit" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	ReorderLevel decimal.Decimal `json:"reorder_level"`
	SupplierID   *int64          `json:"supplier_id,omitempty" validate:"omitempty,gt=0"`
	CostPerUnit  decimal.Decimal `json:"cost_per_unit"`
}

// TransactionInput records a stock movement. UnitPrice defaults to the
// item's cost per unit; Date defaults to now.
type TransactionInput struct {
	ItemID         int64            `json:"item_id" validate:"required,gt=0"`
	Type           TransactionType  `json:"transaction_type" validate:"required"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty"`
	Date           *time.Time       `json:"date,omitempty"`
	Notes          string           `json:"notes"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	ItemID int64
	Type   TransactionType
	From   time.Time
	To     time.Time
	Page   shared.Page
}

// ErrInsufficientStock is matched by every InsufficientStockError.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock available", shared.ErrConflict)

// InsufficientStockError reports an OUT movement larger than stock on hand.
type InsufficientStockError struct {
	ItemID    int64
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: available %s, requested %s",
		e.ItemID, e.Available.String(), e.Requested.String())
}

// Is lets callers match with errors.Is(err, ErrInsufficientStock).
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock || target == shared.ErrConflict
}
