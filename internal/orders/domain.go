package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Status is the kitchen/service workflow state of an order.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "PREPARING"
	StatusReady     Status = "READY"
	StatusServed    Status = "SERVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusServed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// PaymentMethod is how an order was paid.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentCard   PaymentMethod = "CARD"
	PaymentMobile PaymentMethod = "MOBILE"
)

func (m PaymentMethod) valid() bool {
	return m == PaymentCash || m == PaymentCard || m == PaymentMobile
}

// Order is a customer order with cached totals over its line items.
type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"order_number"`
	TableID       *int64          `json:"table_id,omitempty"`
	ServerID      *int64          `json:"server_id,omitempty"`
	CustomerName  string          `json:"customer_name"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod *PaymentMethod  `json:"payment_method,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	Items         []LineItem      `json:"items"`
}

// LineItem is one menu item on an order.
type LineItem struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	MenuItemID int64           `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Notes      string          `json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Table is a dining table orders can be seated at.
type Table struct {
	ID         int64     `json:"id"`
	Number     int       `json:"number"`
	Capacity   int       `json:"capacity"`
	IsOccupied bool      `json:"is_occupied"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ItemInput adds or replaces a line item. UnitPrice defaults to the menu price.
type ItemInput struct {
	MenuItemID int64            `json:"menu_item_id" validate:"required,gt=0"`
	Quantity   int              `json:"quantity" validate:"required,gt=0"`
	UnitPrice  *decimal.Decimal `json:"unit_price,omitempty"`
	Notes      string           `json:"notes"`
}

// CreateOrderInput opens a new order.
type CreateOrderInput struct {
	TableID      *int64      `json:"table_id,omitempty" validate:"omitempty,gt=0"`
	ServerID     *int64      `json:"server_id,omitempty" validate:"omitempty,gt=0"`
	CustomerName string      `json:"customer_name" validate:"max=100"`
	Notes        string      `json:"notes"`
	Items        []ItemInput `json:"items" validate:"dive"`
}

// StatusInput requests a workflow transition.
type StatusInput struct {
	Status Status `json:"status" validate:"required"`
}

// PaymentInput records settlement.
type PaymentInput struct {
	Status PaymentStatus  `json:"payment_status" validate:"required,oneof=UNPAID PAID REFUNDED"`
	Method *PaymentMethod `json:"payment_method,omitempty"`
}

// TableInput creates a dining table.
type TableInput struct {
	Number   int `json:"number" validate:"required,gt=0"`
	Capacity int `json:"capacity" validate:"required,gte=1"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status  Status
	From    time.Time
	To      time.Time
	TableID int64
	Page    shared.Page
}
