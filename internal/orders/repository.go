package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository persists orders and tables in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations used by Service.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order) (Order, error)
	LockOrder(ctx context.Context, id int64) (Order, error)
	ListItems(ctx context.Context, orderID int64) ([]LineItem, error)
	GetItem(ctx context.Context, orderID, itemID int64) (LineItem, error)
	InsertItem(ctx context.Context, item LineItem) (LineItem, error)
	UpdateItem(ctx context.Context, item LineItem) (LineItem, error)
	DeleteItem(ctx context.Context, orderID, itemID int64) error
	UpdateTotals(ctx context.Context, orderID int64, totals Totals) error
	UpdateStatus(ctx context.Context, orderID int64, status Status, completedAt *time.Time) error
	UpdatePayment(ctx context.Context, orderID int64, status PaymentStatus, method *PaymentMethod) error
}

type txRepo struct {
	q db.DBTX
}

// WithTx executes fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{q: tx})
	})
}

const orderColumns = `id, order_number, table_id, server_id, customer_name, status, payment_status, payment_method,
subtotal, tax, total, notes, created_at, updated_at, completed_at`

const itemColumns = `id, order_id, menu_item_id, quantity, unit_price, subtotal, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o      Order
		method *string
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TableID, &o.ServerID, &o.CustomerName, &o.Status, &o.PaymentStatus, &method,
		&o.Subtotal, &o.Tax, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.CompletedAt)
	if err != nil {
		return Order{}, err
	}
	if method != nil {
		m := PaymentMethod(*method)
		o.PaymentMethod = &m
	}
	return o, nil
}

func scanItem(row pgx.Row) (LineItem, error) {
	var it LineItem
	err := row.Scan(&it.ID, &it.OrderID, &it.MenuItemID, &it.Quantity, &it.UnitPrice, &it.Subtotal, &it.Notes, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func methodArg(m *PaymentMethod) *string {
	if m == nil {
		return nil
	}
	s := string(*m)
	return &s
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) (Order, error) {
	out, err := scanOrder(t.q.QueryRow(ctx, `INSERT INTO orders (order_number, table_id, server_id, customer_name, status, payment_status, subtotal, tax, total, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING `+orderColumns,
		o.OrderNumber, o.TableID, o.ServerID, o.CustomerName, string(o.Status), string(o.PaymentStatus), o.Subtotal, o.Tax, o.Total, o.Notes))
	if err != nil {
		return Order{}, shared.MapConstraintError(err, "order")
	}
	return out, nil
}

func (t *txRepo) LockOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(t.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.NewNotFoundError("order", id)
	}
	return o, err
}

func (t *txRepo) ListItems(ctx context.Context, orderID int64) ([]LineItem, error) {
	return listItems(ctx, t.q, orderID)
}

func (t *txRepo) GetItem(ctx context.Context, orderID, itemID int64) (LineItem, error) {
	it, err := scanItem(t.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 AND id=$2`, orderID, itemID))
	if errors.Is(err, pgx.ErrNoRows) {
		return LineItem{}, shared.NewNotFoundError("order item", itemID)
	}
	return it, err
}

func (t *txRepo) InsertItem(ctx context.Context, it LineItem) (LineItem, error) {
	out, err := scanItem(t.q.QueryRow(ctx, `INSERT INTO order_items (order_id, menu_item_id, quantity, unit_price, subtotal, notes)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+itemColumns,
		it.OrderID, it.MenuItemID, it.Quantity, it.UnitPrice, it.Subtotal, it.Notes))
	if err != nil {
		return LineItem{}, shared.MapConstraintError(err, "menu_item_id")
	}
	return out, nil
}

func (t *txRepo) UpdateItem(ctx context.Context, it LineItem) (LineItem, error) {
	out, err := scanItem(t.q.QueryRow(ctx, `UPDATE order_items
SET menu_item_id=$3, quantity=$4, unit_price=$5, subtotal=$6, notes=$7, updated_at=NOW()
WHERE order_id=$1 AND id=$2 RETURNING `+itemColumns,
		it.OrderID, it.ID, it.MenuItemID, it.Quantity, it.UnitPrice, it.Subtotal, it.Notes))
	if errors.Is(err, pgx.ErrNoRows) {
		return LineItem{}, shared.NewNotFoundError("order item", it.ID)
	}
	if err != nil {
		return LineItem{}, shared.MapConstraintError(err, "menu_item_id")
	}
	return out, nil
}

func (t *txRepo) DeleteItem(ctx context.Context, orderID, itemID int64) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1 AND id=$2`, orderID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("order item", itemID)
	}
	return nil
}

func (t *txRepo) UpdateTotals(ctx context.Context, orderID int64, totals Totals) error {
	_, err := t.q.Exec(ctx, `UPDATE orders SET subtotal=$2, tax=$3, total=$4, updated_at=NOW() WHERE id=$1`,
		orderID, totals.Subtotal, totals.Tax, totals.Total)
	return err
}

func (t *txRepo) UpdateStatus(ctx context.Context, orderID int64, status Status, completedAt *time.Time) error {
	_, err := t.q.Exec(ctx, `UPDATE orders SET status=$2, completed_at=COALESCE($3, completed_at), updated_at=NOW() WHERE id=$1`,
		orderID, string(status), completedAt)
	return err
}

func (t *txRepo) UpdatePayment(ctx context.Context, orderID int64, status PaymentStatus, method *PaymentMethod) error {
	_, err := t.q.Exec(ctx, `UPDATE orders SET payment_status=$2, payment_method=COALESCE($3, payment_method), updated_at=NOW() WHERE id=$1`,
		orderID, string(status), methodArg(method))
	return err
}

func listItems(ctx context.Context, q db.DBTX, orderID int64) ([]LineItem, error) {
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM order_items WHERE order_id=$1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LineItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// GetOrder loads an order with its line items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.NewNotFoundError("order", id)
	}
	if err != nil {
		return Order{}, err
	}
	o.Items, err = listItems(ctx, r.pool, id)
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

// ListOrders returns a page of orders, newest first, and the total match count.
func (r *Repository) ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if filter.TableID > 0 {
		args = append(args, filter.TableID)
		where = append(where, fmt.Sprintf("table_id = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// DeleteOrder removes an order; line items cascade.
func (r *Repository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("order", id)
	}
	return nil
}

const tableColumns = `id, number, capacity, is_occupied, created_at, updated_at`

func scanTable(row pgx.Row) (Table, error) {
	var t Table
	err := row.Scan(&t.ID, &t.Number, &t.Capacity, &t.IsOccupied, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTable inserts a dining table.
func (r *Repository) CreateTable(ctx context.Context, in TableInput) (Table, error) {
	t, err := scanTable(r.pool.QueryRow(ctx, `INSERT INTO dining_tables (number, capacity) VALUES ($1, $2) RETURNING `+tableColumns,
		in.Number, in.Capacity))
	if err != nil {
		return Table{}, shared.MapConstraintError(err, "table")
	}
	return t, nil
}

// ListTables returns tables ordered by number.
func (r *Repository) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+tableColumns+` FROM dining_tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetTableOccupied flips the occupancy flag.
func (r *Repository) SetTableOccupied(ctx context.Context, id int64, occupied bool) (Table, error) {
	t, err := scanTable(r.pool.QueryRow(ctx, `UPDATE dining_tables SET is_occupied=$2, updated_at=NOW() WHERE id=$1 RETURNING `+tableColumns,
		id, occupied))
	if errors.Is(err, pgx.ErrNoRows) {
		return Table{}, shared.NewNotFoundError("table", id)
	}
	return t, err
}
