package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/platform/db"
	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the ledger.
type TxRepository interface {
	GetItemForUpdate(ctx context.Context, id int64) (StockItem, error)
	UpdateItemQuantity(ctx context.Context, item StockItem) error
	InsertTransaction(ctx context.Context, tx StockTransaction) (StockTransaction, error)
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

const itemColumns = `id, name, description, unit, quantity, reorder_level, supplier_id, cost_per_unit, created_at, updated_at`

const transactionColumns = `id, item_id, transaction_type, quantity, unit_price, txn_date, notes, COALESCE(created_by, 0), created_at`

const supplierColumns = `id, name, contact_person, email, phone, address, created_at, updated_at`

func scanItem(row pgx.Row) (StockItem, error) {
	var it StockItem
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Unit, &it.Quantity, &it.ReorderLevel, &it.SupplierID,
		&it.CostPerUnit, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return StockItem{}, err
	}
	it.NeedsReorder = NeedsReorder(it)
	return it, nil
}

func scanTransaction(row pgx.Row) (StockTransaction, error) {
	var t StockTransaction
	err := row.Scan(&t.ID, &t.ItemID, &t.Type, &t.Quantity, &t.UnitPrice, &t.Date, &t.Notes, &t.CreatedBy, &t.CreatedAt)
	return t, err
}

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.Name, &s.ContactPerson, &s.Email, &s.Phone, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *txRepo) GetItemForUpdate(ctx context.Context, id int64) (StockItem, error) {
	it, err := scanItem(t.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, shared.NewNotFoundError("stock item", id)
	}
	return it, err
}

func (t *txRepo) UpdateItemQuantity(ctx context.Context, item StockItem) error {
	tag, err := t.q.Exec(ctx, `UPDATE stock_items SET quantity=$2, updated_at=NOW() WHERE id=$1`, item.ID, item.Quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("stock item", item.ID)
	}
	return nil
}

func (t *txRepo) InsertTransaction(ctx context.Context, in StockTransaction) (StockTransaction, error) {
	var createdBy *int64
	if in.CreatedBy > 0 {
		createdBy = &in.CreatedBy
	}
	out, err := scanTransaction(t.q.QueryRow(ctx, `INSERT INTO stock_transactions (item_id, transaction_type, quantity, unit_price, txn_date, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+transactionColumns,
		in.ItemID, string(in.Type), in.Quantity, in.UnitPrice, in.Date, in.Notes, createdBy))
	if err != nil {
		return StockTransaction{}, shared.MapConstraintError(err, "item_id")
	}
	return out, nil
}

// CreateItem inserts a stock item with its opening quantity.
func (r *Repository) CreateItem(ctx context.Context, in StockItem) (StockItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO stock_items (name, description, unit, quantity, reorder_level, supplier_id, cost_per_unit)
VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+itemColumns,
		in.Name, in.Description, string(in.Unit), in.Quantity, in.ReorderLevel, in.SupplierID, in.CostPerUnit))
	if err != nil {
		return StockItem{}, shared.MapConstraintError(err, "supplier_id")
	}
	return it, nil
}

// UpdateItem rewrites item metadata. Quantity is left untouched.
func (r *Repository) UpdateItem(ctx context.Context, in StockItem) (StockItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `UPDATE stock_items
SET name=$2, description=$3, unit=$4, reorder_level=$5, supplier_id=$6, cost_per_unit=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+itemColumns,
		in.ID, in.Name, in.Description, string(in.Unit), in.ReorderLevel, in.SupplierID, in.CostPerUnit))
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, shared.NewNotFoundError("stock item", in.ID)
	}
	if err != nil {
		return StockItem{}, shared.MapConstraintError(err, "supplier_id")
	}
	return it, nil
}

// GetItem loads a stock item.
func (r *Repository) GetItem(ctx context.Context, id int64) (StockItem, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return StockItem{}, shared.NewNotFoundError("stock item", id)
	}
	return it, err
}

// ListItems returns stock items ordered by name, optionally for one supplier.
func (r *Repository) ListItems(ctx context.Context, supplierID int64) ([]StockItem, error) {
	query := `SELECT ` + itemColumns + ` FROM stock_items`
	var args []any
	if supplierID > 0 {
		query += ` WHERE supplier_id=$1`
		args = append(args, supplierID)
	}
	rows, err := r.pool.Query(ctx, query+` ORDER BY name, id`, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanItem)
}

// ListLowStock returns items at or below their reorder level.
func (r *Repository) ListLowStock(ctx context.Context) ([]StockItem, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+itemColumns+` FROM stock_items WHERE quantity <= reorder_level ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanItem)
}

// DeleteItem removes a stock item and cascades its transactions.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stock_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("stock item", id)
	}
	return nil
}

// ListTransactions returns ledger entries, newest first, and the match count.
func (r *Repository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]StockTransaction, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.ItemID > 0 {
		args = append(args, filter.ItemID)
		where = append(where, fmt.Sprintf("item_id = $%d", len(args)))
	}
	if filter.Type != "" {
		args = append(args, string(filter.Type))
		where = append(where, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("txn_date >= $%d", len(args)))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("txn_date < $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stock_transactions`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, filter.Page.Limit(), filter.Page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM stock_transactions%s ORDER BY txn_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collect(rows, scanTransaction)
	return out, total, err
}

// CreateSupplier inserts a supplier.
func (r *Repository) CreateSupplier(ctx context.Context, in SupplierInput) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `INSERT INTO suppliers (name, contact_person, email, phone, address)
VALUES ($1, $2, $3, $4, $5) RETURNING `+supplierColumns,
		in.Name, in.ContactPerson, in.Email, in.Phone, in.Address))
	if err != nil {
		return Supplier{}, shared.MapConstraintError(err, "supplier")
	}
	return s, nil
}

// ListSuppliers returns suppliers ordered by name.
func (r *Repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanSupplier)
}

// GetSupplier loads a supplier.
func (r *Repository) GetSupplier(ctx context.Context, id int64) (Supplier, error) {
	s, err := scanSupplier(r.pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, shared.NewNotFoundError("supplier", id)
	}
	return s, err
}
