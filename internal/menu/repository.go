package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// Repository persists menu data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const categoryColumns = `id, name, description, created_at, updated_at`

const itemColumns = `id, category_id, name, description, price, image_url, is_available, created_at, updated_at`

func scanCategory(row pgx.Row) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.CategoryID, &it.Name, &it.Description, &it.Price, &it.ImageURL, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `INSERT INTO menu_categories (name, description)
VALUES ($1, $2) RETURNING `+categoryColumns, in.Name, in.Description))
	if err != nil {
		return Category{}, shared.MapConstraintError(err, "category")
	}
	return c, nil
}

// UpdateCategory overwrites a category.
func (r *Repository) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `UPDATE menu_categories SET name=$2, description=$3, updated_at=NOW()
WHERE id=$1 RETURNING `+categoryColumns, id, in.Name, in.Description))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.NewNotFoundError("category", id)
	}
	if err != nil {
		return Category{}, shared.MapConstraintError(err, "category")
	}
	return c, nil
}

// GetCategory loads a category by id.
func (r *Repository) GetCategory(ctx context.Context, id int64) (Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM menu_categories WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Category{}, shared.NewNotFoundError("category", id)
	}
	return c, err
}

// ListCategories returns categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM menu_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category and, by cascade, its items.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_categories WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("category", id)
	}
	return nil
}

// CreateItem inserts a menu item.
func (r *Repository) CreateItem(ctx context.Context, it Item) (Item, error) {
	out, err := scanItem(r.pool.QueryRow(ctx, `INSERT INTO menu_items (category_id, name, description, price, image_url, is_available)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+itemColumns,
		it.CategoryID, it.Name, it.Description, it.Price, it.ImageURL, it.IsAvailable))
	if err != nil {
		return Item{}, shared.MapConstraintError(err, "menu item")
	}
	return out, nil
}

// UpdateItem overwrites a menu item.
func (r *Repository) UpdateItem(ctx context.Context, it Item) (Item, error) {
	out, err := scanItem(r.pool.QueryRow(ctx, `UPDATE menu_items
SET category_id=$2, name=$3, description=$4, price=$5, image_url=$6, is_available=$7, updated_at=NOW()
WHERE id=$1 RETURNING `+itemColumns,
		it.ID, it.CategoryID, it.Name, it.Description, it.Price, it.ImageURL, it.IsAvailable))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.NewNotFoundError("menu item", it.ID)
	}
	if err != nil {
		return Item{}, shared.MapConstraintError(err, "menu item")
	}
	return out, nil
}

// GetItem loads a menu item.
func (r *Repository) GetItem(ctx context.Context, id int64) (Item, error) {
	it, err := scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM menu_items WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Item{}, shared.NewNotFoundError("menu item", id)
	}
	return it, err
}

// ListItems returns items ordered by category then name.
func (r *Repository) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	var (
		where []string
		args  []any
	)
	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if filter.AvailableOnly {
		where = append(where, "is_available")
	}
	query := `SELECT ` + itemColumns + ` FROM menu_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY category_id, name"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// DeleteItem removes a menu item.
func (r *Repository) DeleteItem(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM menu_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.NewNotFoundError("menu item", id)
	}
	return nil
}
