package menu

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

type memoryRepo struct {
	categories map[int64]Category
	items      map[int64]Item
	nextID     int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{categories: map[int64]Category{}, items: map[int64]Item{}}
}

func (r *memoryRepo) CreateCategory(_ context.Context, in CategoryInput) (Category, error) {
	for _, c := range r.categories {
		if c.Name == in.Name {
			return Category{}, fmt.Errorf("%w: category already exists", shared.ErrConflict)
		}
	}
	r.nextID++
	c := Category{ID: r.nextID, Name: in.Name, Description: in.Description}
	r.categories[c.ID] = c
	return c, nil
}

func (r *memoryRepo) UpdateCategory(_ context.Context, id int64, in CategoryInput) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.NewNotFoundError("category", id)
	}
	c.Name, c.Description = in.Name, in.Description
	r.categories[id] = c
	return c, nil
}

func (r *memoryRepo) GetCategory(_ context.Context, id int64) (Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return Category{}, shared.NewNotFoundError("category", id)
	}
	return c, nil
}

func (r *memoryRepo) ListCategories(context.Context) ([]Category, error) {
	var out []Category
	for _, c := range r.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryRepo) DeleteCategory(_ context.Context, id int64) error {
	if _, ok := r.categories[id]; !ok {
		return shared.NewNotFoundError("category", id)
	}
	delete(r.categories, id)
	for itemID, it := range r.items {
		if it.CategoryID == id {
			delete(r.items, itemID)
		}
	}
	return nil
}

func (r *memoryRepo) CreateItem(_ context.Context, it Item) (Item, error) {
	r.nextID++
	it.ID = r.nextID
	r.items[it.ID] = it
	return it, nil
}

func (r *memoryRepo) UpdateItem(_ context.Context, it Item) (Item, error) {
	if _, ok := r.items[it.ID]; !ok {
		return Item{}, shared.NewNotFoundError("menu item", it.ID)
	}
	r.items[it.ID] = it
	return it, nil
}

func (r *memoryRepo) GetItem(_ context.Context, id int64) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, shared.NewNotFoundError("menu item", id)
	}
	return it, nil
}

func (r *memoryRepo) ListItems(_ context.Context, filter ItemFilter) ([]Item, error) {
	var out []Item
	for _, it := range r.items {
		if filter.CategoryID > 0 && it.CategoryID != filter.CategoryID {
			continue
		}
		if filter.AvailableOnly && !it.IsAvailable {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CategoryID != out[j].CategoryID {
			return out[i].CategoryID < out[j].CategoryID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *memoryRepo) DeleteItem(_ context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.NewNotFoundError("menu item", id)
	}
	delete(r.items, id)
	return nil
}

func TestCreateItemDefaultsAvailable(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: " Pasta "})
	require.NoError(t, err)
	require.Equal(t, "Pasta", cat.Name)

	item, err := svc.CreateItem(ctx, ItemInput{CategoryID: cat.ID, Name: "Carbonara", Price: decimal.RequireFromString("12.499")})
	require.NoError(t, err)
	require.True(t, item.IsAvailable)
	require.True(t, item.Price.Equal(decimal.RequireFromString("12.50")))

	price, available, err := svc.PriceOf(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, available)
	require.True(t, price.Equal(decimal.RequireFromString("12.50")))
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	cat, err := svc.CreateCategory(ctx, CategoryInput{Name: "Drinks"})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, ItemInput{CategoryID: cat.ID, Name: "Water", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(ctx, ItemInput{CategoryID: cat.ID, Name: "  "})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.CreateItem(ctx, ItemInput{CategoryID: 99, Name: "Ghost"})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateItemKeepsAvailabilityWhenOmitted(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()
	cat, _ := svc.CreateCategory(ctx, CategoryInput{Name: "Dessert"})
	off := false
	item, err := svc.CreateItem(ctx, ItemInput{CategoryID: cat.ID, Name: "Tiramisu", Price: decimal.NewFromInt(6), IsAvailable: &off})
	require.NoError(t, err)
	require.False(t, item.IsAvailable)

	updated, err := svc.UpdateItem(ctx, item.ID, ItemInput{CategoryID: cat.ID, Name: "Tiramisu", Price: decimal.NewFromInt(7)})
	require.NoError(t, err)
	require.False(t, updated.IsAvailable)
	require.True(t, updated.Price.Equal(decimal.NewFromInt(7)))
}

func TestPriceOfMissingItem(t *testing.T) {
	svc := NewService(newMemoryRepo())
	_, _, err := svc.PriceOf(context.Background(), 42)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
