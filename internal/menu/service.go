package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trattoria-erp/trattoria/internal/shared"
)

// RepositoryPort abstracts menu persistence.
type RepositoryPort interface {
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error)
	GetCategory(ctx context.Context, id int64) (Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CreateItem(ctx context.Context, it Item) (Item, error)
	UpdateItem(ctx context.Context, it Item) (Item, error)
	GetItem(ctx context.Context, id int64) (Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// Service manages menu categories and items.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateCategory validates and stores a category.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Category{}, shared.NewValidationError("name", "is required")
	}
	return s.repo.CreateCategory(ctx, in)
}

// UpdateCategory changes a category name or description.
func (s *Service) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Category{}, shared.NewValidationError("name", "is required")
	}
	return s.repo.UpdateCategory(ctx, id, in)
}

// GetCategory returns a category.
func (s *Service) GetCategory(ctx context.Context, id int64) (Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// DeleteCategory removes a category with its items.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	return s.repo.DeleteCategory(ctx, id)
}

// CreateItem validates and stores a menu item. Items are available unless
// the input says otherwise.
func (s *Service) CreateItem(ctx context.Context, in ItemInput) (Item, error) {
	it, err := s.buildItem(in)
	if err != nil {
		return Item{}, err
	}
	if _, err := s.repo.GetCategory(ctx, it.CategoryID); err != nil {
		return Item{}, err
	}
	return s.repo.CreateItem(ctx, it)
}

// UpdateItem overwrites a menu item.
func (s *Service) UpdateItem(ctx context.Context, id int64, in ItemInput) (Item, error) {
	it, err := s.buildItem(in)
	if err != nil {
		return Item{}, err
	}
	if in.IsAvailable == nil {
		current, err := s.repo.GetItem(ctx, id)
		if err != nil {
			return Item{}, err
		}
		it.IsAvailable = current.IsAvailable
	}
	it.ID = id
	return s.repo.UpdateItem(ctx, it)
}

// GetItem returns a menu item.
func (s *Service) GetItem(ctx context.Context, id int64) (Item, error) {
	return s.repo.GetItem(ctx, id)
}

// ListItems returns menu items ordered by category then name.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]Item, error) {
	return s.repo.ListItems(ctx, filter)
}

// DeleteItem removes a menu item.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.repo.DeleteItem(ctx, id)
}

// PriceOf returns the current price of an item and whether it can be ordered.
func (s *Service) PriceOf(ctx context.Context, itemID int64) (decimal.Decimal, bool, error) {
	it, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("menu: price of %d: %w", itemID, err)
	}
	return it.Price, it.IsAvailable, nil
}

func (s *Service) buildItem(in ItemInput) (Item, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Item{}, shared.NewValidationError("name", "is required")
	}
	if in.CategoryID <= 0 {
		return Item{}, shared.NewValidationError("category_id", "is required")
	}
	if in.Price.IsNegative() {
		return Item{}, shared.NewValidationError("price", "must be greater than or equal to 0")
	}
	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return Item{
		CategoryID:  in.CategoryID,
		Name:        name,
		Description: in.Description,
		Price:       shared.RoundMoney(in.Price),
		ImageURL:    in.ImageURL,
		IsAvailable: available,
	}, nil
}
