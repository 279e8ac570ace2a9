package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"stamp_card/internal/model"
	"stamp_card/internal/repository"
)

var (
	ErrInvalidMenu    = errors.New("invalid menu format")
	ErrInvalidProduct = errors.New("invalid product")
)

// MenuService validates and stores the menu document
type MenuService interface {
	GetMenu(ctx context.Context) (model.Menu, error)
	SaveMenu(ctx context.Context, menu model.Menu) error
}

type menuService struct {
	repo repository.MenuRepository
}

// NewMenuService creates a new MenuService
func NewMenuService(repo repository.MenuRepository) MenuService {
	return &menuService{repo: repo}
}

func (s *menuService) GetMenu(ctx context.Context) (model.Menu, error) {
	return s.repo.Get(ctx)
}

// SaveMenu requires both lists and a name, category and numeric price on every product
func (s *menuService) SaveMenu(ctx context.Context, menu model.Menu) error {
	if menu.Categories == nil || menu.Products == nil {
		return ErrInvalidMenu
	}
	for i, raw := range menu.Products {
		if err := validateProduct(raw); err != nil {
			return fmt.Errorf("%w at index %d", err, i)
		}
	}
	if err := s.repo.Save(ctx, menu); err != nil {
		return fmt.Errorf("failed to save menu: %w", err)
	}
	return nil
}

func validateProduct(raw json.RawMessage) error {
	var product struct {
		Name     any `json:"name"`
		Category any `json:"category"`
		Price    any `json:"price"`
	}
	if err := json.Unmarshal(raw, &product); err != nil {
		return ErrInvalidProduct
	}
	if !nonEmptyString(product.Name) || !nonEmptyString(product.Category) {
		return ErrInvalidProduct
	}
	if _, ok := product.Price.(float64); !ok {
		return ErrInvalidProduct
	}
	return nil
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}
