package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"stamp_card/internal/model"
)

// ErrMenuCorrupt is returned when the menu file exists but does not parse
var ErrMenuCorrupt = errors.New("menu document is corrupt")

// MenuRepository reads and writes the menu document, independent of AppState
type MenuRepository interface {
	Get(ctx context.Context) (model.Menu, error)
	Save(ctx context.Context, menu model.Menu) error
}

type menuRepository struct {
	path string
}

// NewMenuRepository creates a MenuRepository backed by a JSON file
func NewMenuRepository(path string) MenuRepository {
	return &menuRepository{path: path}
}

// Get returns the stored menu. A missing file is created empty.
func (r *menuRepository) Get(ctx context.Context) (model.Menu, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			menu := model.EmptyMenu()
			if err := r.Save(ctx, menu); err != nil {
				return model.Menu{}, err
			}
			return menu, nil
		}
		return model.Menu{}, fmt.Errorf("failed to read menu: %w", err)
	}
	var menu model.Menu
	if err := json.Unmarshal(data, &menu); err != nil {
		return model.Menu{}, fmt.Errorf("%w: %v", ErrMenuCorrupt, err)
	}
	if menu.Categories == nil {
		menu.Categories = []json.RawMessage{}
	}
	if menu.Products == nil {
		menu.Products = []json.RawMessage{}
	}
	return menu, nil
}

func (r *menuRepository) Save(_ context.Context, menu model.Menu) error {
	data, err := json.MarshalIndent(menu, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode menu: %w", err)
	}
	return writeFileAtomic(r.path, data)
}
