package application

import (
	"context"

	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
)

type ListFilter struct {
	Category        *domain.Category
	IncludeInactive bool
	StockBelow      *int
}

type ProductRepository interface {
	ByID(ctx context.Context, id string) (domain.Product, error)
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	Insert(ctx context.Context, p domain.Product) error
	Update(ctx context.Context, p domain.Product) error
}
