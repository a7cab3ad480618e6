package application

import (
	"context"

	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
)

type CartRepository interface {
	// LineByID and LineByProduct return domain.ErrLineNotFound when absent.
	// Both are owner-scoped: a line belonging to another user is absent.
	LineByID(ctx context.Context, userID, lineID string) (domain.Line, error)
	LineByProduct(ctx context.Context, userID, productID string) (domain.Line, error)
	Insert(ctx context.Context, line domain.Line) error
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	Delete(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
	ListForUser(ctx context.Context, userID string) ([]domain.LineView, error)
}

type ProductReader interface {
	ByID(ctx context.Context, id string) (catalogdomain.Product, error)
}
