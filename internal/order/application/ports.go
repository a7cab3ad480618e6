package application

import (
	"context"

	cartdomain "github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
)

type ListFilter struct {
	Status *domain.Status
	UserID string
	Limit  int
	Offset int
}

type OrderRepository interface {
	// Create persists the order and its items, decrements stock, clears the
	// user's cart and writes the outbox event, all in one transaction. Stock
	// is re-checked inside that transaction; a failed check aborts everything
	// and surfaces as ErrProductUnavailable or InsufficientStockError.
	Create(ctx context.Context, o domain.Order, eventType string, payload []byte, traceparent string) error

	ByID(ctx context.Context, id string) (domain.Order, error)
	ByIDForUser(ctx context.Context, id, userID string) (domain.Order, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, error)

	// UpdateStatus persists the order's new status and timestamps, guarded
	// by the expected prior status so concurrent transitions cannot both
	// apply. With restock set it also returns each item's quantity to its
	// product's stock in the same transaction. An empty eventType skips the
	// outbox write.
	UpdateStatus(ctx context.Context, o domain.Order, from domain.Status, restock bool, eventType string, payload []byte, traceparent string) error
}

type CartReader interface {
	ListForUser(ctx context.Context, userID string) ([]cartdomain.LineView, error)
}
