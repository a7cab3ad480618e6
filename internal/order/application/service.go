package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/pricing"
	"github.com/leavalz/Natural-Triade-Shop/pkg/tracing"
)

type Service struct {
	log   *slog.Logger
	repo  OrderRepository
	carts CartReader
	calc  pricing.Calculator
	now   func() time.Time
}

func NewService(log *slog.Logger, repo OrderRepository, carts CartReader, calc pricing.Calculator) *Service {
	return &Service{
		log:   log,
		repo:  repo,
		carts: carts,
		calc:  calc,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create turns the user's cart into a pending order. Prices come from the
// current catalog price, not the cart's price-at-addition; the cart snapshot
// exists for display, the order is what the user actually agrees to pay.
func (s *Service) Create(ctx context.Context, userID string, shipping domain.ShippingInfo) (domain.Order, error) {
	lines, err := s.carts.ListForUser(ctx, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrEmptyCart
	}

	now := s.now()
	orderID := uuid.NewString()

	items := make([]domain.Item, 0, len(lines))
	priceLines := make([]pricing.Line, 0, len(lines))
	for _, line := range lines {
		if !line.ProductExists || !line.ProductActive {
			return domain.Order{}, fmt.Errorf("%w: %s", catalogdomain.ErrProductUnavailable, line.ProductID)
		}
		if line.ProductStock < line.Quantity {
			return domain.Order{}, &catalogdomain.InsufficientStockError{
				ProductID: line.ProductID,
				Available: line.ProductStock,
				Requested: line.Quantity,
			}
		}

		items = append(items, domain.Item{
			ID:                 uuid.NewString(),
			OrderID:            orderID,
			ProductID:          line.ProductID,
			ProductName:        line.ProductName,
			ProductDescription: line.ProductDescription,
			ProductImageURL:    line.ProductImageURL,
			UnitPrice:          line.ProductPrice,
			Quantity:           line.Quantity,
			Subtotal:           pricing.LineSubtotal(line.ProductPrice, line.Quantity),
		})
		priceLines = append(priceLines, pricing.Line{UnitPrice: line.ProductPrice, Quantity: line.Quantity})
	}

	totals := s.calc.Compute(priceLines)
	o := domain.Order{
		ID:        orderID,
		UserID:    userID,
		Subtotal:  totals.Subtotal,
		Tax:       totals.Tax,
		Total:     totals.Total,
		Status:    domain.StatusPending,
		Shipping:  shipping,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
	}

	payload, err := json.Marshal(domain.OrderCreated{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Total:     o.Total.String(),
		ItemCount: len(o.Items),
	})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.Create(ctx, o, domain.EventOrderCreated, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order created", "order_id", o.ID, "user_id", userID, "total", o.Total.String())
	return o, nil
}

func (s *Service) Get(ctx context.Context, userID, orderID string) (domain.Order, error) {
	return s.repo.ByIDForUser(ctx, orderID, userID)
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.repo.List(ctx, f)
}

// Cancel is the owner-facing cancellation: only reachable while the order is
// pending, paid or processing, and always restores stock.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (domain.Order, error) {
	o, err := s.repo.ByIDForUser(ctx, orderID, userID)
	if err != nil {
		return domain.Order{}, err
	}
	if !o.Status.CancellableByOwner() {
		return domain.Order{}, &domain.InvalidTransitionError{From: o.Status, To: domain.StatusCancelled}
	}
	return s.cancel(ctx, o, "user")
}

// SetStatus is the admin entry point into the state machine.
func (s *Service) SetStatus(ctx context.Context, orderID, rawStatus string) (domain.Order, error) {
	target, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return domain.Order{}, err
	}

	o, err := s.repo.ByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if target == domain.StatusCancelled {
		return s.cancel(ctx, o, "admin")
	}

	from := o.Status
	if _, err := o.ApplyStatus(target, s.now()); err != nil {
		return domain.Order{}, err
	}

	eventType := ""
	var payload []byte
	if target == domain.StatusPaid {
		eventType = domain.EventOrderPaid
		payload, err = json.Marshal(domain.OrderPaid{OrderID: o.ID, PaymentIntentID: o.PaymentIntentID})
		if err != nil {
			return domain.Order{}, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, o, from, false, eventType, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order status updated", "order_id", o.ID, "from", from, "to", target)
	return o, nil
}

func (s *Service) cancel(ctx context.Context, o domain.Order, initiator string) (domain.Order, error) {
	from := o.Status
	restock, err := o.ApplyStatus(domain.StatusCancelled, s.now())
	if err != nil {
		return domain.Order{}, err
	}

	payload, err := json.Marshal(domain.OrderCancelled{OrderID: o.ID, Initiator: initiator, Restocked: restock})
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.repo.UpdateStatus(ctx, o, from, restock, domain.EventOrderCancelled, payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Order{}, err
	}
	s.log.Info("order cancelled", "order_id", o.ID, "initiator", initiator, "restocked", restock)
	return o, nil
}
