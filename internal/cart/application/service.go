package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
	"github.com/leavalz/Natural-Triade-Shop/internal/pricing"
)

type Service struct {
	log      *slog.Logger
	repo     CartRepository
	products ProductReader
	calc     pricing.Calculator
}

func NewService(log *slog.Logger, repo CartRepository, products ProductReader, calc pricing.Calculator) *Service {
	return &Service{log: log, repo: repo, products: products, calc: calc}
}

// Add puts quantity units of a product into the user's cart, merging with an
// existing line for the same product. The stock check counts what is already
// in the cart; the authoritative check still happens at checkout.
func (s *Service) Add(ctx context.Context, userID, productID string, quantity int) (domain.LineView, error) {
	if quantity <= 0 {
		return domain.LineView{}, domain.ErrInvalidQuantity
	}

	product, err := s.products.ByID(ctx, productID)
	if err != nil {
		return domain.LineView{}, err
	}
	if !product.IsActive {
		// Deliberately the same error as a missing product.
		return domain.LineView{}, catalogdomain.ErrProductNotFound
	}

	line, err := s.repo.LineByProduct(ctx, userID, productID)
	switch {
	case err == nil:
		newQuantity := line.Quantity + quantity
		if product.Stock < newQuantity {
			return domain.LineView{}, &catalogdomain.InsufficientStockError{
				ProductID: productID,
				Available: product.Stock,
				Requested: newQuantity,
			}
		}
		if err := s.repo.UpdateQuantity(ctx, line.ID, newQuantity); err != nil {
			return domain.LineView{}, err
		}
		line.Quantity = newQuantity

	case errors.Is(err, domain.ErrLineNotFound):
		if product.Stock < quantity {
			return domain.LineView{}, &catalogdomain.InsufficientStockError{
				ProductID: productID,
				Available: product.Stock,
				Requested: quantity,
			}
		}
		line = domain.Line{
			ID:              uuid.NewString(),
			UserID:          userID,
			ProductID:       productID,
			Quantity:        quantity,
			PriceAtAddition: product.Price,
			CreatedAt:       time.Now().UTC(),
		}
		if err := s.repo.Insert(ctx, line); err != nil {
			return domain.LineView{}, err
		}

	default:
		return domain.LineView{}, err
	}

	return view(line, product), nil
}

// Update replaces a line's quantity.
func (s *Service) Update(ctx context.Context, userID, lineID string, quantity int) (domain.LineView, error) {
	line, err := s.repo.LineByID(ctx, userID, lineID)
	if err != nil {
		return domain.LineView{}, err
	}

	product, err := s.products.ByID(ctx, line.ProductID)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrProductNotFound) {
			return domain.LineView{}, catalogdomain.ErrProductUnavailable
		}
		return domain.LineView{}, err
	}
	if !product.IsActive {
		return domain.LineView{}, catalogdomain.ErrProductUnavailable
	}
	if quantity <= 0 {
		return domain.LineView{}, domain.ErrInvalidQuantity
	}
	if product.Stock < quantity {
		return domain.LineView{}, &catalogdomain.InsufficientStockError{
			ProductID: product.ID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	if err := s.repo.UpdateQuantity(ctx, line.ID, quantity); err != nil {
		return domain.LineView{}, err
	}
	line.Quantity = quantity
	return view(line, product), nil
}

func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	return s.repo.Delete(ctx, userID, lineID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}

// View returns the cart with totals. Lines whose product has gone inactive
// or missing are excluded from the result and the totals, but kept in the
// store in case the product comes back.
func (s *Service) View(ctx context.Context, userID string) (domain.Summary, error) {
	all, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return domain.Summary{}, err
	}

	items := make([]domain.LineView, 0, len(all))
	lines := make([]pricing.Line, 0, len(all))
	for _, lv := range all {
		if !lv.ProductExists || !lv.ProductActive {
			continue
		}
		items = append(items, lv)
		lines = append(lines, pricing.Line{UnitPrice: lv.PriceAtAddition, Quantity: lv.Quantity})
	}

	totals := s.calc.Compute(lines)
	return domain.Summary{
		Items:    items,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Total:    totals.Total,
	}, nil
}

func view(line domain.Line, p catalogdomain.Product) domain.LineView {
	return domain.LineView{
		Line:               line,
		ProductName:        p.Name,
		ProductDescription: p.Description,
		ProductImageURL:    p.ImageURL,
		ProductPrice:       p.Price,
		ProductStock:       p.Stock,
		ProductActive:      p.IsActive,
		ProductExists:      true,
	}
}
