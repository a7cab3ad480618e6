package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
)

var ErrInvalidProduct = errors.New("invalid product")

type Service struct {
	log  *slog.Logger
	repo ProductRepository
}

func NewService(log *slog.Logger, repo ProductRepository) *Service {
	return &Service{log: log, repo: repo}
}

// Get returns any product by id, active or not. Listing endpoints decide
// what to hide; a direct lookup only fails when the product does not exist.
func (s *Service) Get(ctx context.Context, id string) (domain.Product, error) {
	return s.repo.ByID(ctx, id)
}

func (s *Service) ListActive(ctx context.Context, rawCategory string) ([]domain.Product, error) {
	f := ListFilter{}
	if rawCategory != "" {
		c, err := domain.ParseCategory(rawCategory)
		if err != nil {
			return nil, err
		}
		f.Category = &c
	}
	return s.repo.List(ctx, f)
}

func (s *Service) ListAll(ctx context.Context, includeInactive bool) ([]domain.Product, error) {
	return s.repo.List(ctx, ListFilter{IncludeInactive: includeInactive})
}

func (s *Service) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	return s.repo.List(ctx, ListFilter{StockBelow: &threshold})
}

type CreateProductInput struct {
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	Category    string
}

func (s *Service) Create(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	category, err := domain.ParseCategory(in.Category)
	if err != nil {
		return domain.Product{}, err
	}
	if in.Name == "" || !in.Price.IsPositive() || in.Stock < 0 {
		return domain.Product{}, ErrInvalidProduct
	}

	now := time.Now().UTC()
	p := domain.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return domain.Product{}, err
	}
	s.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	ImageURL    *string
	Price       *decimal.Decimal
	Stock       *int
	Category    *string
	IsActive    *bool
}

func (s *Service) UpdateProduct(ctx context.Context, id string, in UpdateProductInput) (domain.Product, error) {
	p, err := s.repo.ByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.ImageURL != nil {
		p.ImageURL = *in.ImageURL
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return domain.Product{}, ErrInvalidProduct
		}
		p.Price = *in.Price
	}
	if in.Stock != nil {
		if *in.Stock < 0 {
			return domain.Product{}, ErrInvalidProduct
		}
		p.Stock = *in.Stock
	}
	if in.Category != nil {
		c, err := domain.ParseCategory(*in.Category)
		if err != nil {
			return domain.Product{}, err
		}
		p.Category = c
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}
