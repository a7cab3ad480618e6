package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryFacial     Category = "facial"
	CategoryCorporal   Category = "corporal"
	CategoryCabello    Category = "cabello"
	CategoryAccesorios Category = "accesorios"
)

var ErrInvalidCategory = errors.New("invalid product category")

// ParseCategory validates a raw category value against the closed set.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryFacial, CategoryCorporal, CategoryCabello, CategoryAccesorios:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
	Stock       int
	Category    Category
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
)

// InsufficientStockError always carries the amount still available so callers
// can tell the user what they could still buy.
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}
