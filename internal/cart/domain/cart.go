package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLineNotFound    = errors.New("cart item not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Line is one (user, product) entry in the cart. PriceAtAddition is captured
// from the product when the line is first created and never overwritten by
// later adds; checkout prices from the current catalog price instead.
type Line struct {
	ID              string
	UserID          string
	ProductID       string
	Quantity        int
	PriceAtAddition decimal.Decimal
	CreatedAt       time.Time
}

// LineView is a cart line joined with the current state of its product.
// The product may have been deactivated or deleted since the line was
// created; the cart tolerates that and re-validates at checkout.
type LineView struct {
	Line
	ProductName        string
	ProductDescription string
	ProductImageURL    string
	ProductPrice       decimal.Decimal
	ProductStock       int
	ProductActive      bool
	ProductExists      bool
}

type Summary struct {
	Items    []LineView
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}
