package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrEmptyCart     = errors.New("cart is empty")
)

type ShippingInfo struct {
	Address    string
	City       string
	PostalCode string
	Email      string
	Phone      string
}

// Order is immutable in its priced fields after creation. Only status, the
// lifecycle timestamps and the payment intent reference ever change.
type Order struct {
	ID     string
	UserID string

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal

	Status   Status
	Shipping ShippingInfo

	PaymentMethod   string
	PaymentIntentID string

	Items []Item

	CreatedAt   time.Time
	UpdatedAt   time.Time
	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
}

// Item snapshots the product as it was sold. The source product can change
// or disappear afterwards without touching this historical record.
type Item struct {
	ID                 string
	OrderID            string
	ProductID          string
	ProductName        string
	ProductDescription string
	ProductImageURL    string
	UnitPrice          decimal.Decimal
	Quantity           int
	Subtotal           decimal.Decimal
}

// ApplyStatus moves the order to a new status, stamping the matching
// lifecycle timestamp the first time each status is entered. It reports
// whether stock has to be restored as part of the same persistence step.
func (o *Order) ApplyStatus(to Status, now time.Time) (restock bool, err error) {
	if err := o.Status.CanTransition(to); err != nil {
		return false, err
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = now

	switch to {
	case StatusPaid:
		if o.PaidAt == nil {
			t := now
			o.PaidAt = &t
		}
	case StatusShipped:
		if o.ShippedAt == nil {
			t := now
			o.ShippedAt = &t
		}
	case StatusDelivered:
		if o.DeliveredAt == nil {
			t := now
			o.DeliveredAt = &t
		}
	case StatusCancelled:
		if o.CancelledAt == nil {
			t := now
			o.CancelledAt = &t
		}
		return from.StockCommitted(), nil
	}
	return false, nil
}
