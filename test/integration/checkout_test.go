package integration

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	cartdomain "github.com/leavalz/Natural-Triade-Shop/internal/cart/domain"
	cartpg "github.com/leavalz/Natural-Triade-Shop/internal/cart/infrastructure/postgres"
	catalogdomain "github.com/leavalz/Natural-Triade-Shop/internal/catalog/domain"
	catalogpg "github.com/leavalz/Natural-Triade-Shop/internal/catalog/infrastructure/postgres"
	orderdomain "github.com/leavalz/Natural-Triade-Shop/internal/order/domain"
	orderpg "github.com/leavalz/Natural-Triade-Shop/internal/order/infrastructure/postgres"
	"github.com/leavalz/Natural-Triade-Shop/pkg/postgres"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestCheckoutTransaction drives the checkout and cancellation transactions
// against a real Postgres: stock decrement, cart clear, atomic abort on
// oversell, and restock on cancel.
func TestCheckoutTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	env, err := Setup(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { env.Teardown(context.Background()) })

	pool, err := postgres.Connect(ctx, env.PGURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, postgres.EnsureSchema(ctx, pool))

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	products := catalogpg.NewRepository(log, pool)
	carts := cartpg.NewRepository(log, pool)
	orders := orderpg.NewRepository(log, pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, products.Insert(ctx, catalogdomain.Product{
		ID:        "p1",
		Name:      "Serum de rosa mosqueta",
		Price:     dec("5000"),
		Stock:     10,
		Category:  catalogdomain.CategoryFacial,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, carts.Insert(ctx, cartdomain.Line{
		ID:              "l1",
		UserID:          "u1",
		ProductID:       "p1",
		Quantity:        2,
		PriceAtAddition: dec("5000"),
		CreatedAt:       now,
	}))

	o := orderdomain.Order{
		ID:       "o1",
		UserID:   "u1",
		Subtotal: dec("10000"),
		Tax:      dec("1900"),
		Total:    dec("11900"),
		Status:   orderdomain.StatusPending,
		Shipping: orderdomain.ShippingInfo{
			Address: "Av. Providencia 123",
			City:    "Santiago",
			Email:   "cliente@example.com",
		},
		Items: []orderdomain.Item{{
			ID:          "i1",
			OrderID:     "o1",
			ProductID:   "p1",
			ProductName: "Serum de rosa mosqueta",
			UnitPrice:   dec("5000"),
			Quantity:    2,
			Subtotal:    dec("10000"),
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, orders.Create(ctx, o, orderdomain.EventOrderCreated, []byte(`{}`), ""))

	p, err := products.ByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 8, p.Stock)

	lines, err := carts.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, lines, "checkout clears the cart in the same transaction")

	// Oversell aborts the whole transaction: no order row, stock untouched.
	over := o
	over.ID = "o2"
	over.Items = []orderdomain.Item{{
		ID: "i2", OrderID: "o2", ProductID: "p1",
		ProductName: "Serum de rosa mosqueta",
		UnitPrice:   dec("5000"), Quantity: 99, Subtotal: dec("495000"),
	}}
	err = orders.Create(ctx, over, orderdomain.EventOrderCreated, []byte(`{}`), "")
	var stockErr *catalogdomain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, 8, stockErr.Available)

	_, err = orders.ByID(ctx, "o2")
	require.ErrorIs(t, err, orderdomain.ErrOrderNotFound)
	p, err = products.ByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 8, p.Stock)

	// Cancelling restores the decremented stock.
	stored, err := orders.ByID(ctx, "o1")
	require.NoError(t, err)
	restock, err := stored.ApplyStatus(orderdomain.StatusCancelled, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, restock)
	require.NoError(t, orders.UpdateStatus(ctx, stored, orderdomain.StatusPending, restock,
		orderdomain.EventOrderCancelled, []byte(`{}`), ""))

	p, err = products.ByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 10, p.Stock)

	got, err := orders.ByID(ctx, "o1")
	require.NoError(t, err)
	require.Equal(t, orderdomain.StatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)
}
